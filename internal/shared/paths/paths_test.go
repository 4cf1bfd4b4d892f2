package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	root := filepath.FromSlash("/home/u/.config")
	abs := filepath.FromSlash("/var/lib/agent/settings.toml")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty stays empty", "", ""},
		{"absolute untouched", abs, abs},
		{"relative joined", "agentbrowser/settings.toml", filepath.Join(root, "agentbrowser", "settings.toml")},
		{"cleaned", "agentbrowser/../agentbrowser/./journal.zst", filepath.Join(root, "agentbrowser", "journal.zst")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve(root, tt.in))
		})
	}
}

func TestConfigUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", dir)
	if ConfigRoot() != dir {
		t.Skip("platform ignores XDG_CONFIG_HOME")
	}
	assert.Equal(t, filepath.Join(dir, AppName, "settings.toml"), Config(filepath.Join(AppName, "settings.toml")))
	assert.Equal(t, filepath.Join(dir, AppName, "shots"), Cache(filepath.Join(AppName, "shots")))
}
