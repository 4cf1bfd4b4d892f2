package paths

import (
	"os"
	"path/filepath"
)

// AppName is the directory created under the user's config and cache roots.
const AppName = "agentbrowser"

// ConfigRoot returns the per-user configuration root, falling back to the
// working directory when the platform reports none.
func ConfigRoot() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

// CacheRoot returns the per-user cache root, falling back like ConfigRoot.
func CacheRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return "."
}

// Config resolves p against ConfigRoot unless it is absolute. An empty p
// stays empty, which callers treat as "do not persist".
func Config(p string) string {
	return resolve(ConfigRoot(), p)
}

// Cache resolves p against CacheRoot unless it is absolute.
func Cache(p string) string {
	return resolve(CacheRoot(), p)
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.Clean(p))
}
