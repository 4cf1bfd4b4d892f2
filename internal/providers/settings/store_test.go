package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := NewMemory()
	assert.Equal(t, "", s.ActiveProvider())
	assert.Equal(t, "https://www.google.com/search?q=", s.SearchEndpoint())
	assert.True(t, s.WorkflowEnabled())
}

func TestSetAndGet(t *testing.T) {
	s := NewMemory()

	require.NoError(t, s.Set(KeyActiveProvider, "openai"))
	require.NoError(t, s.Set("provider_keys.openai", "sk-test-1234567890"))
	require.NoError(t, s.Set("provider_models.openai", "gpt-4o"))
	require.NoError(t, s.Set(KeyWorkflowEnabled, "false"))

	v, err := s.Get("provider_keys.openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-1234567890", v)
	assert.Equal(t, "gpt-4o", s.Model("openai"))
	assert.False(t, s.WorkflowEnabled())

	_, err = s.Get("theme")
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = s.Get("provider_keys.")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestSetRejectsInvalidValues(t *testing.T) {
	s := NewMemory()
	assert.ErrorIs(t, s.Set(KeySearchEndpoint, "bing.com/?q="), ErrInvalidValue)
	assert.ErrorIs(t, s.Set(KeyWorkflowEnabled, "sometimes"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set("colour", "blue"), ErrUnknownKey)
	assert.Equal(t, "https://www.google.com/search?q=", s.SearchEndpoint())
}

func TestPersistsToTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyActiveProvider, "anthropic"))
	require.NoError(t, s.Set("provider_keys.anthropic", "sk-ant-abcdefgh"))
	require.NoError(t, s.Set(KeySearchEndpoint, "https://duckduckgo.com/?q="))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `active_provider = ['"]anthropic['"]`, string(raw))
	assert.Contains(t, string(raw), "[provider_keys]")

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", reopened.ActiveProvider())
	assert.Equal(t, "sk-ant-abcdefgh", reopened.APIKey("anthropic"))
	assert.Equal(t, "https://duckduckgo.com/?q=", reopened.SearchEndpoint())
	assert.True(t, reopened.WorkflowEnabled())
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("active_provider = ["), 0o600))
	_, err := Open(path, nil)
	assert.Error(t, err)
}

func TestDeactivate(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set(KeyActiveProvider, "openai"))
	require.NoError(t, s.Set("provider_keys.openai", "sk-1"))

	require.NoError(t, s.Deactivate("anthropic"))
	assert.Equal(t, "openai", s.ActiveProvider())

	require.NoError(t, s.Deactivate("openai"))
	assert.Equal(t, "", s.ActiveProvider())
	assert.Equal(t, "sk-1", s.APIKey("openai"))
}

func TestResetAndList(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set(KeySearchEndpoint, "https://www.bing.com/search?q="))
	require.NoError(t, s.Set("provider_keys.openai", "sk-live-0123456789"))
	require.NoError(t, s.Reset(KeySearchEndpoint))
	assert.Equal(t, "https://www.google.com/search?q=", s.SearchEndpoint())

	list := s.List()
	var found bool
	for _, item := range list {
		if item.Key == "provider_keys.openai" {
			found = true
			assert.Equal(t, "****6789", item.Value)
			assert.Equal(t, "secret", item.Type)
		}
	}
	assert.True(t, found)

	require.NoError(t, s.Reset("provider_keys.openai"))
	assert.Empty(t, s.APIKey("openai"))
}

func TestExportIsACopy(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set("provider_keys.openai", "sk-1"))
	v := s.Export()
	v.ProviderKeys["openai"] = "changed"
	assert.Equal(t, "sk-1", s.APIKey("openai"))
}
