package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8420", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8420", cfg.Addr())

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1280, cfg.Browser.Width)

	assert.InDelta(t, 0.1, cfg.Agent.IntentThreshold, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Agent.ContextTTL)
	assert.Equal(t, 10, cfg.Agent.ContextHistory)
	assert.Equal(t, 20, cfg.Agent.IntentMemory)
	assert.Equal(t, 3*time.Second, cfg.Agent.NavigateSettle)
	assert.Equal(t, time.Second, cfg.Agent.InteractionSettle)
	assert.Equal(t, time.Second, cfg.Agent.StepDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Agent.ClickDelay)
	assert.Equal(t, DefaultSearchableSites, cfg.Agent.SearchableSites)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Agent, cfg.Agent)
	assert.Equal(t, def.LLM, cfg.LLM)
	assert.Equal(t, def.Storage, cfg.Storage)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("AGENTBROWSER_PORT", "9000")
	t.Setenv("AGENTBROWSER_BROWSER_HEADLESS", "false")
	t.Setenv("AGENTBROWSER_AGENT_CONTEXT_TTL", "45s")
	t.Setenv("AGENTBROWSER_AGENT_SEARCHABLE_SITES", "*example.com,*shop.test")
	t.Setenv("AGENTBROWSER_LLM_OPENAI_MODEL", "local-model")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Agent.ContextTTL)
	assert.Equal(t, []string{"*example.com", "*shop.test"}, cfg.Agent.SearchableSites)
	assert.Equal(t, "local-model", cfg.LLM.OpenAIModel)
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("AGENTBROWSER_AGENT_STEP_DELAY", "soon")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, time.Second, cfg.Agent.StepDelay)
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Storage.SettingsPath = filepath.Join(dir, "settings.toml")
	cfg.Storage.JournalPath = ""
	cfg.ResolvePaths()

	assert.Equal(t, filepath.Join(dir, "settings.toml"), cfg.Storage.SettingsPath)
	assert.Empty(t, cfg.Storage.JournalPath, "an empty journal path disables the journal")
	assert.True(t, filepath.IsAbs(cfg.Browser.ScreenshotDir))
	assert.Equal(t, "screenshots", filepath.Base(cfg.Browser.ScreenshotDir))
}
