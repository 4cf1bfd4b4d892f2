package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/settings"
	"github.com/GriffinCanCode/AgentBrowser/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Storage.SettingsPath = filepath.Join(dir, "settings.toml")
	cfg.Storage.JournalPath = filepath.Join(dir, "journal.zst")
	cfg.Browser.ScreenshotDir = filepath.Join(dir, "shots")
	cfg.Logging.Development = true
	cfg.RateLimit.Enabled = false
	return cfg
}

func newRuntime(t *testing.T, cfg *config.Config) *Runtime {
	t.Helper()
	fp := testutil.NewFakePage("https://example.com/", "Example", "<html><body><h1>Example</h1></body></html>")
	rt, err := NewRuntimeWithPage(cfg, logging.Nop(), fp)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestRuntimeWiresSettings(t *testing.T) {
	cfg := testConfig(t)
	rt := newRuntime(t, cfg)

	require.NotNil(t, rt.Agent)
	require.NotNil(t, rt.Agent.Workflows)
	require.NotNil(t, rt.Journal)

	require.NoError(t, rt.Settings.Set(settings.KeyWorkflowEnabled, "false"))
	_, err := rt.Agent.Workflows.Start(t.Context(), "anything")
	assert.Error(t, err)

	reopened, err := settings.Open(cfg.Storage.SettingsPath, nil)
	require.NoError(t, err)
	assert.False(t, reopened.WorkflowEnabled())
}

func TestRouterServesAPI(t *testing.T) {
	rt := newRuntime(t, testConfig(t))
	h := New(rt).Router()

	for _, path := range []string{"/", "/health", "/settings", "/context", "/metrics"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(w.Body.String(), "agentbrowser_http_requests_total"))
}

func TestRateLimitApplied(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 1}
	h := New(newRuntime(t, cfg)).Router()

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
