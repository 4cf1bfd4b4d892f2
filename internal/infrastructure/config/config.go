package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/AgentBrowser/internal/shared/paths"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	LLM       LLMConfig
	Agent     AgentConfig
	Storage   StorageConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8420"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// BrowserConfig holds the Chromium launch configuration.
type BrowserConfig struct {
	Headless      bool   `envconfig:"BROWSER_HEADLESS" default:"true"`
	ExecPath      string `envconfig:"BROWSER_EXEC_PATH"`
	UserDataDir   string `envconfig:"BROWSER_USER_DATA_DIR"`
	Width         int    `envconfig:"BROWSER_WIDTH" default:"1280"`
	Height        int    `envconfig:"BROWSER_HEIGHT" default:"900"`
	StartURL      string `envconfig:"BROWSER_START_URL" default:"about:blank"`
	ScreenshotDir string `envconfig:"BROWSER_SCREENSHOT_DIR" default:"agentbrowser/screenshots"`
}

// LLMConfig holds language-model transport configuration.
type LLMConfig struct {
	OpenAIBaseURL    string        `envconfig:"LLM_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel      string        `envconfig:"LLM_OPENAI_MODEL" default:"gpt-4o-mini"`
	AnthropicBaseURL string        `envconfig:"LLM_ANTHROPIC_BASE_URL" default:"https://api.anthropic.com"`
	AnthropicModel   string        `envconfig:"LLM_ANTHROPIC_MODEL" default:"claude-3-5-sonnet-latest"`
	MaxTokens        int           `envconfig:"LLM_MAX_TOKENS" default:"2048"`
	Timeout          time.Duration `envconfig:"LLM_TIMEOUT" default:"0s"`
	MaxRetries       int           `envconfig:"LLM_MAX_RETRIES" default:"2"`
	RequestsPerSec   float64       `envconfig:"LLM_RPS" default:"0"`
}

// AgentConfig holds the tuning knobs of the command and workflow engine.
type AgentConfig struct {
	IntentThreshold   float64       `envconfig:"AGENT_INTENT_THRESHOLD" default:"0.1"`
	ContextTTL        time.Duration `envconfig:"AGENT_CONTEXT_TTL" default:"30s"`
	ContextHistory    int           `envconfig:"AGENT_CONTEXT_HISTORY" default:"10"`
	ContextCacheSize  int           `envconfig:"AGENT_CONTEXT_CACHE_SIZE" default:"64"`
	IntentMemory      int           `envconfig:"AGENT_INTENT_MEMORY" default:"20"`
	NavigateSettle    time.Duration `envconfig:"AGENT_NAVIGATE_SETTLE" default:"3s"`
	InteractionSettle time.Duration `envconfig:"AGENT_INTERACTION_SETTLE" default:"1s"`
	StepDelay         time.Duration `envconfig:"AGENT_STEP_DELAY" default:"1s"`
	ClickDelay        time.Duration `envconfig:"AGENT_CLICK_DELAY" default:"500ms"`
	WaitPoll          time.Duration `envconfig:"AGENT_WAIT_POLL" default:"250ms"`
	WaitTimeout       time.Duration `envconfig:"AGENT_WAIT_TIMEOUT" default:"10s"`
	SearchableSites   []string      `envconfig:"AGENT_SEARCHABLE_SITES" default:"*youtube.com,*amazon.*,*ebay.*,*github.com,*reddit.com,*wikipedia.org,*etsy.com,*walmart.com,*netflix.com,*spotify.com"`
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	SettingsPath string `envconfig:"SETTINGS_PATH" default:"agentbrowser/settings.toml"`
	JournalPath  string `envconfig:"JOURNAL_PATH" default:"agentbrowser/journal.zst"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// DefaultSearchableSites lists hosts that carry their own search box.
var DefaultSearchableSites = []string{
	"*youtube.com", "*amazon.*", "*ebay.*", "*github.com", "*reddit.com",
	"*wikipedia.org", "*etsy.com", "*walmart.com", "*netflix.com", "*spotify.com",
}

// Load loads configuration from AGENTBROWSER_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("agentbrowser", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8420",
			Host: "127.0.0.1",
		},
		Browser: BrowserConfig{
			Headless:      true,
			Width:         1280,
			Height:        900,
			StartURL:      "about:blank",
			ScreenshotDir: "agentbrowser/screenshots",
		},
		LLM: LLMConfig{
			OpenAIBaseURL:    "https://api.openai.com/v1",
			OpenAIModel:      "gpt-4o-mini",
			AnthropicBaseURL: "https://api.anthropic.com",
			AnthropicModel:   "claude-3-5-sonnet-latest",
			MaxTokens:        2048,
			MaxRetries:       2,
		},
		Agent: AgentConfig{
			IntentThreshold:   0.1,
			ContextTTL:        30 * time.Second,
			ContextHistory:    10,
			ContextCacheSize:  64,
			IntentMemory:      20,
			NavigateSettle:    3 * time.Second,
			InteractionSettle: time.Second,
			StepDelay:         time.Second,
			ClickDelay:        500 * time.Millisecond,
			WaitPoll:          250 * time.Millisecond,
			WaitTimeout:       10 * time.Second,
			SearchableSites:   append([]string(nil), DefaultSearchableSites...),
		},
		Storage: StorageConfig{
			SettingsPath: "agentbrowser/settings.toml",
			JournalPath:  "agentbrowser/journal.zst",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// ResolvePaths anchors relative storage paths in the user's config
// directory and the screenshot directory in the user's cache directory.
func (c *Config) ResolvePaths() {
	c.Storage.SettingsPath = paths.Config(c.Storage.SettingsPath)
	c.Storage.JournalPath = paths.Config(c.Storage.JournalPath)
	c.Browser.ScreenshotDir = paths.Cache(c.Browser.ScreenshotDir)
}
