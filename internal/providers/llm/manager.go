package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/http/client"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/settings"
)

// Provider ids accepted in the active_provider setting.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Status describes the active provider for display.
type Status struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Configured bool   `json:"configured"`
}

// Manager resolves the active provider from the settings store on every
// call, so setting changes take effect immediately.
type Manager struct {
	store   *settings.Store
	cfg     config.LLMConfig
	http    *client.Client
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewManager creates a manager sharing one HTTP client between providers.
func NewManager(store *settings.Store, cfg config.LLMConfig, metrics *monitoring.Metrics, logger *zap.Logger) *Manager {
	log := logging.OrNop(logger)

	hc := client.DefaultConfig()
	hc.Name = "llm"
	hc.Timeout = cfg.Timeout
	hc.MaxRetries = cfg.MaxRetries
	hc.RequestsPerSec = cfg.RequestsPerSec
	hc.IsSuccessful = isSuccessful

	return &Manager{
		store:   store,
		cfg:     cfg,
		http:    client.New(hc, log),
		metrics: metrics,
		logger:  log,
	}
}

// Active builds the provider currently selected in settings.
func (m *Manager) Active() (Provider, error) {
	id := m.store.ActiveProvider()
	if id == "" {
		return nil, ErrNotConfigured
	}
	key := m.store.APIKey(id)
	if key == "" {
		return nil, fmt.Errorf("%w: %s has no API key", ErrNotConfigured, id)
	}
	opts := Options{APIKey: key, Model: m.store.Model(id), MaxTokens: m.cfg.MaxTokens}

	switch id {
	case ProviderOpenAI:
		opts.BaseURL = m.cfg.OpenAIBaseURL
		if opts.Model == "" {
			opts.Model = m.cfg.OpenAIModel
		}
		return NewOpenAI(id, m.http, opts, m.logger), nil
	case ProviderAnthropic:
		opts.BaseURL = m.cfg.AnthropicBaseURL
		if opts.Model == "" {
			opts.Model = m.cfg.AnthropicModel
		}
		return NewAnthropic(id, m.http, opts, m.logger), nil
	}
	return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, id)
}

// Status reports the active provider without contacting it.
func (m *Manager) Status() Status {
	id := m.store.ActiveProvider()
	st := Status{Provider: id}
	switch id {
	case ProviderOpenAI:
		st.Model = m.cfg.OpenAIModel
	case ProviderAnthropic:
		st.Model = m.cfg.AnthropicModel
	}
	if model := m.store.Model(id); model != "" {
		st.Model = model
	}
	_, err := m.Active()
	st.Configured = err == nil
	return st
}

// Complete implements Completer with the active provider.
func (m *Manager) Complete(ctx context.Context, prompt string, messages []Message) (string, error) {
	p, err := m.Active()
	if err != nil {
		return "", err
	}
	start := time.Now()
	text, err := p.Complete(ctx, prompt, messages)
	m.observe(p.ID(), start, err)
	return text, err
}

// CompleteStream implements Streamer with the active provider.
func (m *Manager) CompleteStream(ctx context.Context, prompt string, messages []Message) (<-chan Delta, error) {
	p, err := m.Active()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	ch, err := p.CompleteStream(ctx, prompt, messages)
	m.observe(p.ID(), start, err)
	return ch, err
}

func (m *Manager) observe(id string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, ErrInvalidCredential):
		status = "unauthorized"
		if derr := m.store.Deactivate(id); derr != nil {
			m.logger.Error("failed to deactivate provider", zap.String("provider", id), zap.Error(derr))
		}
	case err != nil:
		status = "error"
		m.logger.Warn("language model call failed", zap.String("provider", id), zap.Error(err))
	}
	m.metrics.RecordLLMCall(id, status, time.Since(start))
}
