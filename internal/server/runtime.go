package server

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/dispatcher"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/executor"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/pagecontext"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/parser"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/planner"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/resolver"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/sandbox"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/settings"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/storage"
)

// Runtime owns every long-lived component.
type Runtime struct {
	Config   *config.Config
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
	Settings *settings.Store
	Models   *llm.Manager
	Journal  *storage.Journal
	Agent    *agent.Agent

	closers []func() error
}

// NewRuntime opens the stores, launches the browser and assembles the
// agent around it.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Runtime, error) {
	if err := sandbox.Verify(); err != nil {
		return nil, fmt.Errorf("embedded page scripts: %w", err)
	}

	rt, err := newStores(cfg, logger)
	if err != nil {
		return nil, err
	}

	b, err := browser.Launch(ctx, cfg.Browser, logger.Component("browser"))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, b.Close)

	if err := rt.Assemble(b); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// NewRuntimeWithPage builds a runtime around an existing page, without
// launching a browser.
func NewRuntimeWithPage(cfg *config.Config, logger *logging.Logger, p page.Automation) (*Runtime, error) {
	rt, err := newStores(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := rt.Assemble(p); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func newStores(cfg *config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	cfg.ResolvePaths()
	rt := &Runtime{Config: cfg, Logger: logger, Metrics: monitoring.NewMetrics()}

	store, err := settings.Open(cfg.Storage.SettingsPath, logger.Component("settings"))
	if err != nil {
		return nil, err
	}
	rt.Settings = store
	rt.Models = llm.NewManager(store, cfg.LLM, rt.Metrics, logger.Component("llm"))

	if path := cfg.Storage.JournalPath; path != "" {
		j, err := storage.Open(path, logger.Component("journal"))
		if err != nil {
			return nil, err
		}
		rt.Journal = j
		rt.closers = append(rt.closers, j.Close)
	}
	return rt, nil
}

// Assemble builds the agent pipeline on top of p.
func (rt *Runtime) Assemble(p page.Automation) error {
	cfg, log, m := rt.Config.Agent, rt.Logger, rt.Metrics

	ext, err := pagecontext.New(p, log.Component("pagecontext"), cfg.ContextCacheSize,
		pagecontext.WithTTL(cfg.ContextTTL),
		pagecontext.WithHistory(cfg.ContextHistory),
		pagecontext.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	res := resolver.New(p, log.Component("resolver"),
		resolver.WithClickDelay(cfg.ClickDelay),
		resolver.WithMetrics(m),
	)
	d := dispatcher.New(p, res, log.Component("dispatcher"),
		dispatcher.WithExtractor(ext),
		dispatcher.WithModel(rt.Models),
		dispatcher.WithSearchEndpoint(rt.Settings.SearchEndpoint),
		dispatcher.WithScreenshotDir(rt.Config.Browser.ScreenshotDir),
		dispatcher.WithWait(cfg.WaitPoll, cfg.WaitTimeout),
		dispatcher.WithMetrics(m),
	)

	prs := parser.New(rt.Models, log.Component("parser"),
		parser.WithMemory(cfg.IntentMemory),
		parser.WithSites(parser.NewSites(cfg.SearchableSites)),
	)

	pl, err := planner.New(rt.Models, nil, log.Component("planner"))
	if err != nil {
		return err
	}
	ctlOpts := []executor.Option{
		executor.WithExtractor(ext),
		executor.WithModel(rt.Models),
		executor.WithEnabled(rt.Settings.WorkflowEnabled),
		executor.WithDelays(executor.Delays{
			Navigate:    cfg.NavigateSettle,
			Interaction: cfg.InteractionSettle,
			Step:        cfg.StepDelay,
		}),
		executor.WithMetrics(m),
	}
	if rt.Journal != nil {
		ctlOpts = append(ctlOpts, executor.WithJournal(rt.Journal))
	}
	ctl := executor.New(pl, d, p, log.Component("executor"), ctlOpts...)

	rt.Agent = agent.New(ext, prs, d, log.Component("agent"),
		agent.WithThreshold(cfg.IntentThreshold),
		agent.WithMetrics(m),
		agent.WithWorkflows(ctl),
	)
	log.Info("agent assembled",
		zap.Float64("intent_threshold", cfg.IntentThreshold),
		zap.String("llm_provider", rt.Models.Status().Provider),
	)
	return nil
}

// Close releases components in reverse order of creation.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	_ = rt.Logger.Sync()
	return errors.Join(errs...)
}
