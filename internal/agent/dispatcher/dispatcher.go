// Package dispatcher executes typed actions against the active page.
//
// Dispatch is the single entry point. Every action kind maps to exactly one
// handler, and every outcome, including a handler panic, comes back as an
// action.Result rather than an error.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/pagecontext"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/resolver"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/scraper"
)

// Defaults
const (
	DefaultWaitPoll      = 250 * time.Millisecond
	DefaultWaitTimeout   = 10 * time.Second
	DefaultScreenshotDir = "screenshots"
	TableRowLimit        = 50
)

// Dispatcher routes actions to handlers.
type Dispatcher struct {
	page      page.Automation
	resolver  *resolver.Resolver
	extractor *pagecontext.Extractor
	model     llm.Completer

	searchEndpoint func() string
	screenshotDir  string
	waitPoll       time.Duration
	waitTimeout    time.Duration
	limits         scraper.Limits
	now            func() time.Time

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExtractor supplies page context to analyzeContent.
func WithExtractor(e *pagecontext.Extractor) Option {
	return func(d *Dispatcher) { d.extractor = e }
}

// WithModel supplies the language model used by analyzeContent.
func WithModel(m llm.Completer) Option {
	return func(d *Dispatcher) { d.model = m }
}

// WithSearchEndpoint reads the search prefix at dispatch time.
func WithSearchEndpoint(f func() string) Option {
	return func(d *Dispatcher) { d.searchEndpoint = f }
}

func WithScreenshotDir(dir string) Option      { return func(d *Dispatcher) { d.screenshotDir = dir } }
func WithClock(now func() time.Time) Option    { return func(d *Dispatcher) { d.now = now } }
func WithLimits(l scraper.Limits) Option       { return func(d *Dispatcher) { d.limits = l } }
func WithMetrics(m *monitoring.Metrics) Option { return func(d *Dispatcher) { d.metrics = m } }

// WithWait sets the waitForElement poll interval and default timeout.
func WithWait(poll, timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if poll > 0 {
			d.waitPoll = poll
		}
		if timeout > 0 {
			d.waitTimeout = timeout
		}
	}
}

// New creates a dispatcher for p.
func New(p page.Automation, res *resolver.Resolver, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		page:           p,
		resolver:       res,
		searchEndpoint: func() string { return action.DefaultSearchEndpoint },
		screenshotDir:  DefaultScreenshotDir,
		waitPoll:       DefaultWaitPoll,
		waitTimeout:    DefaultWaitTimeout,
		limits:         scraper.DefaultLimits,
		now:            time.Now,
		logger:         logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.resolver == nil {
		d.resolver = resolver.New(p, d.logger)
	}
	return d
}

// Dispatch runs a and reports its outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, a action.Action) (res action.Result) {
	if a == nil {
		return action.Failed("no action given")
	}
	kind := a.Kind()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("action handler panicked", zap.String("action", string(kind)), zap.Any("panic", r))
			res = action.Failed(fmt.Sprintf("%s failed: internal error: %v", kind, r))
		}
		d.metrics.RecordStep(string(kind), res.Success, time.Since(start))
		d.logger.Debug("action dispatched",
			zap.String("action", string(kind)),
			zap.Bool("success", res.Success),
			zap.String("message", res.Message),
		)
	}()

	switch a := a.(type) {
	case action.Navigate:
		return d.navigate(ctx, a)
	case action.NewTab:
		return d.newTab(ctx, a)
	case action.CloseTab:
		return d.closeTab(ctx, a)
	case action.SwitchTab:
		return d.switchTab(ctx, a)
	case action.GoBack:
		return d.history(ctx, "Went back", d.page.Back)
	case action.GoForward:
		return d.history(ctx, "Went forward", d.page.Forward)
	case action.Reload:
		return d.history(ctx, "Reloaded page", d.page.Reload)
	case action.Search:
		return d.search(ctx, a)
	case action.ExtractContent:
		return d.extractContent(ctx, a)
	case action.ScrollPage:
		return d.scroll(ctx, a)
	case action.ClickElement:
		return d.clickElement(ctx, a)
	case action.FindAndClick:
		return d.findAndClick(ctx, a)
	case action.FillForm:
		return d.fillForm(ctx, a)
	case action.WaitForElement:
		return d.waitForElement(ctx, a)
	case action.Screenshot:
		return d.screenshot(ctx, a)
	case action.AnalyzeContent:
		return d.analyze(ctx, a)
	case action.SmartFillForm:
		return d.smartFill(ctx, a)
	case action.ExtractTable:
		return d.extractTable(ctx, a)
	case action.Reserved:
		return action.Failed(fmt.Sprintf("%s is not supported", a.Tag))
	default:
		return action.Failed(fmt.Sprintf("unknown action %q", kind))
	}
}

func failure(verb string, err error) action.Result {
	return action.Failed(fmt.Sprintf("%s failed: %v", verb, err))
}
