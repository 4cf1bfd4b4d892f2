package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("browser closed")

// DefaultUserAgent is sent by Fetcher and is the fallback identity of
// launched browsers.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 AgentBrowser/1.0"

// tab is one open page target.
type tab struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
}

// Browser is a running Chromium driven through chromedp.
type Browser struct {
	allocCancel context.CancelFunc
	root        *tab

	// run serializes everything that talks to the active document.
	run sync.Mutex

	mu     sync.RWMutex
	tabs   []*tab
	active *tab
	closed bool

	logger *zap.Logger
}

var _ page.Automation = (*Browser)(nil)

// Launch starts Chromium and opens the start URL in the first tab.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Browser, error) {
	log := logging.OrNop(logger)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.Width, cfg.Height),
		chromedp.UserAgent(DefaultUserAgent),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	sugar := log.Sugar()
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)

	start := cfg.StartURL
	if start == "" {
		start = "about:blank"
	}
	if err := chromedp.Run(browserCtx, chromedp.Navigate(start)); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	root := &tab{id: targetID(browserCtx), ctx: browserCtx, cancel: cancel}
	b := &Browser{
		allocCancel: allocCancel,
		root:        root,
		tabs:        []*tab{root},
		active:      root,
		logger:      log,
	}
	log.Info("browser launched",
		zap.Bool("headless", cfg.Headless),
		zap.String("tab", root.id),
		zap.String("start_url", start),
	)
	return b, nil
}

// Close shuts Chromium down.
func (b *Browser) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	tabs := b.tabs
	b.tabs, b.active = nil, nil
	b.mu.Unlock()

	for i := len(tabs) - 1; i >= 0; i-- {
		tabs[i].cancel()
	}
	b.allocCancel()
	b.logger.Info("browser closed")
	return nil
}

// current returns the active tab.
func (b *Browser) current() (*tab, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed || b.active == nil {
		return nil, ErrClosed
	}
	return b.active, nil
}

// do runs actions against the active tab. The tab's own context carries
// the browser connection; ctx only bounds the wait.
func (b *Browser) do(ctx context.Context, actions ...chromedp.Action) error {
	t, err := b.current()
	if err != nil {
		return err
	}
	b.run.Lock()
	defer b.run.Unlock()
	return runIn(ctx, t.ctx, actions...)
}

// runIn runs actions on tabCtx and abandons the wait when ctx ends.
func runIn(ctx, tabCtx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tabCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func targetID(ctx context.Context) string {
	c := chromedp.FromContext(ctx)
	if c == nil || c.Target == nil {
		return ""
	}
	return string(c.Target.TargetID)
}
