package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	cdpage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
)

// Navigate loads url in the active tab and waits for the load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := b.do(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (b *Browser) Back(ctx context.Context) error {
	return b.do(ctx, chromedp.NavigateBack())
}

func (b *Browser) Forward(ctx context.Context) error {
	return b.do(ctx, chromedp.NavigateForward())
}

func (b *Browser) Reload(ctx context.Context) error {
	return b.do(ctx, chromedp.Reload())
}

// Screenshot captures the active tab's viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.do(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// OpenTab opens url in a new tab and activates it.
func (b *Browser) OpenTab(ctx context.Context, url string) (string, error) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return "", ErrClosed
	}

	tabCtx, cancel := chromedp.NewContext(b.root.ctx)
	b.run.Lock()
	err := runIn(ctx, tabCtx, chromedp.Navigate(url))
	b.run.Unlock()
	if err != nil {
		cancel()
		return "", fmt.Errorf("open tab %s: %w", url, err)
	}

	t := &tab{id: targetID(tabCtx), ctx: tabCtx, cancel: cancel}
	b.mu.Lock()
	b.tabs = append(b.tabs, t)
	b.active = t
	b.mu.Unlock()
	b.logger.Debug("tab opened", zap.String("tab", t.id), zap.String("url", url))
	return t.id, nil
}

// CloseTab closes a tab. The root tab owns the browser connection and is
// never torn down; closing it closes its page target instead.
func (b *Browser) CloseTab(ctx context.Context, id string) error {
	b.mu.Lock()
	if len(b.tabs) <= 1 {
		b.mu.Unlock()
		return fmt.Errorf("cannot close the last tab")
	}
	idx := -1
	for i, t := range b.tabs {
		if t.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("no tab %q", id)
	}
	t := b.tabs[idx]
	b.tabs = append(b.tabs[:idx:idx], b.tabs[idx+1:]...)
	if b.active == t {
		b.active = b.tabs[len(b.tabs)-1]
	}
	next := b.active
	b.mu.Unlock()

	if t == b.root {
		if err := runIn(ctx, next.ctx, chromedp.ActionFunc(func(c context.Context) error {
			return target.CloseTarget(target.ID(t.id)).Do(cdp.WithExecutor(c, chromedp.FromContext(c).Browser))
		})); err != nil {
			b.logger.Warn("closing root tab target failed", zap.Error(err))
		}
	} else {
		t.cancel()
	}
	b.logger.Debug("tab closed", zap.String("tab", id), zap.String("active", next.id))
	return b.focus(ctx, next)
}

// SwitchTab activates a tab and brings it to the front.
func (b *Browser) SwitchTab(ctx context.Context, id string) error {
	b.mu.Lock()
	var found *tab
	for _, t := range b.tabs {
		if t.id == id {
			found = t
			break
		}
	}
	if found == nil {
		b.mu.Unlock()
		return fmt.Errorf("no tab %q", id)
	}
	b.active = found
	b.mu.Unlock()
	return b.focus(ctx, found)
}

func (b *Browser) focus(ctx context.Context, t *tab) error {
	b.run.Lock()
	defer b.run.Unlock()
	return runIn(ctx, t.ctx, cdpage.BringToFront())
}

// CurrentTabID returns the active tab id.
func (b *Browser) CurrentTabID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.active == nil {
		return ""
	}
	return b.active.id
}

// Tabs lists the tabs this browser opened, with live URL and title.
func (b *Browser) Tabs(ctx context.Context) ([]page.Tab, error) {
	t, err := b.current()
	if err != nil {
		return nil, err
	}
	infos, err := chromedp.Targets(t.ctx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	byID := make(map[string]*target.Info, len(infos))
	for _, info := range infos {
		byID[string(info.TargetID)] = info
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]page.Tab, 0, len(b.tabs))
	for _, own := range b.tabs {
		tb := page.Tab{ID: own.id, Active: own == b.active}
		if info, ok := byID[own.id]; ok {
			tb.URL, tb.Title = info.URL, info.Title
		}
		out = append(out, tb)
	}
	return out, nil
}
