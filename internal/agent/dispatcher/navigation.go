package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
)

func (d *Dispatcher) navigate(ctx context.Context, a action.Navigate) action.Result {
	target := action.BuildURL(a.URL, d.searchEndpoint())
	if target == "" {
		return action.Failed("navigate requires a url")
	}
	if err := d.page.Navigate(ctx, target); err != nil {
		return failure("navigate to "+target, err)
	}
	return action.Succeeded("Navigated to "+target, map[string]any{"url": target})
}

func (d *Dispatcher) search(ctx context.Context, a action.Search) action.Result {
	query := strings.TrimSpace(a.Query)
	if query == "" {
		return action.Failed("search requires a query")
	}
	target := action.SearchURL(query, d.searchEndpoint())
	if err := d.page.Navigate(ctx, target); err != nil {
		return failure("search", err)
	}
	return action.Succeeded(fmt.Sprintf("Searched for %q", query), map[string]any{"query": query, "url": target})
}

func (d *Dispatcher) newTab(ctx context.Context, a action.NewTab) action.Result {
	target := "about:blank"
	if strings.TrimSpace(a.URL) != "" {
		target = action.BuildURL(a.URL, d.searchEndpoint())
	}
	id, err := d.page.OpenTab(ctx, target)
	if err != nil {
		return failure("open tab", err)
	}
	return action.Succeeded("Opened new tab", map[string]any{"tabId": id, "url": target})
}

func (d *Dispatcher) closeTab(ctx context.Context, a action.CloseTab) action.Result {
	id := a.TabID
	if id == "" {
		id = d.page.CurrentTabID()
	}
	if err := d.page.CloseTab(ctx, id); err != nil {
		return failure("close tab "+id, err)
	}
	return action.Succeeded("Closed tab "+id, map[string]any{"tabId": id})
}

func (d *Dispatcher) switchTab(ctx context.Context, a action.SwitchTab) action.Result {
	if a.TabID == "" {
		return action.Failed("switchTab requires a tabId")
	}
	if err := d.page.SwitchTab(ctx, a.TabID); err != nil {
		return failure("switch to tab "+a.TabID, err)
	}
	return action.Succeeded("Switched to tab "+a.TabID, map[string]any{"tabId": a.TabID})
}

func (d *Dispatcher) history(ctx context.Context, done string, fn func(context.Context) error) action.Result {
	if err := fn(ctx); err != nil {
		return failure(strings.ToLower(done), err)
	}
	return action.Succeeded(done, nil)
}
