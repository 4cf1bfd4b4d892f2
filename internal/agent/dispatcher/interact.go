package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/resolver"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
)

func (d *Dispatcher) clickElement(ctx context.Context, a action.ClickElement) action.Result {
	var res scripts.ElementResult
	if err := d.run(ctx, scripts.Click, scripts.SelectorArgs{Selector: a.Selector}, &res); err != nil {
		return failure("click "+a.Selector, err)
	}
	if !res.Found {
		return action.Failed(fmt.Sprintf("No element matches selector %q", a.Selector))
	}
	return action.Succeeded(fmt.Sprintf("Clicked %s %q", res.Tag, res.Text), res)
}

func (d *Dispatcher) findAndClick(ctx context.Context, a action.FindAndClick) action.Result {
	m, err := d.resolver.Click(ctx, a.ElementDescription)
	if err != nil {
		var nf *resolver.NotFoundError
		if errors.As(err, &nf) {
			return action.Result{Success: false, Message: nf.Error(), Data: map[string]any{"available": nf.Available}}
		}
		return failure("click", err)
	}
	return action.Succeeded(m.Summary("Clicked"), m)
}

func (d *Dispatcher) fillForm(ctx context.Context, a action.FillForm) action.Result {
	var res scripts.ElementResult
	args := scripts.FillArgs{Selector: a.Selector, Text: a.Text, Submit: a.Submit}
	if err := d.run(ctx, scripts.Fill, args, &res); err != nil {
		return failure("fill", err)
	}
	if !res.Found {
		if a.Selector != "" {
			return action.Failed(fmt.Sprintf("No input matches selector %q", a.Selector))
		}
		return action.Failed("No fillable input on the page")
	}
	msg := fmt.Sprintf("Filled %s with %q", describeField(res), a.Text)
	if res.Submitted {
		msg += " and submitted"
	}
	return action.Succeeded(msg, res)
}

func (d *Dispatcher) smartFill(ctx context.Context, a action.SmartFillForm) action.Result {
	if _, err := d.resolver.Locate(ctx, a.ElementDescription); err != nil {
		return failure("locate "+a.ElementDescription, err)
	}
	if len(a.FormData) == 0 {
		return action.Succeeded(fmt.Sprintf("Located %q; no fields to fill", a.ElementDescription), nil)
	}

	labels := make([]string, 0, len(a.FormData))
	for label := range a.FormData {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	filled := make([]string, 0, len(labels))
	var missed []string
	for _, label := range labels {
		if _, err := d.resolver.Fill(ctx, label, a.FormData[label]); err != nil {
			d.logger.Info("field not filled", zap.String("field", label), zap.Error(err))
			missed = append(missed, label)
			continue
		}
		filled = append(filled, label)
	}
	data := map[string]any{"filled": filled, "missed": missed}
	if len(filled) == 0 {
		return action.Result{Success: false, Message: "Could not fill any field of " + a.ElementDescription, Data: data}
	}
	msg := fmt.Sprintf("Filled %d of %d fields", len(filled), len(labels))
	if len(missed) > 0 {
		msg += "; missing: " + strings.Join(missed, ", ")
	}
	return action.Succeeded(msg, data)
}

func (d *Dispatcher) scroll(ctx context.Context, a action.ScrollPage) action.Result {
	dir := strings.ToLower(strings.TrimSpace(a.Direction))
	switch dir {
	case "":
		dir = "down"
	case "up", "down", "top", "bottom", "left", "right":
	default:
		return action.Failed(fmt.Sprintf("unknown scroll direction %q", a.Direction))
	}
	var res scripts.ScrollResult
	if err := d.run(ctx, scripts.Scroll, scripts.ScrollArgs{Direction: dir, Amount: a.Amount}, &res); err != nil {
		return failure("scroll", err)
	}
	return action.Succeeded("Scrolled "+dir, res)
}

// waitForElement polls until the selector matches or the timeout passes.
func (d *Dispatcher) waitForElement(ctx context.Context, a action.WaitForElement) action.Result {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = d.waitTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(d.waitPoll)
	defer ticker.Stop()

	start := time.Now()
	for {
		var res scripts.ElementResult
		err := d.run(ctx, scripts.Exists, scripts.SelectorArgs{Selector: a.Selector}, &res)
		if err == nil && res.Found {
			waited := time.Since(start)
			return action.Succeeded(
				fmt.Sprintf("Element %q appeared", a.Selector),
				map[string]any{"selector": a.Selector, "visible": res.Visible, "waitedMs": waited.Milliseconds()},
			)
		}
		select {
		case <-ctx.Done():
			return action.Failed(fmt.Sprintf("Element %q did not appear within %s", a.Selector, timeout))
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, name scripts.Name, args, out any) error {
	code, err := scripts.Build(name, args)
	if err != nil {
		return err
	}
	return d.page.RunScript(ctx, code, out)
}

func describeField(res scripts.ElementResult) string {
	if res.Name != "" {
		return fmt.Sprintf("%s %q", res.Tag, res.Name)
	}
	return res.Tag
}
