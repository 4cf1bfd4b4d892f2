package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
	"github.com/GriffinCanCode/AgentBrowser/internal/shared/utils"
)

const maxSelectorLen = 200

var genericTags = map[string]bool{
	"a": true, "button": true, "input": true, "div": true,
	"span": true, "form": true, "select": true, "textarea": true,
}

const enhanceSystemPrompt = `You write CSS selectors. Reply with one selector on a single line and nothing else.`

// Generic reports whether a selector is too vague to trust: empty, a
// wildcard, or a bare tag name.
func Generic(selector string) bool {
	s := strings.TrimSpace(selector)
	return s == "" || strings.Contains(s, "*") || genericTags[strings.ToLower(s)]
}

// enhance asks the model for a sharper selector when a targeted action
// carries a generic one. Any failure keeps the action unchanged.
func (c *Controller) enhance(ctx context.Context, desc string, a action.Action) action.Action {
	t, ok := a.(action.Targeted)
	if !ok || c.model == nil || !Generic(t.Target()) {
		return a
	}
	log := c.logger.With(zap.String("action", string(a.Kind())), zap.String("selector", t.Target()))

	var pc *page.Context
	if c.extractor != nil {
		if got, err := c.extractor.Extract(ctx); err == nil {
			pc = got
		}
	}
	reply, err := c.model.Complete(ctx, enhancePrompt(desc, t.Target(), pc),
		[]llm.Message{{Role: llm.RoleSystem, Content: enhanceSystemPrompt}})
	if err != nil {
		log.Debug("selector enhancement failed", zap.Error(err))
		return a
	}
	sel := cleanSelector(reply)
	if sel == "" || Generic(sel) {
		log.Debug("selector enhancement unusable", zap.String("reply", reply))
		return a
	}
	if c.page != nil {
		var found scripts.ElementResult
		code, err := scripts.Build(scripts.Exists, scripts.SelectorArgs{Selector: sel})
		if err != nil || c.page.RunScript(ctx, code, &found) != nil || !found.Found {
			log.Debug("enhanced selector matches nothing", zap.String("enhanced", sel))
			return a
		}
	}
	log.Info("selector enhanced", zap.String("enhanced", sel))
	return t.WithTarget(sel)
}

func enhancePrompt(desc, selector string, pc *page.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step: %s\nCurrent selector: %q\n", desc, selector)
	if pc != nil {
		fmt.Fprintf(&b, "Page: %s (%s)\n", pc.Title, pc.URL)
		for i, f := range pc.Forms {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "Form id=%q name=%q action=%q fields=%d\n", f.ID, f.Name, f.Action, len(f.Fields))
		}
		for i, btn := range pc.Buttons {
			if i == 15 {
				break
			}
			fmt.Fprintf(&b, "Button %q id=%q\n", btn.Text, btn.ID)
		}
	}
	b.WriteString("Selector:")
	return b.String()
}

func cleanSelector(reply string) string {
	s := strings.TrimSpace(utils.StripFences(reply))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "`\"'"))
	if len(s) > maxSelectorLen {
		return ""
	}
	return s
}
