package planner

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/validate"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
)

const planSystemPrompt = `You plan browser automation. Reply with a JSON array of steps and nothing else.
Each step is {"action": "<name>", "description": "<what the step does>", "parameters": {...}}.
Use only the actions listed, with every required parameter. Navigate urls must start with http:// or https://.`

const planExample = `[
  {"action": "navigate", "description": "Open the documentation", "parameters": {"url": "https://go.dev/doc/"}},
  {"action": "findAndClick", "description": "Open the tutorial", "parameters": {"elementDescription": "Tutorial: Get started with Go"}},
  {"action": "extractContent", "description": "Read the tutorial", "parameters": {"selector": "main", "mode": "text"}}
]`

// optional lists parameters a step may carry beyond the required ones.
var optional = map[action.Kind][]string{
	action.KindNewTab:         {"url"},
	action.KindCloseTab:       {"tabId"},
	action.KindExtractContent: {"mode"},
	action.KindScrollPage:     {"amount"},
	action.KindFillForm:       {"selector", "submit"},
	action.KindWaitForElement: {"timeout"},
	action.KindSmartFillForm:  {"formData"},
	action.KindExtractTable:   {"selector"},
}

func planPrompt(goal string) string {
	var b strings.Builder
	b.WriteString("Actions:\n")
	for _, k := range action.Kinds {
		line := "- " + string(k)
		if req := validate.Required[k]; len(req) > 0 {
			line += " (required: " + strings.Join(req, ", ") + ")"
		}
		if opt := optional[k]; len(opt) > 0 {
			line += " (optional: " + strings.Join(opt, ", ") + ")"
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "\nExample for \"read the Go tutorial\":\n%s\n\nGoal: %s", planExample, goal)
	return b.String()
}
