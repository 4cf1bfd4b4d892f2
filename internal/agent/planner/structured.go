package planner

import (
	"strings"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/shared/utils"
)

// Structured reads the first JSON array in reply. Entries without a known
// action, a description and an object of parameters are dropped.
func Structured(reply string) []action.Blueprint {
	raw, ok := utils.ExtractArray(utils.StripFences(reply))
	if !ok {
		return nil
	}
	var entries []any
	if err := utils.DecodeLenient(raw, &entries); err != nil {
		return nil
	}
	if utils.CheckDepth(entries, utils.MaxJSONDepth) != nil {
		return nil
	}

	var out []action.Blueprint
	for _, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name, _ := obj["action"].(string)
		desc, _ := obj["description"].(string)
		params, ok := obj["parameters"].(map[string]any)
		if !ok || strings.TrimSpace(desc) == "" {
			continue
		}
		if k := action.Kind(strings.TrimSpace(name)); !k.Known() {
			continue
		}
		out = append(out, action.Blueprint{
			Action:      strings.TrimSpace(name),
			Description: strings.TrimSpace(desc),
			Parameters:  params,
		})
	}
	return out
}
