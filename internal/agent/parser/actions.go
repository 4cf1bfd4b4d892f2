package parser

import (
	"strings"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/intent"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
)

// siteSearchBox is what the resolver is asked to click on a searchable site.
const siteSearchBox = "search"

// Actions expands an intent into the actions that carry it out. A search on
// a site with its own search box becomes click, type and submit on that
// site unless the command names another destination.
func (p *Parser) Actions(in intent.Intent, command string, pc *page.Context) []action.Action {
	if !in.Understood {
		return nil
	}
	switch in.Action {
	case intent.Navigate:
		target := firstNonEmpty(in.Target, in.Query)
		if target == "" {
			return nil
		}
		return []action.Action{action.Navigate{URL: target}}

	case intent.Click:
		if in.Target == "" {
			return nil
		}
		return []action.Action{action.FindAndClick{ElementDescription: in.Target}}

	case intent.Search:
		query := firstNonEmpty(in.Query, in.Target)
		if query == "" {
			return nil
		}
		if pc != nil && p.sites.Searchable(pc.URL) && !NamesDestination(command, pc.URL) {
			return []action.Action{
				action.FindAndClick{ElementDescription: siteSearchBox},
				action.FillForm{Text: query, Submit: true},
			}
		}
		return []action.Action{action.Search{Query: query}}

	case intent.FillForm:
		text := firstNonEmpty(in.Query, in.Target)
		if text == "" {
			return nil
		}
		if in.Query != "" && in.Target != "" {
			return []action.Action{
				action.FindAndClick{ElementDescription: in.Target},
				action.FillForm{Text: in.Query},
			}
		}
		return []action.Action{action.FillForm{Text: text}}

	case intent.Scroll:
		return []action.Action{action.ScrollPage{Direction: scrollDirection(in.Target)}}

	case intent.Extract:
		return []action.Action{action.ExtractContent{Mode: extractMode(firstNonEmpty(in.Target, action.ModeText))}}

	case intent.Wait:
		if in.Target == "" {
			return nil
		}
		return []action.Action{action.WaitForElement{Selector: in.Target}}
	}
	return nil
}

func scrollDirection(target string) string {
	t := strings.ToLower(target)
	switch {
	case strings.Contains(t, "top"):
		return "top"
	case strings.Contains(t, "bottom"):
		return "bottom"
	case strings.Contains(t, "up"):
		return "up"
	}
	return "down"
}
