package parser

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
)

const systemPrompt = `You turn one browser command into a single JSON object and nothing else:
{"understood": true|false, "action": "navigate|click|search|fill_form|scroll|extract|wait|none", "target": "...", "query": "...", "confidence": 0.0-1.0, "reasoning": "..."}

Rules:
- navigate: target is the address or site name.
- click: target describes the element in the user's words ("login button").
- search: query is what to search for. When the user is already on a site with its own search box (a video site, a marketplace, a code host, an encyclopedia), search that site: it is still "search", the browser will use the site's own box. Only search the web when the user names a web search engine or another site.
- fill_form: query is the text to type, target describes the field if one is named.
- scroll: target is up, down, top or bottom.
- extract: target is text, links, images, forms, tables, structured, summary or all.
- wait: target is a CSS selector to wait for.
- Questions about the page are not commands: use "none" with understood false.`

// prompt embeds the page context and the recent exchanges.
func (p *Parser) prompt(command string, pc *page.Context) string {
	var b strings.Builder
	if pc != nil && pc.URL != "" {
		fmt.Fprintf(&b, "Current page: %s\nURL: %s\n", pc.Title, pc.URL)
		if p.sites.Searchable(pc.URL) {
			b.WriteString("This site has its own search.\n")
		}
		if len(pc.Links) > 0 {
			b.WriteString("Links:\n")
			for i, l := range pc.Links {
				if i == promptLinks {
					break
				}
				fmt.Fprintf(&b, "- %s (%s)\n", l.Text, l.Href)
			}
		}
		if len(pc.Buttons) > 0 {
			labels := make([]string, 0, promptButtons)
			for i, btn := range pc.Buttons {
				if i == promptButtons {
					break
				}
				labels = append(labels, firstNonEmpty(btn.Text, btn.AriaLabel, btn.Name, btn.ID))
			}
			fmt.Fprintf(&b, "Buttons: %s\n", strings.Join(labels, ", "))
		}
		fmt.Fprintf(&b, "Forms on page: %d\n", len(pc.Forms))
	} else {
		b.WriteString("No page is loaded.\n")
	}

	if recent := p.recent(promptHistory); len(recent) > 0 {
		b.WriteString("\nPrevious commands:\n")
		for _, e := range recent {
			b.WriteString("- " + describeExchange(e) + "\n")
		}
	}
	fmt.Fprintf(&b, "\nCommand: %s", command)
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
