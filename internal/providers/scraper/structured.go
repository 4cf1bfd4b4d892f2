package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
)

// Structured gathers the machine-readable parts of a document.
type Structured struct {
	Title     string            `json:"title"`
	Meta      page.Meta         `json:"meta"`
	OpenGraph map[string]string `json:"openGraph,omitempty"`
	JSONLD    []any             `json:"jsonLd,omitempty"`
	Headings  []page.Heading    `json:"headings"`
	Lists     []List            `json:"lists,omitempty"`
}

// List is one ul or ol with its direct items.
type List struct {
	Ordered bool     `json:"ordered"`
	Items   []string `json:"items"`
}

// jsonLD must be read before scripts are stripped.
func jsonLD(s *goquery.Selection) []any {
	var out []any
	s.Find("script[type='application/ld+json']").Each(func(_ int, sc *goquery.Selection) {
		content := strings.TrimSpace(sc.Text())
		if content == "" {
			return
		}
		var data any
		if err := sonic.UnmarshalString(content, &data); err == nil {
			out = append(out, data)
		}
	})
	return out
}

func openGraph(s *goquery.Selection) map[string]string {
	og := make(map[string]string)
	s.Find("meta[property^='og:']").Each(func(_ int, m *goquery.Selection) {
		property := m.AttrOr("property", "")
		content := m.AttrOr("content", "")
		if property != "" && content != "" {
			og[strings.TrimPrefix(property, "og:")] = content
		}
	})
	return og
}

func lists(s *goquery.Selection, limit int) []List {
	var out []List
	s.Find("ul, ol").EachWithBreak(func(_ int, l *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		var items []string
		l.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			// own text only; nested lists are reported on their own
			own := li.Clone()
			own.Find("ul, ol").Remove()
			if t := text(own); t != "" {
				items = append(items, t)
			}
		})
		if len(items) > 0 {
			out = append(out, List{Ordered: goquery.NodeName(l) == "ol", Items: items})
		}
		return true
	})
	return out
}
