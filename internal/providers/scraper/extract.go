package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
)

var (
	ErrUnknownMode = errors.New("unknown extraction mode")
	ErrNoMatch     = errors.New("no element matches selector")
)

// summaryPolicy drops every tag; summaries are plain text.
var summaryPolicy = bluemonday.StrictPolicy()

// Extraction is the payload of an extractContent action. Only the fields
// of the requested mode are set.
type Extraction struct {
	Mode       string       `json:"mode"`
	URL        string       `json:"url"`
	Selector   string       `json:"selector,omitempty"`
	Text       string       `json:"text,omitempty"`
	Links      []page.Link  `json:"links,omitempty"`
	Images     []page.Image `json:"images,omitempty"`
	Forms      []page.Form  `json:"forms,omitempty"`
	Tables     []Table      `json:"tables,omitempty"`
	Structured *Structured  `json:"structured,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	Truncated  bool         `json:"truncated,omitempty"`
}

// Modes lists the supported extraction modes.
var Modes = []string{
	action.ModeText, action.ModeLinks, action.ModeImages, action.ModeForms,
	action.ModeTables, action.ModeStructured, action.ModeSummary, action.ModeAll,
}

// Extract reads one aspect of the document at baseURL. A non-empty selector
// scopes extraction to the matching elements; an empty mode means text.
func Extract(doc, baseURL, selector, mode string, limits Limits) (*Extraction, error) {
	if mode == "" {
		mode = action.ModeText
	}
	if !knownMode(mode) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	d, err := Load(doc)
	if err != nil {
		return nil, err
	}
	ld := jsonLD(d.Selection)
	strip(d.Selection)

	scope := d.Selection
	if selector = strings.TrimSpace(selector); selector != "" {
		scope = d.Find(selector)
		if scope.Length() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, selector)
		}
	}

	res := newResolver(baseURL)
	out := &Extraction{Mode: mode, URL: baseURL, Selector: selector}
	all := mode == action.ModeAll

	if all || mode == action.ModeText {
		var truncated bool
		out.Text, truncated = Truncate(scopedText(scope, selector == ""), limits.Text)
		out.Truncated = out.Truncated || truncated
	}
	if all || mode == action.ModeLinks {
		out.Links = links(scope, res, limits.Links)
	}
	if all || mode == action.ModeImages {
		out.Images = images(scope, res, limits.Images)
	}
	if all || mode == action.ModeForms {
		out.Forms = forms(scope, res, limits.Forms)
	}
	if all || mode == action.ModeTables {
		out.Tables = []Table{}
		for _, n := range scope.Nodes {
			if len(out.Tables) >= limits.Tables {
				break
			}
			if n.Type == html.ElementNode && n.Data == "table" {
				out.Tables = append(out.Tables, tableOf(n, limits.TableRows))
				continue
			}
			out.Tables = append(out.Tables, Tables(n, limits.Tables-len(out.Tables), limits.TableRows)...)
		}
	}
	if all || mode == action.ModeStructured {
		out.Structured = &Structured{
			Title:     text(d.Find("title").First()),
			Meta:      meta(d.Selection),
			OpenGraph: openGraph(d.Selection),
			JSONLD:    ld,
			Headings:  headings(scope, limits.Headings),
			Lists:     lists(scope, limits.Lists),
		}
	}
	if all || mode == action.ModeSummary {
		var truncated bool
		out.Summary, truncated = Truncate(summary(d.Selection, scope, selector == ""), limits.Summary)
		out.Truncated = out.Truncated || truncated
	}
	return out, nil
}

// ExtractTable reads the first table matched by selector, or the first
// table in the document, with up to maxRows data rows.
func ExtractTable(doc, selector string, maxRows int) (*Table, error) {
	d, err := Load(doc)
	if err != nil {
		return nil, err
	}
	if selector = strings.TrimSpace(selector); selector == "" {
		selector = "table"
	}
	sel := d.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}
	if goquery.NodeName(sel) != "table" {
		sel = sel.Find("table").First()
		if sel.Length() == 0 {
			return nil, fmt.Errorf("%w: %s table", ErrNoMatch, selector)
		}
	}
	t := tableOf(sel.Nodes[0], maxRows)
	return &t, nil
}

func knownMode(mode string) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// scopedText prefers the body for whole-document reads so head text such as
// the title is not repeated.
func scopedText(scope *goquery.Selection, whole bool) string {
	if whole {
		return text(scope.Find("body"))
	}
	parts := make([]string, 0, scope.Length())
	scope.Each(func(_ int, s *goquery.Selection) {
		if t := text(s); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

// summary uses the meta description for whole documents, then the leading
// paragraphs. Markup embedded in the text is stripped.
func summary(doc, scope *goquery.Selection, whole bool) string {
	var s string
	if whole {
		s = meta(doc).Description
	}
	if s == "" {
		var paras []string
		scope.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			if t := text(p); t != "" {
				paras = append(paras, t)
			}
			return len(strings.Join(paras, " ")) < DefaultLimits.Summary
		})
		s = strings.Join(paras, " ")
	}
	if s == "" {
		s = scopedText(scope, whole)
	}
	return NormalizeWhitespace(html.UnescapeString(summaryPolicy.Sanitize(s)))
}
