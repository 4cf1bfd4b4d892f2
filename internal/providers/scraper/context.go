package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
)

const buttonSelector = "button, input[type=submit], input[type=button], input[type=reset], [role=button]"

// ParseContext builds a PageContext from a document snapshot. Script and
// style nodes are removed from the parsed copy before any text is read.
// Visibility is not knowable outside the page, so every link and button is
// reported visible.
func ParseContext(snap page.Snapshot, limits Limits, now time.Time) (*page.Context, error) {
	doc, err := Load(snap.HTML)
	if err != nil {
		return nil, err
	}
	strip(doc.Selection)

	title := snap.Title
	if title == "" {
		title = text(doc.Find("title").First())
	}

	res := newResolver(snap.URL)
	pc := page.Empty(snap.URL, title)
	pc.ExtractedAt = now
	pc.Links = links(doc.Selection, res, limits.Links)
	pc.Buttons = buttons(doc.Selection, limits.Buttons)
	pc.Forms = forms(doc.Selection, res, limits.Forms)
	pc.Headings = headings(doc.Selection, limits.Headings)
	pc.Images = images(doc.Selection, res, limits.Images)
	pc.Meta = meta(doc.Selection)
	pc.Text, _ = Truncate(text(doc.Find("body")), limits.Text)
	return pc, nil
}

// strip removes nodes whose text is never user-visible.
func strip(s *goquery.Selection) {
	s.Find("script, style, noscript, template").Remove()
}

func links(s *goquery.Selection, res resolver, limit int) []page.Link {
	out := []page.Link{}
	seen := make(map[string]bool)
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		href := res.abs(a.AttrOr("href", ""))
		label := text(a)
		if label == "" {
			label = firstNonEmpty(a.AttrOr("aria-label", ""), a.AttrOr("title", ""), a.Find("img").AttrOr("alt", ""))
		}
		if href == "" || seen[href+"\x00"+label] {
			return true
		}
		seen[href+"\x00"+label] = true
		out = append(out, page.Link{Text: label, Href: href, Title: a.AttrOr("title", ""), Visible: true})
		return true
	})
	return out
}

func buttons(s *goquery.Selection, limit int) []page.Button {
	out := []page.Button{}
	s.Find(buttonSelector).EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		label := text(b)
		if label == "" {
			label = firstNonEmpty(b.AttrOr("value", ""), b.AttrOr("aria-label", ""), b.AttrOr("title", ""))
		}
		out = append(out, page.Button{
			Text:      label,
			Type:      b.AttrOr("type", ""),
			ID:        b.AttrOr("id", ""),
			Name:      b.AttrOr("name", ""),
			AriaLabel: b.AttrOr("aria-label", ""),
			Visible:   true,
		})
		return true
	})
	return out
}

func forms(s *goquery.Selection, res resolver, limit int) []page.Form {
	out := []page.Form{}
	s.Find("form").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		form := page.Form{
			ID:     f.AttrOr("id", ""),
			Name:   f.AttrOr("name", ""),
			Action: res.abs(f.AttrOr("action", "")),
			Method: strings.ToUpper(f.AttrOr("method", "GET")),
			Fields: []page.Field{},
		}
		f.Find("input, textarea, select").Each(func(_ int, in *goquery.Selection) {
			typ := strings.ToLower(in.AttrOr("type", ""))
			if typ == "hidden" {
				return
			}
			_, required := in.Attr("required")
			form.Fields = append(form.Fields, page.Field{
				Tag:         goquery.NodeName(in),
				Type:        typ,
				Name:        in.AttrOr("name", ""),
				ID:          in.AttrOr("id", ""),
				Placeholder: in.AttrOr("placeholder", ""),
				Label:       fieldLabel(s, in),
				Required:    required,
			})
		})
		out = append(out, form)
		return true
	})
	return out
}

// fieldLabel finds a field's label by for= reference, then by ancestry.
func fieldLabel(root, in *goquery.Selection) string {
	if id := in.AttrOr("id", ""); id != "" {
		var label string
		root.Find("label[for]").EachWithBreak(func(_ int, l *goquery.Selection) bool {
			if l.AttrOr("for", "") == id {
				label = text(l)
				return false
			}
			return true
		})
		if label != "" {
			return label
		}
	}
	if l := in.Closest("label"); l.Length() > 0 {
		return text(l)
	}
	return in.AttrOr("aria-label", "")
}

func headings(s *goquery.Selection, limit int) []page.Heading {
	out := []page.Heading{}
	s.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		if t := text(h); t != "" {
			out = append(out, page.Heading{Level: int(goquery.NodeName(h)[1] - '0'), Text: t})
		}
		return true
	})
	return out
}

func images(s *goquery.Selection, res resolver, limit int) []page.Image {
	out := []page.Image{}
	s.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		if src := res.abs(img.AttrOr("src", "")); src != "" {
			out = append(out, page.Image{Src: src, Alt: img.AttrOr("alt", ""), Title: img.AttrOr("title", "")})
		}
		return true
	})
	return out
}

func meta(s *goquery.Selection) page.Meta {
	return page.Meta{
		Description: firstNonEmpty(
			s.Find("meta[name='description']").AttrOr("content", ""),
			s.Find("meta[property='og:description']").AttrOr("content", ""),
		),
		Keywords: s.Find("meta[name='keywords']").AttrOr("content", ""),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
