package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion
const MaxHTMLSize = 10 * 1024 * 1024

var (
	ErrEmptyDocument = errors.New("html content required")
	ErrTooLarge      = fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
)

// Limits caps the size of every extracted collection.
type Limits struct {
	Text      int
	Links     int
	Images    int
	Forms     int
	Headings  int
	Buttons   int
	Tables    int
	TableRows int
	Summary   int
	Lists     int
}

// DefaultLimits bound payloads returned to the planner and the model.
var DefaultLimits = Limits{
	Text:      5000,
	Links:     50,
	Images:    20,
	Forms:     10,
	Headings:  30,
	Buttons:   50,
	Tables:    5,
	TableRows: 10,
	Summary:   500,
	Lists:     10,
}

// ValidateHTML checks HTML size and returns error if too large
func ValidateHTML(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDocument
	}
	if len(s) > MaxHTMLSize {
		return ErrTooLarge
	}
	return nil
}

// Load parses HTML that is already UTF-8, such as a serialised live document.
func Load(s string) (*goquery.Document, error) {
	if err := ValidateHTML(s); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(s))
}

// DetectCharset guesses the encoding of raw bytes.
func DetectCharset(data []byte) string {
	if utf8.Valid(data) {
		return "utf-8"
	}
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// Decode converts raw document bytes to a UTF-8 string. contentType is the
// Content-Type header if known; without a charset parameter the encoding is
// detected from the bytes.
func Decode(data []byte, contentType string) (string, error) {
	if len(data) > MaxHTMLSize {
		return "", ErrTooLarge
	}
	if !strings.Contains(strings.ToLower(contentType), "charset=") {
		contentType = "text/html; charset=" + DetectCharset(data)
	}
	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return string(data), nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}
	return string(out), nil
}

// LoadNode parses HTML into an xpath-compatible node.
func LoadNode(s string) (*html.Node, error) {
	if err := ValidateHTML(s); err != nil {
		return nil, err
	}
	return htmlquery.Parse(strings.NewReader(s))
}

// NormalizeWhitespace collapses runs of whitespace into one space.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) (string, bool) {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s, false
	}
	r := []rune(s)
	if n <= 3 {
		return string(r[:n]), true
	}
	return string(r[:n-3]) + "...", true
}

// Deduplicate removes duplicate strings while preserving order
func Deduplicate(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// resolver makes hrefs absolute against the document URL.
type resolver struct{ base *url.URL }

func newResolver(base string) resolver {
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() {
		return resolver{}
	}
	return resolver{base: u}
}

// abs returns "" for hrefs that do not lead anywhere.
func (r resolver) abs(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if r.base == nil {
		return ref.String()
	}
	return r.base.ResolveReference(ref).String()
}

// text returns the normalised text of a selection.
func text(s *goquery.Selection) string {
	return NormalizeWhitespace(s.Text())
}
