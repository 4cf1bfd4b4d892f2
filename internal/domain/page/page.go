// Package page describes the live document the agent works against: the
// automation collaborator that drives it, and the structured snapshot
// extracted from it.
package page

import (
	"context"
	"time"
)

// Automation drives the active browser tab. Implementations must not run
// two scripts against the same document concurrently.
type Automation interface {
	// RunScript evaluates code in the active document and decodes the
	// JSON-serialisable value it produces (awaiting promises) into out.
	RunScript(ctx context.Context, code string, out any) error
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Reload(ctx context.Context) error
	// OpenTab opens and activates a tab and returns its id.
	OpenTab(ctx context.Context, url string) (string, error)
	CloseTab(ctx context.Context, id string) error
	SwitchTab(ctx context.Context, id string) error
	CurrentTabID() string
	Tabs(ctx context.Context) ([]Tab, error)
	// Screenshot captures the visible viewport as an encoded image.
	Screenshot(ctx context.Context) ([]byte, error)
}

// Tab describes one open tab.
type Tab struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// Context is a read-only snapshot of the current document's interactive
// surface.
type Context struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Links       []Link    `json:"links"`
	Forms       []Form    `json:"forms"`
	Buttons     []Button  `json:"buttons"`
	Headings    []Heading `json:"headings"`
	Meta        Meta      `json:"meta"`
	Images      []Image   `json:"images"`
	Text        string    `json:"text,omitempty"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// Link is an anchor with its href resolved against the document URL.
type Link struct {
	Text    string `json:"text"`
	Href    string `json:"href"`
	Title   string `json:"title,omitempty"`
	Visible bool   `json:"visible"`
}

// Button is anything rendered as a button.
type Button struct {
	Text      string `json:"text"`
	Type      string `json:"type,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	AriaLabel string `json:"ariaLabel,omitempty"`
	Visible   bool   `json:"visible"`
}

// Form is a form with its fields.
type Form struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name,omitempty"`
	Action string  `json:"action,omitempty"`
	Method string  `json:"method,omitempty"`
	Fields []Field `json:"fields"`
}

// Field is one input, select or textarea.
type Field struct {
	Tag         string `json:"tag"`
	Type        string `json:"type,omitempty"`
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Label       string `json:"label,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type Image struct {
	Src   string `json:"src"`
	Alt   string `json:"alt,omitempty"`
	Title string `json:"title,omitempty"`
}

type Meta struct {
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
}

// Empty returns a well-formed context with no content.
func Empty(url, title string) *Context {
	return &Context{
		URL:      url,
		Title:    title,
		Links:    []Link{},
		Forms:    []Form{},
		Buttons:  []Button{},
		Headings: []Heading{},
		Images:   []Image{},
	}
}

// Snapshot is what the in-page context script returns.
type Snapshot struct {
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	HTML           string  `json:"html"`
	ViewportHeight float64 `json:"viewportHeight"`
}
