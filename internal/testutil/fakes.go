// Package testutil provides scriptable stand-ins for the page and the
// language model.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
)

// ScriptHandler answers one script invocation.
type ScriptHandler func(code string) (any, error)

// FakePage is an in-memory page.Automation. Scripts are answered by
// handlers registered per script name; location, context and html have
// defaults backed by the URL, Title and HTML fields.
type FakePage struct {
	mu sync.Mutex

	URL   string
	Title string
	HTML  string

	ScreenshotData []byte
	NavigateErr    error

	handlers    map[scripts.Name]ScriptHandler
	calls       []scripts.Name
	navigations []string
	tabs        []page.Tab
	active      string
	nextTab     int
}

// NewFakePage creates a page showing html at url.
func NewFakePage(url, title, html string) *FakePage {
	return &FakePage{
		URL:      url,
		Title:    title,
		HTML:     html,
		handlers: make(map[scripts.Name]ScriptHandler),
		tabs:     []page.Tab{{ID: "tab-1", URL: url, Title: title, Active: true}},
		active:   "tab-1",
		nextTab:  2,
	}
}

// On registers a handler for a script.
func (f *FakePage) On(name scripts.Name, h ScriptHandler) *FakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
	return f
}

// Calls returns the names of scripts run so far.
func (f *FakePage) Calls() []scripts.Name {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scripts.Name(nil), f.calls...)
}

// CallCount counts invocations of one script.
func (f *FakePage) CallCount(name scripts.Name) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

// Navigations returns every URL navigated to.
func (f *FakePage) Navigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.navigations...)
}

// SetPage swaps the displayed document.
func (f *FakePage) SetPage(url, title, html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.URL, f.Title, f.HTML = url, title, html
}

func (f *FakePage) RunScript(ctx context.Context, code string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := scripts.NameOf(code)

	f.mu.Lock()
	f.calls = append(f.calls, name)
	h, ok := f.handlers[name]
	url, title, html := f.URL, f.Title, f.HTML
	f.mu.Unlock()

	var (
		v   any
		err error
	)
	switch {
	case ok:
		v, err = h(code)
	case name == scripts.Location:
		v = url
	case name == scripts.Context:
		v = page.Snapshot{URL: url, Title: title, HTML: html, ViewportHeight: 800}
	case name == scripts.HTML:
		v = scripts.HTMLResult{Found: true, URL: url, HTML: html}
	default:
		return fmt.Errorf("fake page: no handler for script %q", name)
	}
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, out)
}

func (f *FakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	f.navigations = append(f.navigations, url)
	f.URL = url
	for i := range f.tabs {
		if f.tabs[i].ID == f.active {
			f.tabs[i].URL = url
		}
	}
	return nil
}

func (f *FakePage) Back(ctx context.Context) error    { return nil }
func (f *FakePage) Forward(ctx context.Context) error { return nil }
func (f *FakePage) Reload(ctx context.Context) error  { return nil }

func (f *FakePage) OpenTab(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("tab-%d", f.nextTab)
	f.nextTab++
	for i := range f.tabs {
		f.tabs[i].Active = false
	}
	f.tabs = append(f.tabs, page.Tab{ID: id, URL: url, Active: true})
	f.active = id
	f.URL = url
	return id, nil
}

func (f *FakePage) CloseTab(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tabs) == 1 {
		return errors.New("cannot close the last tab")
	}
	for i, t := range f.tabs {
		if t.ID == id {
			f.tabs = append(f.tabs[:i], f.tabs[i+1:]...)
			if f.active == id {
				f.active = f.tabs[len(f.tabs)-1].ID
				f.tabs[len(f.tabs)-1].Active = true
			}
			return nil
		}
	}
	return fmt.Errorf("no tab %q", id)
}

func (f *FakePage) SwitchTab(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for i := range f.tabs {
		f.tabs[i].Active = f.tabs[i].ID == id
		found = found || f.tabs[i].Active
	}
	if !found {
		return fmt.Errorf("no tab %q", id)
	}
	f.active = id
	return nil
}

func (f *FakePage) CurrentTabID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *FakePage) Tabs(ctx context.Context) ([]page.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]page.Tab(nil), f.tabs...), nil
}

func (f *FakePage) Screenshot(ctx context.Context) ([]byte, error) {
	if f.ScreenshotData == nil {
		return nil, errors.New("fake page: no screenshot")
	}
	return f.ScreenshotData, nil
}

// ScriptArgs decodes the JSON argument of a built script invocation.
func ScriptArgs(code string, out any) error {
	i := strings.LastIndex(code, "})(")
	if i < 0 || !strings.HasSuffix(code, ");") {
		return errors.New("not a built script")
	}
	return sonic.UnmarshalString(code[i+3:len(code)-2], out)
}

// FakeCompleter replays canned replies in order. When replies run out the
// last one repeats; Err, when set, is returned instead.
type FakeCompleter struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	prompts []string
	history [][]llm.Message
	next    int
}

// NewFakeCompleter creates a completer with the given replies.
func NewFakeCompleter(replies ...string) *FakeCompleter {
	return &FakeCompleter{Replies: replies}
}

// Failing creates a completer that always returns err.
func Failing(err error) *FakeCompleter {
	return &FakeCompleter{Err: err}
}

func (c *FakeCompleter) Complete(ctx context.Context, prompt string, messages []llm.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	c.history = append(c.history, append([]llm.Message(nil), messages...))
	if c.Err != nil {
		return "", c.Err
	}
	if len(c.Replies) == 0 {
		return "", nil
	}
	reply := c.Replies[min(c.next, len(c.Replies)-1)]
	c.next++
	return reply, nil
}

func (c *FakeCompleter) CompleteStream(ctx context.Context, prompt string, messages []llm.Message) (<-chan llm.Delta, error) {
	reply, err := c.Complete(ctx, prompt, messages)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.Delta, len(reply)+1)
	for _, w := range strings.SplitAfter(reply, " ") {
		if w != "" {
			ch <- llm.Delta{Text: w}
		}
	}
	close(ch)
	return ch, nil
}

// Prompts returns every prompt received.
func (c *FakeCompleter) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Messages returns the prior messages passed with each call.
func (c *FakeCompleter) Messages() [][]llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]llm.Message(nil), c.history...)
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t.
func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
