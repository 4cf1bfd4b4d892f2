package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/intent"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
	"github.com/GriffinCanCode/AgentBrowser/internal/testutil"
)

func TestParseWithoutModel(t *testing.T) {
	p := New(nil, nil)
	in := p.Parse(context.Background(), "go to example.com", nil)
	assert.False(t, in.Understood)
	assert.Equal(t, intent.None, in.Action)
	assert.Zero(t, in.Confidence)
}

func TestParseUnusableModelIsNotUnderstood(t *testing.T) {
	for _, err := range []error{llm.ErrNotConfigured, fmt.Errorf("openai: %w", llm.ErrInvalidCredential)} {
		p := New(testutil.Failing(err), nil)
		in := p.Parse(context.Background(), "go to example.com", nil)
		assert.False(t, in.Understood)
		assert.Equal(t, intent.None, in.Action)
		assert.Zero(t, in.Confidence)
		assert.Empty(t, p.Memory())
	}
}

func TestParseFallsBackToPatterns(t *testing.T) {
	p := New(testutil.Failing(errors.New("connection reset")), nil)

	in := p.Parse(context.Background(), "go to example.com", nil)
	assert.True(t, in.Understood)
	assert.Equal(t, intent.Navigate, in.Action)
	assert.Equal(t, "example.com", in.Target)
	assert.Equal(t, PatternConfidence, in.Confidence)

	in = p.Parse(context.Background(), "what is this page about?", &page.Context{URL: "https://example.com"})
	assert.False(t, in.Understood)
	assert.Equal(t, intent.None, in.Action)
}

func TestParseModelReply(t *testing.T) {
	model := testutil.NewFakeCompleter(
		"Sure, here you go:\n```json\n{\"understood\": true, \"action\": \"click\", \"target\": \"login button\", \"confidence\": 1.7, \"reasoning\": \"explicit\",}\n```",
	)
	p := New(model, nil)
	in := p.Parse(context.Background(), "click login", nil)
	assert.Equal(t, intent.Intent{
		Understood: true, Action: intent.Click, Target: "login button", Confidence: 1, Reasoning: "explicit",
	}, in)
	require.Len(t, p.Memory(), 1)
}

func TestParseUnreadableReply(t *testing.T) {
	p := New(testutil.NewFakeCompleter("I think you want to click something."), nil)
	in := p.Parse(context.Background(), "click login", nil)
	assert.False(t, in.Understood)
	assert.Zero(t, in.Confidence)
	assert.Empty(t, p.Memory())
}

func TestParseUnknownActionIsNone(t *testing.T) {
	p := New(testutil.NewFakeCompleter(`{"understood":true,"action":"dance","confidence":0.9}`), nil)
	in := p.Parse(context.Background(), "dance", nil)
	assert.False(t, in.Understood)
	assert.Equal(t, intent.None, in.Action)
}

func TestPromptCarriesContextAndHistory(t *testing.T) {
	model := testutil.NewFakeCompleter(`{"understood":true,"action":"scroll","target":"down","confidence":0.8}`)
	p := New(model, nil)

	pc := &page.Context{
		URL:     "https://www.youtube.com/",
		Title:   "YouTube",
		Buttons: []page.Button{{Text: "Sign in"}, {AriaLabel: "Search"}},
		Forms:   []page.Form{{ID: "search"}},
	}
	for i := 0; i < 30; i++ {
		pc.Links = append(pc.Links, page.Link{Text: fmt.Sprintf("Video %d", i), Href: fmt.Sprintf("https://www.youtube.com/watch?v=%d", i)})
	}

	for i := 0; i < 4; i++ {
		p.Parse(context.Background(), fmt.Sprintf("scroll %d", i), pc)
	}
	p.Record("scroll 3", action.Succeeded("Scrolled down", nil))

	p.Parse(context.Background(), "scroll again", pc)
	prompt := model.Prompts()[4]
	assert.Contains(t, prompt, "Current page: YouTube")
	assert.Contains(t, prompt, "This site has its own search.")
	assert.Contains(t, prompt, "Video 19")
	assert.NotContains(t, prompt, "Video 20")
	assert.Contains(t, prompt, "Buttons: Sign in, Search")
	assert.Contains(t, prompt, "Forms on page: 1")
	assert.NotContains(t, prompt, `"scroll 0"`)
	assert.Contains(t, prompt, `"scroll 1" -> scroll down`)
	assert.Contains(t, prompt, `"scroll 3" -> scroll down: succeeded - Scrolled down`)
	assert.True(t, strings.HasSuffix(prompt, "Command: scroll again"))
}

func TestMemoryIsBounded(t *testing.T) {
	p := New(testutil.NewFakeCompleter(`{"understood":true,"action":"scroll","confidence":0.8}`), nil, WithMemory(3))
	for i := 0; i < 5; i++ {
		p.Parse(context.Background(), fmt.Sprintf("cmd %d", i), nil)
	}
	mem := p.Memory()
	require.Len(t, mem, 3)
	assert.Equal(t, "cmd 2", mem[0].Command)
	assert.Equal(t, "cmd 4", mem[2].Command)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		cmd    string
		kind   intent.Kind
		target string
		query  string
	}{
		{"go to github.com", intent.Navigate, "github.com", ""},
		{"Please open https://example.com/docs", intent.Navigate, "https://example.com/docs", ""},
		{"search for cheap flights", intent.Search, "", "cheap flights"},
		{"look up \"golang generics\"", intent.Search, "", "golang generics"},
		{"click the login button", intent.Click, "login button", ""},
		{"press Submit.", intent.Click, "Submit", ""},
		{"type hello world into the search box", intent.FillForm, "search box", "hello world"},
		{"enter 'ada@example.com'", intent.FillForm, "", "ada@example.com"},
		{"scroll to the bottom", intent.Scroll, "bottom", ""},
		{"scroll", intent.Scroll, "down", ""},
		{"get all the links", intent.Extract, "links", ""},
		{"extract structured data", intent.Extract, "structured", ""},
		{"wait for #results", intent.Wait, "#results", ""},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			in := Match(tt.cmd)
			require.True(t, in.Understood, in.Reasoning)
			assert.Equal(t, tt.kind, in.Action)
			assert.Equal(t, tt.target, in.Target)
			assert.Equal(t, tt.query, in.Query)
			assert.Equal(t, PatternConfidence, in.Confidence)
		})
	}

	for _, q := range []string{"what is this page about?", "How do I log in", "is this secure?", "make me a sandwich", ""} {
		in := Match(q)
		assert.False(t, in.Understood, q)
		assert.Equal(t, intent.None, in.Action, q)
	}
}

func TestActionsSearchStaysOnSearchableSite(t *testing.T) {
	p := New(nil, nil)
	search := intent.Intent{Understood: true, Action: intent.Search, Query: "lofi beats", Confidence: 0.9}
	yt := &page.Context{URL: "https://www.youtube.com/"}

	acts := p.Actions(search, "search for lofi beats", yt)
	assert.Equal(t, []action.Action{
		action.FindAndClick{ElementDescription: "search"},
		action.FillForm{Text: "lofi beats", Submit: true},
	}, acts)

	acts = p.Actions(search, "search for lofi beats on google", yt)
	assert.Equal(t, []action.Action{action.Search{Query: "lofi beats"}}, acts)

	acts = p.Actions(search, "search for lofi beats on soundcloud.com", yt)
	assert.Equal(t, []action.Action{action.Search{Query: "lofi beats"}}, acts)

	acts = p.Actions(search, "search for lofi beats on youtube.com", yt)
	assert.Len(t, acts, 2)

	acts = p.Actions(search, "search for lofi beats", &page.Context{URL: "https://news.example.com/"})
	assert.Equal(t, []action.Action{action.Search{Query: "lofi beats"}}, acts)
}

func TestActionsExpansion(t *testing.T) {
	p := New(nil, nil)
	tests := []struct {
		in   intent.Intent
		want []action.Action
	}{
		{intent.Intent{Understood: true, Action: intent.Navigate, Target: "example.com"}, []action.Action{action.Navigate{URL: "example.com"}}},
		{intent.Intent{Understood: true, Action: intent.Click, Target: "Cart"}, []action.Action{action.FindAndClick{ElementDescription: "Cart"}}},
		{intent.Intent{Understood: true, Action: intent.FillForm, Target: "email field", Query: "a@b.c"}, []action.Action{
			action.FindAndClick{ElementDescription: "email field"}, action.FillForm{Text: "a@b.c"},
		}},
		{intent.Intent{Understood: true, Action: intent.Scroll, Target: "to the top"}, []action.Action{action.ScrollPage{Direction: "top"}}},
		{intent.Intent{Understood: true, Action: intent.Extract, Target: "prices"}, []action.Action{action.ExtractContent{Mode: action.ModeText}}},
		{intent.Intent{Understood: true, Action: intent.Wait, Target: ".done"}, []action.Action{action.WaitForElement{Selector: ".done"}}},
		{intent.Intent{Understood: true, Action: intent.Click}, nil},
		{intent.NotUnderstood("no"), nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Actions(tt.in, "", nil), "%+v", tt.in)
	}
}

func TestSites(t *testing.T) {
	s := NewSites([]string{"*amazon.*", "github.com", "[bad"})
	assert.True(t, s.Searchable("https://www.amazon.co.uk/dp/1"))
	assert.True(t, s.Searchable("https://github.com/golang/go"))
	assert.False(t, s.Searchable("https://gist.github.com/"))
	assert.False(t, s.Searchable("not a url"))
}
