package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/testutil"
)

func newPlanner(t *testing.T, replies ...string) *Planner {
	t.Helper()
	p, err := New(testutil.NewFakeCompleter(replies...), nil, nil)
	require.NoError(t, err)
	return p
}

func TestStructuredTier(t *testing.T) {
	p := newPlanner(t, "Here is the plan:\n```json\n["+
		`{"action":"navigate","description":"Open Go","parameters":{"url":"https://go.dev"}},`+
		`{"action":"dance","description":"Dance","parameters":{}},`+
		`{"action":"search","description":"Find docs","parameters":{"query":"go docs"}},`+
		"]\n```")

	plan, err := p.Plan(context.Background(), "read the go docs")
	require.NoError(t, err)
	assert.Equal(t, TierStructured, plan.Tier)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "navigate", plan.Steps[0].Action)
	assert.Equal(t, "https://go.dev", plan.Steps[0].Parameters["url"])
	assert.Equal(t, "go docs", plan.Steps[1].Parameters["query"])
}

func TestStructuredDropsMalformedEntries(t *testing.T) {
	steps := Structured(`[
		{"action":"navigate","parameters":{"url":"https://a.example"}},
		{"action":"reload","description":"Reload","parameters":"none"},
		"click",
		{"action":"goBack","description":"Back","parameters":{}}
	]`)
	require.Len(t, steps, 1)
	assert.Equal(t, "goBack", steps[0].Action)
	assert.Nil(t, Structured("no array here"))
}

func TestTextTier(t *testing.T) {
	p := newPlanner(t, "go to https://example.com/signup")
	plan, err := p.Plan(context.Background(), "sign up on example.com")
	require.NoError(t, err)
	assert.Equal(t, TierText, plan.Tier)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, action.Blueprint{
		Action:      "navigate",
		Description: "go to https://example.com/signup",
		Parameters:  map[string]any{"url": "https://example.com/signup"},
	}, plan.Steps[0])
}

func TestTextPatterns(t *testing.T) {
	steps := TextPatterns(`1. Visit https://shop.example/.
2. Click the "Sign up" button
3. Type your email
- Scroll to the top
Step 5: Search for running shoes
"action": "click",
Thanks!`)

	require.Len(t, steps, 5)
	assert.Equal(t, "https://shop.example/", steps[0].Parameters["url"])
	assert.Equal(t, "findAndClick", steps[1].Action)
	assert.Equal(t, "Sign up button", steps[1].Parameters["elementDescription"])
	assert.Equal(t, "fillForm", steps[2].Action)
	assert.Equal(t, "your email", steps[2].Parameters["text"])
	assert.Equal(t, "top", steps[3].Parameters["direction"])
	assert.Equal(t, "running shoes", steps[4].Parameters["query"])
}

func TestTemplateTierWhenModelFails(t *testing.T) {
	p, err := New(testutil.Failing(errors.New("timeout")), nil, nil)
	require.NoError(t, err)

	plan, err := p.Plan(context.Background(), "search for cheap flights from Prague to Paris on September 1, one way, one adult")
	require.NoError(t, err)
	assert.Equal(t, TierTemplate, plan.Tier)
	assert.Equal(t, "Prague", plan.Params["from"])
	assert.Equal(t, "Paris", plan.Params["to"])
	assert.Equal(t, "September 1", plan.Params["date"])
	assert.Equal(t, "1", plan.Params["passengers"])

	require.NotEmpty(t, plan.Steps)
	first := plan.Steps[0]
	assert.Equal(t, "navigate", first.Action)
	assert.Equal(t,
		"https://www.google.com/travel/flights?q=flights+from+Prague+to+Paris+on+September+1+for+1+adults",
		first.Parameters["url"])
	assert.Equal(t, "Open Google Flights for Prague to Paris", first.Description)
}

func TestTemplateNeedsRequiredValues(t *testing.T) {
	lib, err := LoadLibrary()
	require.NoError(t, err)
	assert.Equal(t, []string{"flight", "hotel", "product", "research", "search"}, lib.Names())

	// flight keyword without a route falls through to the search template
	steps, params := lib.Fill("search for flights", "")
	require.NotEmpty(t, steps)
	assert.Equal(t, "flights", params["query"])
	assert.Equal(t, "search", steps[0].Action)

	steps, _ = lib.Fill("hello there", "")
	assert.Nil(t, steps)
}

func TestValues(t *testing.T) {
	v := Values("book a hotel in Lisbon for two adults on 2026-05-01")
	assert.Equal(t, "Lisbon", v["city"])
	assert.Equal(t, "2", v["passengers"])
	assert.Equal(t, "2026-05-01", v["date"])

	v = Values("buy a mechanical keyboard under $100")
	assert.Equal(t, "mechanical keyboard", v["product"])
}

func TestFallbackSearch(t *testing.T) {
	p := newPlanner(t, "I'm not sure.")
	plan, err := p.Plan(context.Background(), "the weather tomorrow")
	require.NoError(t, err)
	assert.Equal(t, TierFallback, plan.Tier)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "the weather tomorrow", plan.Steps[0].Parameters["query"])
}

func TestNoValidSteps(t *testing.T) {
	p := newPlanner(t, `[{"action":"navigate","description":"Open","parameters":{"url":"ftp://files.example"}}]`)
	_, err := p.Plan(context.Background(), "download files")
	assert.ErrorIs(t, err, ErrNoValidSteps)

	_, err = p.Plan(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNoValidSteps)
}

func TestPromptListsVocabulary(t *testing.T) {
	model := testutil.NewFakeCompleter("")
	p, err := New(model, nil, nil)
	require.NoError(t, err)
	_, _ = p.Plan(context.Background(), "find go tutorials")

	prompt := model.Prompts()[0]
	assert.Contains(t, prompt, "- navigate (required: url)")
	assert.Contains(t, prompt, "- fillForm (required: text) (optional: selector, submit)")
	assert.Contains(t, prompt, "Goal: find go tutorials")
}

func TestParseLibraryRejectsUnknownAction(t *testing.T) {
	_, err := ParseLibrary([]byte("- name: bad\n  keywords: [x]\n  steps:\n    - action: teleport\n      description: go\n"))
	assert.ErrorIs(t, err, ErrBadTemplate)
}
