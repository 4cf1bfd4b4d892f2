package executor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/dispatcher"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/pagecontext"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/planner"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/workflow"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/storage"
	"github.com/GriffinCanCode/AgentBrowser/internal/testutil"
)

const pageHTML = `<html><head><title>Shop</title></head><body>
<form id="search"><input name="q"><button>Go</button></form>
<a href="/cart">Cart</a></body></html>`

const twoSteps = `[
 {"action":"navigate","description":"Open the shop","parameters":{"url":"https://shop.example.com/"}},
 {"action":"reload","description":"Reload it","parameters":{}}
]`

type harness struct {
	page *testutil.FakePage
	ctl  *Controller
}

func newHarness(t *testing.T, plan string, opts ...Option) *harness {
	t.Helper()
	fp := testutil.NewFakePage("https://shop.example.com/", "Shop", pageHTML)
	pl, err := planner.New(testutil.NewFakeCompleter(plan), nil, nil)
	require.NoError(t, err)
	ext, err := pagecontext.New(fp, nil, 8)
	require.NoError(t, err)
	d := dispatcher.New(fp, nil, nil)

	base := []Option{WithExtractor(ext), WithDelays(Delays{})}
	return &harness{page: fp, ctl: New(pl, d, fp, nil, append(base, opts...)...)}
}

func TestRunCompletesAndJournals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.zst")
	j, err := storage.Open(path, nil)
	require.NoError(t, err)

	h := newHarness(t, twoSteps, WithJournal(j))
	w, err := h.ctl.Run(context.Background(), "visit the shop")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.Equal(t, workflow.Completed, w.Status)
	assert.Equal(t, 2, w.CurrentStep)
	require.Len(t, w.Results, 2)
	require.NotNil(t, w.EndTime)
	for _, s := range w.Steps {
		assert.Equal(t, workflow.StepCompleted, s.Status)
	}
	assert.Equal(t, []string{"https://shop.example.com/"}, h.page.Navigations())

	recs, err := storage.Read(path)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, storage.KindStep, recs[0].Kind)
	assert.Equal(t, "navigate", recs[0].Action)
	assert.Equal(t, storage.KindWorkflow, recs[2].Kind)
	assert.Equal(t, "completed", recs[2].Status)
	assert.True(t, recs[2].Success)
	assert.Equal(t, "visit the shop", recs[2].Goal)
}

func TestFailedStepHaltsWorkflow(t *testing.T) {
	h := newHarness(t, `[
	 {"action":"clickElement","description":"Click the missing thing","parameters":{"selector":"#missing"}},
	 {"action":"reload","description":"Reload","parameters":{}}
	]`)
	h.page.On(scripts.Click, func(string) (any, error) { return scripts.ElementResult{Found: false}, nil })

	w, err := h.ctl.Run(context.Background(), "click it")
	require.NoError(t, err)
	assert.Equal(t, workflow.Failed, w.Status)
	assert.Equal(t, 0, w.CurrentStep)
	require.Len(t, w.Results, 1)
	assert.False(t, w.Results[0].Success)
	assert.Equal(t, workflow.StepFailed, w.Steps[0].Status)
	assert.Equal(t, workflow.StepPending, w.Steps[1].Status)

	_, err = h.ctl.Step(context.Background())
	assert.ErrorIs(t, err, workflow.ErrNoWorkflow)
}

func TestStartPublishesTransitions(t *testing.T) {
	h := newHarness(t, twoSteps)
	events, unsubscribe := h.ctl.Subscribe()
	defer unsubscribe()

	w, err := h.ctl.Start(context.Background(), "visit the shop")
	require.NoError(t, err)
	assert.Equal(t, workflow.Executing, w.Status)
	require.Len(t, w.Steps, 2)

	var seen []string
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case ev := <-events:
			switch ev.Type {
			case EventWorkflow:
				seen = append(seen, "workflow:"+string(ev.Workflow.Status))
				done = ev.Workflow.Status.Final()
			case EventStep:
				seen = append(seen, "step:"+string(ev.Step.Status))
			}
			assert.Equal(t, w.ID, ev.WorkflowID)
		case <-timeout:
			t.Fatalf("no final event, saw %v", seen)
		}
	}
	assert.Equal(t, []string{
		"workflow:planning", "workflow:executing",
		"step:executing", "step:completed",
		"step:executing", "step:completed",
		"workflow:completed",
	}, seen)
}

func TestSingleActiveWorkflowAndCancel(t *testing.T) {
	h := newHarness(t, twoSteps, WithDelays(Delays{Step: time.Hour}))
	ctx := context.Background()

	_, err := h.ctl.Start(ctx, "visit the shop")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.ctl.Current().CurrentStep == 1 }, 5*time.Second, 5*time.Millisecond)

	_, err = h.ctl.Start(ctx, "something else")
	assert.ErrorIs(t, err, workflow.ErrWorkflowActive)

	require.NoError(t, h.ctl.Cancel())
	w := h.ctl.Current()
	assert.Equal(t, workflow.Failed, w.Status)
	require.NotNil(t, w.EndTime)
	assert.Equal(t, workflow.StepPending, w.Steps[1].Status)
	assert.ErrorIs(t, h.ctl.Cancel(), workflow.ErrInvalidTransition)

	// the slot is free again
	_, err = h.ctl.Run(ctx, "visit again")
	require.NoError(t, err)
}

func TestDisabledAndEmpty(t *testing.T) {
	h := newHarness(t, twoSteps, WithEnabled(func() bool { return false }))
	_, err := h.ctl.Start(context.Background(), "anything")
	assert.ErrorIs(t, err, workflow.ErrWorkflowDisabled)
	assert.Nil(t, h.ctl.Current())
	assert.ErrorIs(t, h.ctl.Cancel(), workflow.ErrNoWorkflow)
	_, err = h.ctl.Step(context.Background())
	assert.ErrorIs(t, err, workflow.ErrNoWorkflow)
}

func TestPlanningFailureFailsWorkflow(t *testing.T) {
	h := newHarness(t, `[{"action":"navigate","description":"Open","parameters":{"url":"ftp://files.example"}}]`)
	_, err := h.ctl.Start(context.Background(), "get the files")
	require.ErrorIs(t, err, planner.ErrNoValidSteps)

	w := h.ctl.Current()
	require.NotNil(t, w)
	assert.Equal(t, workflow.Failed, w.Status)
	assert.Empty(t, w.Steps)
}

func TestGenericSelectorIsEnhanced(t *testing.T) {
	plan := `[{"action":"fillForm","description":"Type the query","parameters":{"text":"lamps","selector":"input"}}]`
	var filled scripts.FillArgs
	setup := func(h *harness, exists bool) {
		h.page.On(scripts.Exists, func(string) (any, error) { return scripts.ElementResult{Found: exists}, nil })
		h.page.On(scripts.Fill, func(code string) (any, error) {
			filled = scripts.FillArgs{}
			require.NoError(t, testutil.ScriptArgs(code, &filled))
			return scripts.ElementResult{Found: true, Tag: "input", Name: "q"}, nil
		})
	}

	model := testutil.NewFakeCompleter("```css\n#search input[name=q]\n```")
	h := newHarness(t, plan, WithModel(model))
	setup(h, true)
	w, err := h.ctl.Run(context.Background(), "search lamps")
	require.NoError(t, err)
	assert.Equal(t, workflow.Completed, w.Status)
	assert.Equal(t, "#search input[name=q]", filled.Selector)
	assert.Equal(t, "#search input[name=q]", w.Steps[0].Action.(action.FillForm).Selector)
	assert.Contains(t, model.Prompts()[0], `Current selector: "input"`)
	assert.Contains(t, model.Prompts()[0], `Form id="search"`)

	// a selector the page cannot match is discarded
	h = newHarness(t, plan, WithModel(testutil.NewFakeCompleter("#nope")))
	setup(h, false)
	_, err = h.ctl.Run(context.Background(), "search lamps")
	require.NoError(t, err)
	assert.Equal(t, "input", filled.Selector)

	// so is a failing model
	h = newHarness(t, plan, WithModel(testutil.Failing(errors.New("boom"))))
	setup(h, true)
	_, err = h.ctl.Run(context.Background(), "search lamps")
	require.NoError(t, err)
	assert.Equal(t, "input", filled.Selector)
}

func TestGeneric(t *testing.T) {
	for sel, want := range map[string]bool{
		"":              true,
		"*":             true,
		"div > *":       true,
		"BUTTON":        true,
		"input":         true,
		"#login":        false,
		"form#search a": false,
	} {
		assert.Equal(t, want, Generic(sel), sel)
	}
}
