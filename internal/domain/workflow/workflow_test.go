package workflow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func steps(n int) []*Step {
	out := make([]*Step, n)
	for i := range out {
		out[i] = NewStep("s", "step", action.Reload{}, t0)
	}
	return out
}

func TestStepTransitions(t *testing.T) {
	s := NewStep("s1", "reload", action.Reload{}, t0)

	require.ErrorIs(t, s.Finish(action.Succeeded("", nil), t0), ErrInvalidTransition)

	require.NoError(t, s.Begin(t0))
	assert.Equal(t, StepExecuting, s.Status)
	require.ErrorIs(t, s.Begin(t0), ErrInvalidTransition)

	require.NoError(t, s.Finish(action.Failed("nope"), t0))
	assert.Equal(t, StepFailed, s.Status)
	require.NotNil(t, s.Result)
	assert.Equal(t, "nope", s.Result.Message)

	require.ErrorIs(t, s.Begin(t0), ErrInvalidTransition)
	require.ErrorIs(t, s.Finish(action.Succeeded("", nil), t0), ErrInvalidTransition)
	assert.Equal(t, StepFailed, s.Status)
}

func run(w *Workflow, outcomes []bool) {
	for _, ok := range outcomes {
		step := w.Current()
		if step == nil {
			return
		}
		_ = step.Begin(t0)
		res := action.Failed("failed")
		if ok {
			res = action.Succeeded("ok", nil)
		}
		_ = step.Finish(res, t0)
		w.Record(res, t0)
	}
}

func TestWorkflowCompletedIffAllSucceed(t *testing.T) {
	tests := []struct {
		name      string
		outcomes  []bool
		status    Status
		executed  int
		current   int
		remaining StepStatus
	}{
		{name: "all succeed", outcomes: []bool{true, true, true}, status: Completed, executed: 3, current: 3},
		{name: "first fails", outcomes: []bool{false, true, true}, status: Failed, executed: 1, current: 0, remaining: StepPending},
		{name: "middle fails", outcomes: []bool{true, false, true}, status: Failed, executed: 2, current: 1, remaining: StepPending},
		{name: "last fails", outcomes: []bool{true, true, false}, status: Failed, executed: 3, current: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New("wf", "goal", t0)
			require.NoError(t, w.Execute(steps(3)))

			run(w, tt.outcomes)

			assert.Equal(t, tt.status, w.Status)
			assert.Len(t, w.Results, tt.executed)
			assert.Equal(t, tt.current, w.CurrentStep)
			assert.NotNil(t, w.EndTime)
			assert.Nil(t, w.Current())
			if tt.remaining != "" {
				assert.Equal(t, tt.remaining, w.Steps[2].Status)
			}
		})
	}
}

func TestWorkflowRejectsInvalidTransitions(t *testing.T) {
	w := New("wf", "goal", t0)
	assert.ErrorIs(t, w.Execute(nil), ErrInvalidTransition)
	assert.Equal(t, Planning, w.Status)

	require.NoError(t, w.Execute(steps(1)))
	assert.ErrorIs(t, w.Execute(steps(1)), ErrInvalidTransition)

	require.NoError(t, w.Fail(t0))
	assert.ErrorIs(t, w.Fail(t0), ErrInvalidTransition)
}

func TestCancelledWorkflowKeepsLateResult(t *testing.T) {
	w := New("wf", "goal", t0)
	require.NoError(t, w.Execute(steps(2)))

	step := w.Current()
	require.NoError(t, step.Begin(t0))
	require.NoError(t, w.Fail(t0.Add(time.Second)))

	res := action.Succeeded("late", nil)
	require.NoError(t, step.Finish(res, t0))
	w.Record(res, t0.Add(2*time.Second))

	assert.Equal(t, Failed, w.Status)
	assert.Equal(t, 0, w.CurrentStep)
	assert.Equal(t, t0.Add(time.Second), *w.EndTime)
	assert.Equal(t, StepCompleted, w.Steps[0].Status)
}

func TestCloneIsDeep(t *testing.T) {
	w := New("wf", "goal", t0)
	require.NoError(t, w.Execute(steps(1)))

	c := w.Clone()
	c.Steps[0].Status = StepFailed
	c.Results = append(c.Results, action.Failed("x"))

	assert.Equal(t, StepPending, w.Steps[0].Status)
	assert.Empty(t, w.Results)
}

func TestStepJSON(t *testing.T) {
	s := NewStep("step_1", "open", action.Navigate{URL: "https://example.com"}, t0)

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "navigate", got["action"])
	assert.Equal(t, map[string]any{"url": "https://example.com"}, got["parameters"])
	assert.Equal(t, "pending", got["status"])
}

func TestWorkflowSnapshotDecodes(t *testing.T) {
	w := New("wf_1", "open docs", t0)
	require.NoError(t, w.Execute([]*Step{
		NewStep("step_1", "open", action.Navigate{URL: "https://example.com"}, t0),
		NewStep("step_2", "scroll", action.ScrollPage{Direction: "down"}, t0),
	}))

	raw, err := json.Marshal(w)
	require.NoError(t, err)

	var got Workflow
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got.Steps, 2)
	assert.Equal(t, action.Navigate{URL: "https://example.com"}, got.Steps[0].Action)
	assert.Equal(t, action.KindScrollPage, got.Steps[1].Action.Kind())
	assert.Equal(t, Executing, got.Status)
}
