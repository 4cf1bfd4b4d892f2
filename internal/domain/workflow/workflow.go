// Package workflow models a multi-step agentic workflow and the legal
// transitions of it and its steps.
package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
)

var (
	// ErrInvalidTransition is returned for any state change the machine forbids.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrWorkflowActive is returned when a workflow is started while another runs.
	ErrWorkflowActive = errors.New("a workflow is already active")
	// ErrWorkflowDisabled is returned when workflows are switched off in settings.
	ErrWorkflowDisabled = errors.New("workflows are disabled")
	// ErrNoWorkflow is returned when there is no workflow to act on.
	ErrNoWorkflow = errors.New("no active workflow")
)

// StepStatus is the lifecycle state of a step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepExecuting StepStatus = "executing"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// Status is the lifecycle state of a workflow.
type Status string

const (
	Planning  Status = "planning"
	Executing Status = "executing"
	Completed Status = "completed"
	Failed    Status = "failed"
)

// Final reports whether s is terminal.
func (s Status) Final() bool { return s == Completed || s == Failed }

// Step is one planned action. A step moves pending → executing →
// completed|failed and never re-enters an earlier state.
type Step struct {
	ID          string
	Description string
	Action      action.Action
	Status      StepStatus
	Result      *action.Result
	Timestamp   time.Time
}

// NewStep creates a pending step.
func NewStep(id, description string, a action.Action, now time.Time) *Step {
	return &Step{ID: id, Description: description, Action: a, Status: StepPending, Timestamp: now}
}

// Begin moves a pending step to executing.
func (s *Step) Begin(now time.Time) error {
	if s.Status != StepPending {
		return fmt.Errorf("%w: step %s %s -> %s", ErrInvalidTransition, s.ID, s.Status, StepExecuting)
	}
	s.Status = StepExecuting
	s.Timestamp = now
	return nil
}

// Finish records the dispatch result and moves the step to its final state.
func (s *Step) Finish(res action.Result, now time.Time) error {
	if s.Status != StepExecuting {
		return fmt.Errorf("%w: step %s finished while %s", ErrInvalidTransition, s.ID, s.Status)
	}
	s.Result = &res
	s.Timestamp = now
	if res.Success {
		s.Status = StepCompleted
	} else {
		s.Status = StepFailed
	}
	return nil
}

type stepJSON struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Action      action.Kind    `json:"action"`
	Parameters  map[string]any `json:"parameters"`
	Status      StepStatus     `json:"status"`
	Result      *action.Result `json:"result,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// MarshalJSON flattens the typed action into tag and parameters.
func (s Step) MarshalJSON() ([]byte, error) {
	out := stepJSON{
		ID:          s.ID,
		Description: s.Description,
		Status:      s.Status,
		Result:      s.Result,
		Timestamp:   s.Timestamp,
	}
	if s.Action != nil {
		out.Action = s.Action.Kind()
		out.Parameters = s.Action.Params()
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the typed action from its tag and parameters.
func (s *Step) UnmarshalJSON(data []byte) error {
	var in stepJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Step{ID: in.ID, Description: in.Description, Status: in.Status, Result: in.Result, Timestamp: in.Timestamp}
	if in.Action == "" {
		return nil
	}
	a, err := action.Decode(action.Blueprint{Action: string(in.Action), Description: in.Description, Parameters: in.Parameters})
	if err != nil {
		return fmt.Errorf("step %s: %w", in.ID, err)
	}
	s.Action = a
	return nil
}

// Workflow is an ordered sequence of steps pursuing one goal. CurrentStep
// only increases; Status only moves planning → executing → completed|failed.
type Workflow struct {
	ID          string          `json:"id"`
	Goal        string          `json:"goal"`
	Steps       []*Step         `json:"steps"`
	CurrentStep int             `json:"currentStep"`
	Status      Status          `json:"status"`
	Results     []action.Result `json:"results"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime,omitempty"`
}

// New creates a workflow in the planning state.
func New(id, goal string, now time.Time) *Workflow {
	return &Workflow{ID: id, Goal: goal, Status: Planning, Results: []action.Result{}, StartTime: now}
}

// Execute installs the planned steps and moves to executing.
func (w *Workflow) Execute(steps []*Step) error {
	if w.Status != Planning {
		return fmt.Errorf("%w: workflow %s %s -> %s", ErrInvalidTransition, w.ID, w.Status, Executing)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: workflow %s has no steps", ErrInvalidTransition, w.ID)
	}
	w.Steps = steps
	w.Status = Executing
	return nil
}

// Current returns the step to run next, or nil when none remains.
func (w *Workflow) Current() *Step {
	if w.Status != Executing || w.CurrentStep >= len(w.Steps) {
		return nil
	}
	return w.Steps[w.CurrentStep]
}

// Record applies the result of the current step. Success advances and,
// after the last step, completes the workflow; failure fails it. A result
// arriving after cancellation is kept on the step only.
func (w *Workflow) Record(res action.Result, now time.Time) {
	w.Results = append(w.Results, res)
	if w.Status != Executing {
		return
	}
	if !res.Success {
		w.finish(Failed, now)
		return
	}
	w.CurrentStep++
	if w.CurrentStep >= len(w.Steps) {
		w.finish(Completed, now)
	}
}

// Fail forces the workflow to failed from planning or executing.
func (w *Workflow) Fail(now time.Time) error {
	if w.Status.Final() {
		return fmt.Errorf("%w: workflow %s already %s", ErrInvalidTransition, w.ID, w.Status)
	}
	w.finish(Failed, now)
	return nil
}

func (w *Workflow) finish(s Status, now time.Time) {
	w.Status = s
	end := now
	w.EndTime = &end
}

// Clone returns a deep copy safe to hand to other goroutines.
func (w *Workflow) Clone() *Workflow {
	c := *w
	c.Steps = make([]*Step, len(w.Steps))
	for i, s := range w.Steps {
		sc := *s
		if s.Result != nil {
			r := *s.Result
			sc.Result = &r
		}
		c.Steps[i] = &sc
	}
	c.Results = append([]action.Result(nil), w.Results...)
	if w.EndTime != nil {
		end := *w.EndTime
		c.EndTime = &end
	}
	return &c
}
