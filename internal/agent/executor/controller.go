// Package executor owns the single current workflow and advances it one
// step at a time.
//
// A Controller holds zero or one workflow. Start plans a goal and runs
// the steps in the background; Run does the same in the caller's
// goroutine; Step advances exactly one step; Cancel forces the workflow
// to failed. Steps run strictly in plan order and never overlap: the
// controller awaits a step's dispatch and settle delays before the next
// one is scheduled. Cancellation lets the in-flight step finish and
// suppresses only the next one.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/dispatcher"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/pagecontext"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/planner"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/workflow"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/storage"
	"github.com/GriffinCanCode/AgentBrowser/internal/shared/id"
)

// Default settle windows.
const (
	DefaultNavigateSettle    = 3 * time.Second
	DefaultInteractionSettle = time.Second
	DefaultStepDelay         = time.Second
)

// Delays are the fixed waits around a step.
type Delays struct {
	// Navigate follows a successful navigate, before the readiness probe.
	Navigate time.Duration
	// Interaction follows a click or fill.
	Interaction time.Duration
	// Step separates one finished step from the next.
	Step time.Duration
}

// Controller runs workflows.
type Controller struct {
	planner    *planner.Planner
	dispatcher *dispatcher.Dispatcher
	page       page.Automation
	extractor  *pagecontext.Extractor
	model      llm.Completer
	journal    *storage.Journal
	enabled    func() bool
	ids        *id.Generator
	delays     Delays
	now        func() time.Time
	metrics    *monitoring.Metrics
	logger     *zap.Logger

	// stepMu serializes Step; mu guards current and stop.
	stepMu  sync.Mutex
	mu      sync.Mutex
	current *workflow.Workflow
	stop    chan struct{}

	events *fanout
}

// Option configures a Controller.
type Option func(*Controller)

func WithExtractor(e *pagecontext.Extractor) Option { return func(c *Controller) { c.extractor = e } }
func WithModel(m llm.Completer) Option              { return func(c *Controller) { c.model = m } }
func WithJournal(j *storage.Journal) Option         { return func(c *Controller) { c.journal = j } }
func WithEnabled(f func() bool) Option              { return func(c *Controller) { c.enabled = f } }
func WithIDs(g *id.Generator) Option                { return func(c *Controller) { c.ids = g } }
func WithDelays(d Delays) Option                    { return func(c *Controller) { c.delays = d } }
func WithClock(now func() time.Time) Option         { return func(c *Controller) { c.now = now } }
func WithMetrics(m *monitoring.Metrics) Option      { return func(c *Controller) { c.metrics = m } }

// New creates a controller. The page is used to confirm enhanced
// selectors before they replace the planned ones.
func New(pl *planner.Planner, d *dispatcher.Dispatcher, p page.Automation, logger *zap.Logger, opts ...Option) *Controller {
	log := logging.OrNop(logger)
	c := &Controller{
		planner:    pl,
		dispatcher: d,
		page:       p,
		enabled:    func() bool { return true },
		ids:        id.Default(),
		delays: Delays{
			Navigate:    DefaultNavigateSettle,
			Interaction: DefaultInteractionSettle,
			Step:        DefaultStepDelay,
		},
		now:    time.Now,
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.events = newFanout(c.logger)
	return c
}

// Current returns a snapshot of the current workflow, or nil.
func (c *Controller) Current() *workflow.Workflow {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.current.Clone()
}

// Start plans goal and executes it in the background. The returned
// snapshot is taken after planning. The background run outlives ctx's
// cancellation but keeps its values.
func (c *Controller) Start(ctx context.Context, goal string) (*workflow.Workflow, error) {
	w, stop, err := c.prepare(ctx, goal)
	if err != nil {
		return nil, err
	}
	snapshot := c.Current()
	go c.loop(context.WithoutCancel(ctx), w, stop)
	return snapshot, nil
}

// Run plans goal and executes every step before returning the final
// snapshot.
func (c *Controller) Run(ctx context.Context, goal string) (*workflow.Workflow, error) {
	w, stop, err := c.prepare(ctx, goal)
	if err != nil {
		return nil, err
	}
	c.loop(ctx, w, stop)
	return c.Current(), nil
}

// prepare claims the workflow slot and plans the goal.
func (c *Controller) prepare(ctx context.Context, goal string) (*workflow.Workflow, chan struct{}, error) {
	if !c.enabled() {
		return nil, nil, workflow.ErrWorkflowDisabled
	}

	c.mu.Lock()
	if c.current != nil && !c.current.Status.Final() {
		c.mu.Unlock()
		return nil, nil, workflow.ErrWorkflowActive
	}
	w := workflow.New(c.ids.Workflow(), goal, c.now())
	stop := make(chan struct{})
	c.current, c.stop = w, stop
	snap := w.Clone()
	c.mu.Unlock()

	log := c.logger.With(zap.String("workflow_id", w.ID))
	log.Info("workflow planning", zap.String("goal", goal))
	c.metrics.SetWorkflowActive(true)
	c.events.publish(Event{Type: EventWorkflow, Workflow: snap})

	plan, err := c.planner.Plan(ctx, goal)
	if err != nil {
		c.abort(w, err)
		return nil, nil, fmt.Errorf("plan workflow: %w", err)
	}

	now := c.now()
	steps := make([]*workflow.Step, 0, len(plan.Steps))
	for _, bp := range plan.Steps {
		a, err := action.Decode(bp)
		if err != nil {
			log.Warn("skipping undecodable step", zap.String("action", bp.Action), zap.Error(err))
			continue
		}
		steps = append(steps, workflow.NewStep(c.ids.Step(), bp.Description, a, now))
	}

	c.mu.Lock()
	if err := w.Execute(steps); err != nil {
		c.mu.Unlock()
		c.abort(w, err)
		return nil, nil, err
	}
	snap = w.Clone()
	c.mu.Unlock()

	log.Info("workflow executing", zap.String("tier", string(plan.Tier)), zap.Int("steps", len(steps)))
	c.events.publish(Event{Type: EventWorkflow, Workflow: snap})
	return w, stop, nil
}

// abort fails a workflow that never reached executing.
func (c *Controller) abort(w *workflow.Workflow, cause error) {
	c.mu.Lock()
	if err := w.Fail(c.now()); err != nil {
		c.mu.Unlock()
		return
	}
	snap := w.Clone()
	c.mu.Unlock()
	c.logger.Warn("workflow planning failed", zap.String("workflow_id", w.ID), zap.Error(cause))
	c.finished(snap, cause.Error())
}

func (c *Controller) loop(ctx context.Context, w *workflow.Workflow, stop chan struct{}) {
	for {
		if _, err := c.Step(ctx); err != nil {
			return
		}
		c.mu.Lock()
		done := c.current != w || w.Status.Final()
		c.mu.Unlock()
		if done {
			return
		}
		if !sleep(ctx, stop, c.delays.Step) {
			return
		}
	}
}

// Step executes the current workflow's next step and returns a snapshot
// of it.
func (c *Controller) Step(ctx context.Context) (*workflow.Step, error) {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.mu.Lock()
	w := c.current
	if w == nil {
		c.mu.Unlock()
		return nil, workflow.ErrNoWorkflow
	}
	step := w.Current()
	if step == nil {
		c.mu.Unlock()
		return nil, workflow.ErrNoWorkflow
	}
	if err := step.Begin(c.now()); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	a, desc, stop := step.Action, step.Description, c.stop
	snap := *step
	c.mu.Unlock()

	log := c.logger.With(zap.String("workflow_id", w.ID), zap.String("step_id", step.ID))
	log.Info("step executing", zap.String("action", string(a.Kind())), zap.String("description", desc))
	c.events.publish(Event{Type: EventStep, WorkflowID: w.ID, Step: &snap})

	a = c.enhance(ctx, desc, a)
	res := c.dispatcher.Dispatch(ctx, a)
	c.settle(ctx, stop, a, res, log)

	c.mu.Lock()
	step.Action = a
	if err := step.Finish(res, c.now()); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	wasFinal := w.Status.Final()
	w.Record(res, c.now())
	final := !wasFinal && w.Status.Final()
	stepSnap := *step
	wfSnap := w.Clone()
	c.mu.Unlock()

	if res.Success {
		log.Info("step completed", zap.String("message", res.Message))
	} else {
		log.Warn("step failed", zap.String("message", res.Message))
	}
	c.journalAppend(storage.Record{
		Kind:        storage.KindStep,
		WorkflowID:  w.ID,
		StepID:      step.ID,
		Action:      string(a.Kind()),
		Description: desc,
		Status:      string(stepSnap.Status),
		Success:     res.Success,
		Message:     res.Message,
		Time:        stepSnap.Timestamp,
	})
	c.events.publish(Event{Type: EventStep, WorkflowID: w.ID, Step: &stepSnap})
	if final {
		c.finished(wfSnap, res.Message)
	}
	return &stepSnap, nil
}

// settle waits after a step. A successful navigate also probes the new
// page; the probe never affects the result.
func (c *Controller) settle(ctx context.Context, stop chan struct{}, a action.Action, res action.Result, log *zap.Logger) {
	switch {
	case a.Kind() == action.KindNavigate && res.Success:
		sleep(ctx, stop, c.delays.Navigate)
		if c.extractor == nil {
			return
		}
		if pc, err := c.extractor.Extract(ctx); err != nil {
			log.Debug("readiness probe failed", zap.Error(err))
		} else {
			log.Debug("page ready", zap.String("url", pc.URL), zap.Int("links", len(pc.Links)))
		}
	case a.Kind().Interactive():
		sleep(ctx, stop, c.delays.Interaction)
	}
}

// Cancel forces the current workflow to failed. A step already running
// finishes, and nothing runs after it.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	w := c.current
	if w == nil {
		c.mu.Unlock()
		return workflow.ErrNoWorkflow
	}
	if err := w.Fail(c.now()); err != nil {
		c.mu.Unlock()
		return err
	}
	close(c.stop)
	snap := w.Clone()
	c.mu.Unlock()

	c.logger.Info("workflow cancelled", zap.String("workflow_id", w.ID))
	c.finished(snap, "cancelled")
	return nil
}

// finished records a workflow that just reached a final status.
func (c *Controller) finished(w *workflow.Workflow, message string) {
	c.logger.Info("workflow "+string(w.Status),
		zap.String("workflow_id", w.ID),
		zap.Int("steps", len(w.Steps)),
		zap.Int("completed", w.CurrentStep),
	)
	c.metrics.SetWorkflowActive(false)
	c.metrics.RecordWorkflow(string(w.Status))
	end := c.now()
	if w.EndTime != nil {
		end = *w.EndTime
	}
	c.journalAppend(storage.Record{
		Kind:       storage.KindWorkflow,
		WorkflowID: w.ID,
		Goal:       w.Goal,
		Status:     string(w.Status),
		Success:    w.Status == workflow.Completed,
		Message:    message,
		Time:       end,
	})
	c.events.publish(Event{Type: EventWorkflow, Workflow: w})
}

func (c *Controller) journalAppend(rec storage.Record) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Append(rec); err != nil {
		c.logger.Warn("journal append failed", zap.String("kind", rec.Kind), zap.Error(err))
	}
}

// sleep waits d unless ctx ends or stop closes first; it reports whether
// the full wait elapsed.
func sleep(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-stop:
			return false
		default:
			return ctx.Err() == nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	}
}
