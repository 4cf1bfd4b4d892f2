// Package agent ties the command pipeline together: page context, intent
// parsing, action expansion and dispatch for single commands, and the
// workflow controller for goals.
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/dispatcher"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/executor"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/pagecontext"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/parser"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/validate"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/intent"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentBrowser/internal/shared/id"
)

// DefaultThreshold is the confidence an intent must exceed to run.
const DefaultThreshold = 0.1

// CommandResult is the outcome of one natural-language command.
type CommandResult struct {
	ID      string             `json:"id"`
	Command string             `json:"command"`
	Intent  intent.Intent      `json:"intent"`
	Actions []action.Blueprint `json:"actions"`
	Results []action.Result    `json:"results"`
	Success bool               `json:"success"`
	Message string             `json:"message"`
}

// Agent executes commands against the active page.
type Agent struct {
	Extractor  *pagecontext.Extractor
	Parser     *parser.Parser
	Dispatcher *dispatcher.Dispatcher
	Workflows  *executor.Controller

	validator *validate.Validator
	threshold float64
	ids       *id.Generator
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// Option configures an Agent.
type Option func(*Agent)

func WithThreshold(t float64) Option              { return func(a *Agent) { a.threshold = t } }
func WithIDs(g *id.Generator) Option              { return func(a *Agent) { a.ids = g } }
func WithMetrics(m *monitoring.Metrics) Option    { return func(a *Agent) { a.metrics = m } }
func WithWorkflows(c *executor.Controller) Option { return func(a *Agent) { a.Workflows = c } }

// New creates an agent.
func New(ext *pagecontext.Extractor, p *parser.Parser, d *dispatcher.Dispatcher, logger *zap.Logger, opts ...Option) *Agent {
	log := logging.OrNop(logger)
	a := &Agent{
		Extractor:  ext,
		Parser:     p,
		Dispatcher: d,
		validator:  validate.New(log),
		threshold:  DefaultThreshold,
		ids:        id.Default(),
		logger:     log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Context extracts the current page context. Failures yield nil.
func (a *Agent) Context(ctx context.Context) *page.Context {
	if a.Extractor == nil {
		return nil
	}
	pc, err := a.Extractor.Extract(ctx)
	if err != nil {
		a.logger.Debug("page context unavailable", zap.Error(err))
		return nil
	}
	return pc
}

// Interpret parses a command against the current page without acting.
func (a *Agent) Interpret(ctx context.Context, command string) intent.Intent {
	return a.Parser.Parse(ctx, command, a.Context(ctx))
}

// ExecuteCommand parses one command and, when it is understood with
// enough confidence, runs the actions it expands to in order. The first
// failed action stops the rest.
func (a *Agent) ExecuteCommand(ctx context.Context, command string) *CommandResult {
	command = strings.TrimSpace(command)
	out := &CommandResult{ID: a.ids.Command(), Command: command, Actions: []action.Blueprint{}, Results: []action.Result{}}
	log := a.logger.With(zap.String("command_id", out.ID))

	pc := a.Context(ctx)
	out.Intent = a.Parser.Parse(ctx, command, pc)
	log.Info("command parsed",
		zap.String("command", command),
		zap.String("intent", string(out.Intent.Action)),
		zap.Float64("confidence", out.Intent.Confidence),
	)

	if !out.Intent.Actionable(a.threshold) {
		out.Message = "I couldn't turn that into a browser action"
		if r := out.Intent.Reasoning; r != "" {
			out.Message += ": " + r
		}
		a.metrics.RecordCommand(string(intent.None), false)
		return out
	}

	actions := a.Parser.Actions(out.Intent, command, pc)
	if len(actions) == 0 {
		out.Message = fmt.Sprintf("Nothing to do for %s", out.Intent.Action)
		a.metrics.RecordCommand(string(out.Intent.Action), false)
		return out
	}

	var last action.Result
	touched := false
	for _, act := range actions {
		out.Actions = append(out.Actions, action.Encode(act, ""))
		last = a.Dispatcher.Dispatch(ctx, act)
		out.Results = append(out.Results, last)
		touched = touched || act.Kind().Interactive()
		if !last.Success {
			break
		}
	}
	if touched && pc != nil && a.Extractor != nil {
		a.Extractor.Invalidate(pc.URL)
	}

	out.Success, out.Message = last.Success, last.Message
	a.Parser.Record(command, last)
	a.metrics.RecordCommand(string(out.Intent.Action), out.Success)
	log.Info("command finished", zap.Bool("success", out.Success), zap.Int("actions", len(out.Results)))
	return out
}

// Execute validates a blueprint and dispatches it. Invalid blueprints
// come back as failed results.
func (a *Agent) Execute(ctx context.Context, bp action.Blueprint) action.Result {
	if !a.validator.Validate(bp) {
		return action.Failed(validate.Check(bp).Error())
	}
	act, err := action.Decode(bp)
	if err != nil {
		return action.Failed(err.Error())
	}
	return a.Dispatcher.Dispatch(ctx, act)
}
