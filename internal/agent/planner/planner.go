// Package planner turns a high-level goal into an ordered list of action
// blueprints.
//
// One model call produces the raw plan. Three strategies then read it in
// order, and the first that yields steps wins: the structured JSON array,
// a line-by-line verb scan of the same text, and a keyword template
// library that ignores the model entirely. If all three come back empty a
// single web search for the goal is planned.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/validate"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
)

// ErrNoValidSteps means every planned step failed validation.
var ErrNoValidSteps = errors.New("no valid steps in plan")

// Tier names the strategy that produced a plan.
type Tier string

const (
	TierStructured Tier = "structured"
	TierText       Tier = "text"
	TierTemplate   Tier = "template"
	TierFallback   Tier = "search"
)

// Plan is a validated step list.
type Plan struct {
	Goal  string             `json:"goal"`
	Tier  Tier               `json:"tier"`
	Steps []action.Blueprint `json:"steps"`
	// Params holds the values a template was filled with.
	Params map[string]string `json:"params,omitempty"`
}

// strategy reads the model reply; it returns nil when it has nothing.
type strategy struct {
	tier Tier
	fn   func(goal, reply string) ([]action.Blueprint, map[string]string)
}

// Planner plans workflows.
type Planner struct {
	model      llm.Completer
	validator  *validate.Validator
	templates  *Library
	strategies []strategy
	logger     *zap.Logger
}

// New creates a planner. A nil model skips straight to the templates. A
// nil library loads the embedded one.
func New(model llm.Completer, templates *Library, logger *zap.Logger) (*Planner, error) {
	log := logging.OrNop(logger)
	if templates == nil {
		lib, err := LoadLibrary()
		if err != nil {
			return nil, err
		}
		templates = lib
	}
	p := &Planner{
		model:     model,
		validator: validate.New(log),
		templates: templates,
		logger:    log,
	}
	p.strategies = []strategy{
		{TierStructured, func(_, reply string) ([]action.Blueprint, map[string]string) { return Structured(reply), nil }},
		{TierText, func(_, reply string) ([]action.Blueprint, map[string]string) { return TextPatterns(reply), nil }},
		{TierTemplate, p.templates.Fill},
	}
	return p, nil
}

// Plan asks the model for a plan and validates the first strategy's
// result. A model failure is not an error; the templates still apply.
func (p *Planner) Plan(ctx context.Context, goal string) (*Plan, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("%w: empty goal", ErrNoValidSteps)
	}

	reply := p.ask(ctx, goal)

	plan := &Plan{Goal: goal}
	for _, s := range p.strategies {
		steps, params := s.fn(goal, reply)
		if len(steps) > 0 {
			plan.Tier, plan.Steps, plan.Params = s.tier, steps, params
			break
		}
		p.logger.Debug("planning tier empty", zap.String("tier", string(s.tier)))
	}
	if len(plan.Steps) == 0 {
		plan.Tier = TierFallback
		plan.Steps = []action.Blueprint{{
			Action:      string(action.KindSearch),
			Description: "Search the web for " + goal,
			Parameters:  map[string]any{"query": goal},
		}}
	}

	planned := len(plan.Steps)
	plan.Steps = p.validator.Filter(plan.Steps)
	if len(plan.Steps) == 0 {
		p.logger.Warn("plan rejected", zap.String("tier", string(plan.Tier)), zap.Int("planned", planned))
		return nil, fmt.Errorf("%w: %d planned by %s tier", ErrNoValidSteps, planned, plan.Tier)
	}
	p.logger.Info("plan ready",
		zap.String("goal", goal),
		zap.String("tier", string(plan.Tier)),
		zap.Int("steps", len(plan.Steps)),
		zap.Int("dropped", planned-len(plan.Steps)),
	)
	return plan, nil
}

func (p *Planner) ask(ctx context.Context, goal string) string {
	if p.model == nil {
		return ""
	}
	reply, err := p.model.Complete(ctx, planPrompt(goal), []llm.Message{{Role: llm.RoleSystem, Content: planSystemPrompt}})
	if err != nil {
		p.logger.Warn("planning model call failed", zap.Error(err))
		return ""
	}
	return reply
}
