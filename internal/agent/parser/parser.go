// Package parser turns one natural-language command into an intent.
//
// The language model classifies the command with the page context and the
// last few exchanges in its prompt. When the model cannot be used at all
// the command is not understood; when the call fails for any other reason
// a deterministic pattern matcher takes over.
package parser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/intent"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
	"github.com/GriffinCanCode/AgentBrowser/internal/shared/utils"
)

// Defaults
const (
	DefaultMemory = 20
	promptLinks   = 20
	promptButtons = 15
	promptHistory = 3
)

// Exchange is one remembered command.
type Exchange struct {
	Command string        `json:"command"`
	Intent  intent.Intent `json:"intent"`
	Result  string        `json:"result,omitempty"`
	Success *bool         `json:"success,omitempty"`
	At      time.Time     `json:"at"`
}

// Parser classifies commands.
type Parser struct {
	model  llm.Completer
	sites  *Sites
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	memory    []Exchange
	maxMemory int
}

// Option configures a Parser.
type Option func(*Parser)

func WithMemory(n int) Option               { return func(p *Parser) { p.maxMemory = n } }
func WithSites(s *Sites) Option             { return func(p *Parser) { p.sites = s } }
func WithClock(now func() time.Time) Option { return func(p *Parser) { p.now = now } }

// New creates a parser. A nil model makes every command not understood.
func New(model llm.Completer, logger *zap.Logger, opts ...Option) *Parser {
	p := &Parser{
		model:     model,
		logger:    logging.OrNop(logger),
		now:       time.Now,
		maxMemory: DefaultMemory,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.sites == nil {
		p.sites = NewSites(nil)
	}
	return p
}

// reply is the object the model is asked to produce.
type reply struct {
	Understood *bool   `json:"understood"`
	Action     string  `json:"action"`
	Target     string  `json:"target"`
	Query      string  `json:"query"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Parse classifies command. It never fails; problems yield a not
// understood intent.
func (p *Parser) Parse(ctx context.Context, command string, pc *page.Context) intent.Intent {
	command = strings.TrimSpace(command)
	if command == "" {
		return intent.NotUnderstood("empty command")
	}
	if p.model == nil {
		return intent.NotUnderstood("No language model is configured; add a provider key in settings.")
	}

	text, err := p.model.Complete(ctx, p.prompt(command, pc), []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}})
	if err != nil {
		if llm.Unusable(err) {
			p.logger.Info("model unavailable for intent parsing", zap.Error(err))
			return intent.NotUnderstood("The language model is not available: " + err.Error())
		}
		p.logger.Warn("intent model call failed, using patterns", zap.Error(err))
		in := Match(command)
		p.remember(command, in)
		return in
	}

	in, ok := decode(text)
	if !ok {
		p.logger.Info("no intent object in model reply", zap.String("command", command))
		return intent.NotUnderstood("Could not read an intent from the model reply.")
	}
	p.remember(command, in)
	p.logger.Info("intent parsed",
		zap.String("command", command),
		zap.String("action", string(in.Action)),
		zap.Float64("confidence", in.Confidence),
	)
	return in
}

func decode(text string) (intent.Intent, bool) {
	raw, ok := utils.ExtractObject(utils.StripFences(text))
	if !ok {
		return intent.Intent{}, false
	}
	var r reply
	if err := utils.DecodeLenient(raw, &r); err != nil {
		return intent.Intent{}, false
	}
	kind, known := intent.ParseKind(r.Action)
	in := intent.Intent{
		Understood: known && kind != intent.None,
		Action:     kind,
		Target:     strings.TrimSpace(r.Target),
		Query:      strings.TrimSpace(r.Query),
		Confidence: r.Confidence,
		Reasoning:  r.Reasoning,
	}
	if r.Understood != nil && !*r.Understood {
		in.Understood = false
	}
	if !in.Understood {
		in.Action = intent.None
	}
	return in.Clamp(), true
}

// Record attaches the outcome of executing command to its memory entry.
func (p *Parser) Record(command string, res action.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.memory) - 1; i >= 0; i-- {
		if p.memory[i].Command == command && p.memory[i].Success == nil {
			ok := res.Success
			p.memory[i].Success = &ok
			p.memory[i].Result = res.Message
			return
		}
	}
}

// Memory returns the remembered exchanges, oldest first.
func (p *Parser) Memory() []Exchange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Exchange(nil), p.memory...)
}

func (p *Parser) remember(command string, in intent.Intent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.memory = append(p.memory, Exchange{Command: command, Intent: in, At: p.now()})
	if over := len(p.memory) - p.maxMemory; over > 0 {
		p.memory = append([]Exchange(nil), p.memory[over:]...)
	}
}

func (p *Parser) recent(n int) []Exchange {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.memory) <= n {
		return append([]Exchange(nil), p.memory...)
	}
	return append([]Exchange(nil), p.memory[len(p.memory)-n:]...)
}

func describeExchange(e Exchange) string {
	s := fmt.Sprintf("%q -> %s", e.Command, e.Intent.Action)
	if e.Intent.Target != "" {
		s += " " + e.Intent.Target
	}
	if e.Intent.Query != "" {
		s += fmt.Sprintf(" (query %q)", e.Intent.Query)
	}
	if e.Success != nil {
		if *e.Success {
			s += ": succeeded"
		} else {
			s += ": failed"
		}
		if e.Result != "" {
			s += " - " + e.Result
		}
	}
	return s
}
