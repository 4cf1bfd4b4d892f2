// Package resolver maps a natural-language element description ("the
// checkout button") to one element of the live page.
//
// Ranking runs inside the page (js/resolve.js) because only the page has
// the DOM and geometry; the arithmetic is mirrored in score.go so it can be
// tested without a browser.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
)

// DefaultClickDelay lets smooth scrolling finish and lazy handlers attach
// before the element is clicked.
const DefaultClickDelay = 500 * time.Millisecond

// NotFoundError reports that nothing scored above the noise floor. It
// carries a sample of what was clickable so the caller can retry with a
// better description.
type NotFoundError struct {
	Description string
	Available   []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no element matching %q", e.Description)
	}
	return fmt.Sprintf("no element matching %q; available: %s", e.Description, strings.Join(e.Available, ", "))
}

// Match describes the element that was selected.
type Match struct {
	Description string  `json:"description"`
	Tag         string  `json:"tag"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
	Confidence  int     `json:"confidence"`
}

// Summary is a human-readable account of the match.
func (m *Match) Summary(verb string) string {
	return fmt.Sprintf("%s %s %q (%d%% confidence)", verb, m.Tag, m.Text, m.Confidence)
}

// Resolver runs the in-page ranking script.
type Resolver struct {
	page       page.Automation
	clickDelay time.Duration
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClickDelay overrides DefaultClickDelay.
func WithClickDelay(d time.Duration) Option {
	return func(r *Resolver) { r.clickDelay = d }
}

// WithMetrics records outcomes.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// New creates a resolver over the active page.
func New(p page.Automation, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{page: p, clickDelay: DefaultClickDelay, logger: logging.OrNop(logger)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Click resolves description and clicks the best match after the settle delay.
func (r *Resolver) Click(ctx context.Context, description string) (*Match, error) {
	return r.run(ctx, scripts.ResolveArgs{Description: description, Mode: "click"})
}

// Fill resolves description and sets value on the best match.
func (r *Resolver) Fill(ctx context.Context, description, value string) (*Match, error) {
	return r.run(ctx, scripts.ResolveArgs{Description: description, Mode: "fill", Value: value})
}

// Locate resolves description and scrolls the match into view only.
func (r *Resolver) Locate(ctx context.Context, description string) (*Match, error) {
	return r.run(ctx, scripts.ResolveArgs{Description: description, Mode: "locate"})
}

func (r *Resolver) run(ctx context.Context, args scripts.ResolveArgs) (*Match, error) {
	args.Description = strings.TrimSpace(args.Description)
	if args.Description == "" {
		return nil, &NotFoundError{Description: args.Description}
	}
	args.DelayMillis = r.clickDelay.Milliseconds()

	code, err := scripts.Build(scripts.Resolve, args)
	if err != nil {
		return nil, err
	}

	var res scripts.ResolveResult
	if err := r.page.RunScript(ctx, code, &res); err != nil {
		r.metrics.RecordResolution("error")
		return nil, fmt.Errorf("resolve %q: %w", args.Description, err)
	}

	if !res.Found {
		r.metrics.RecordResolution("not_found")
		r.logger.Info("no element above threshold",
			zap.String("description", args.Description),
			zap.Strings("available", res.Available),
		)
		return nil, &NotFoundError{Description: args.Description, Available: res.Available}
	}
	if res.Error != "" {
		r.metrics.RecordResolution("error")
		return nil, fmt.Errorf("%s %q: %s", args.Mode, args.Description, res.Error)
	}

	r.metrics.RecordResolution("found")
	m := &Match{
		Description: args.Description,
		Tag:         res.Tag,
		Text:        res.Text,
		Score:       res.Score,
		Confidence:  res.Confidence,
	}
	r.logger.Debug("element resolved",
		zap.String("description", args.Description),
		zap.String("mode", args.Mode),
		zap.String("tag", m.Tag),
		zap.Float64("score", m.Score),
	)
	return m, nil
}
