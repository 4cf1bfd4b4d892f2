package sandbox

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
)

// Rect mirrors the bounding box score.js expects.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scorer runs the page's scoring library outside the page.
type Scorer struct {
	rt        *Runtime
	text      goja.Value
	total     goja.Value
	Threshold float64
}

// NewScorer loads score.js into a fresh runtime.
func NewScorer() (*Scorer, error) {
	rt, err := New(DefaultConfig())
	if err != nil {
		return nil, err
	}
	src, err := scripts.Source(scripts.Score)
	if err != nil {
		return nil, err
	}
	if _, err := rt.Execute(context.Background(), src); err != nil {
		return nil, fmt.Errorf("load score.js: %w", err)
	}

	lib, ok := rt.Global("__abScore").(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("score.js defines no __abScore")
	}
	return &Scorer{
		rt:        rt,
		text:      lib.Get("text"),
		total:     lib.Get("total"),
		Threshold: lib.Get("threshold").ToFloat(),
	}, nil
}

// Text scores one text source against a description.
func (s *Scorer) Text(ctx context.Context, target, description string) (float64, error) {
	v, err := s.rt.Call(ctx, s.text, target, description)
	if err != nil {
		return 0, err
	}
	return toFloat(v), nil
}

// Total scores a candidate's texts and box, returning the score and the
// text that matched best.
func (s *Scorer) Total(ctx context.Context, texts []string, rect Rect, description string, viewportHeight float64) (float64, string, error) {
	box := map[string]any{"x": rect.X, "y": rect.Y, "width": rect.Width, "height": rect.Height}
	list := make([]any, len(texts))
	for i, t := range texts {
		list[i] = t
	}
	v, err := s.rt.Call(ctx, s.total, list, box, description, viewportHeight)
	if err != nil {
		return 0, "", err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return 0, "", fmt.Errorf("unexpected total result %T", v)
	}
	text, _ := m["text"].(string)
	return toFloat(m["score"]), text, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
