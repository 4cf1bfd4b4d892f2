// Package intent holds the structured interpretation of one
// natural-language command.
package intent

import "strings"

// Kind is the classified action of a command.
type Kind string

const (
	Navigate Kind = "navigate"
	Click    Kind = "click"
	Search   Kind = "search"
	FillForm Kind = "fill_form"
	Scroll   Kind = "scroll"
	Extract  Kind = "extract"
	Wait     Kind = "wait"
	None     Kind = "none"
)

// DefaultThreshold is the confidence above which an intent is acted on.
// It is deliberately low: attempting beats refusing.
const DefaultThreshold = 0.1

// Intent is the output of single-shot parsing. Confidence comes from the
// model and is advisory.
type Intent struct {
	Understood bool    `json:"understood"`
	Action     Kind    `json:"action"`
	Target     string  `json:"target,omitempty"`
	Query      string  `json:"query,omitempty"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// NotUnderstood is the shape returned whenever parsing cannot produce an
// intent.
func NotUnderstood(reasoning string) Intent {
	return Intent{Understood: false, Action: None, Confidence: 0, Reasoning: reasoning}
}

// ParseKind normalises a model-provided action name.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Navigate, Click, Search, FillForm, Scroll, Extract, Wait, None:
		return k, true
	case "fill", "fillform", "type":
		return FillForm, true
	}
	return None, false
}

// Actionable reports whether the intent should be executed at threshold.
func (i Intent) Actionable(threshold float64) bool {
	return i.Understood && i.Action != None && i.Confidence > threshold
}

// Clamp bounds confidence to [0, 1].
func (i Intent) Clamp() Intent {
	switch {
	case i.Confidence < 0:
		i.Confidence = 0
	case i.Confidence > 1:
		i.Confidence = 1
	}
	return i
}
