// Package validate checks planned action blueprints against the required
// fields of their action kind before anything is executed.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
)

var (
	// ErrUnsupportedAction marks a blueprint whose tag is not executable.
	ErrUnsupportedAction = errors.New("unsupported action")
	// ErrInvalidURL marks a navigate target that is not absolute http(s).
	ErrInvalidURL = errors.New("navigate url must start with http:// or https://")
)

// MissingFieldError names the first required field a blueprint lacks.
type MissingFieldError struct {
	Action action.Kind
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s requires %q", e.Action, e.Field)
}

// Required lists the fields each executable kind must carry.
var Required = map[action.Kind][]string{
	action.KindNavigate:       {"url"},
	action.KindNewTab:         nil,
	action.KindCloseTab:       nil,
	action.KindSwitchTab:      {"tabId"},
	action.KindGoBack:         nil,
	action.KindGoForward:      nil,
	action.KindReload:         nil,
	action.KindSearch:         {"query"},
	action.KindExtractContent: {"selector"},
	action.KindScrollPage:     {"direction"},
	action.KindClickElement:   {"selector"},
	action.KindFindAndClick:   {"elementDescription"},
	action.KindFillForm:       {"text"},
	action.KindWaitForElement: {"selector"},
	action.KindScreenshot:     {"description"},
	action.KindAnalyzeContent: {"analysisType"},
	action.KindSmartFillForm:  {"elementDescription"},
	action.KindExtractTable:   nil,
}

// Check returns nil when b is executable: its tag is supported, every
// required field is present and non-empty, and a navigate url is http(s).
func Check(b action.Blueprint) error {
	kind := b.Kind()
	fields, ok := Required[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedAction, b.Action)
	}
	for _, f := range fields {
		if !present(b.Parameters[f]) {
			return &MissingFieldError{Action: kind, Field: f}
		}
	}
	if kind == action.KindNavigate && !action.IsHTTPURL(action.String(b.Parameters, "url")) {
		return fmt.Errorf("%w: %q", ErrInvalidURL, action.String(b.Parameters, "url"))
	}
	return nil
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	return true
}

// Validator logs rejections with the specific reason.
type Validator struct {
	logger *zap.Logger
}

// New creates a validator.
func New(logger *zap.Logger) *Validator {
	return &Validator{logger: logging.OrNop(logger)}
}

// Validate reports whether b may be executed, logging why not.
func (v *Validator) Validate(b action.Blueprint) bool {
	err := Check(b)
	if err == nil {
		return true
	}

	fields := []zap.Field{zap.String("action", b.Action), zap.String("description", b.Description)}
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		fields = append(fields, zap.String("missing_field", missing.Field))
	}
	v.logger.Warn("step rejected", append(fields, zap.Error(err))...)
	return false
}

// Filter keeps the blueprints that pass validation, in order.
func (v *Validator) Filter(bps []action.Blueprint) []action.Blueprint {
	kept := make([]action.Blueprint, 0, len(bps))
	for _, b := range bps {
		if v.Validate(b) {
			kept = append(kept, b)
		}
	}
	if dropped := len(bps) - len(kept); dropped > 0 && len(kept) > 0 {
		v.logger.Warn("continuing with partial plan", zap.Int("kept", len(kept)), zap.Int("dropped", dropped))
	}
	return kept
}
