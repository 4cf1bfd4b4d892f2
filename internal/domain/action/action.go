// Package action defines the closed vocabulary of browser operations the
// agent can perform, the untyped blueprint form produced by planners, and
// the uniform result every dispatch returns.
package action

import "time"

// Kind tags an action variant.
type Kind string

const (
	KindNavigate       Kind = "navigate"
	KindNewTab         Kind = "newTab"
	KindCloseTab       Kind = "closeTab"
	KindSwitchTab      Kind = "switchTab"
	KindGoBack         Kind = "goBack"
	KindGoForward      Kind = "goForward"
	KindReload         Kind = "reload"
	KindSearch         Kind = "search"
	KindExtractContent Kind = "extractContent"
	KindScrollPage     Kind = "scrollPage"
	KindClickElement   Kind = "clickElement"
	KindFindAndClick   Kind = "findAndClick"
	KindFillForm       Kind = "fillForm"
	KindWaitForElement Kind = "waitForElement"
	KindScreenshot     Kind = "screenshot"
	KindAnalyzeContent Kind = "analyzeContent"
	KindSmartFillForm  Kind = "smartFillForm"
	KindExtractTable   Kind = "extractTable"

	// Reserved: declared in the vocabulary, never executed.
	KindMonitorNetwork  Kind = "monitorNetwork"
	KindManageBookmarks Kind = "manageBookmarks"
	KindExecuteWorkflow Kind = "executeWorkflow"
)

// Kinds lists every executable kind in vocabulary order.
var Kinds = []Kind{
	KindNavigate, KindNewTab, KindCloseTab, KindSwitchTab, KindGoBack, KindGoForward,
	KindReload, KindSearch, KindExtractContent, KindScrollPage, KindClickElement,
	KindFindAndClick, KindFillForm, KindWaitForElement, KindScreenshot,
	KindAnalyzeContent, KindSmartFillForm, KindExtractTable,
}

// Reserved reports whether k is a declared but unimplemented kind.
func (k Kind) Reserved() bool {
	switch k {
	case KindMonitorNetwork, KindManageBookmarks, KindExecuteWorkflow:
		return true
	}
	return false
}

// Known reports whether k is an executable kind.
func (k Kind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Interactive reports whether k touches page elements and deserves an
// interaction settle window afterwards.
func (k Kind) Interactive() bool {
	switch k {
	case KindClickElement, KindFindAndClick, KindFillForm, KindSmartFillForm:
		return true
	}
	return false
}

// Action is one typed browser operation. The set of implementations is
// closed; the kind of a value never changes.
type Action interface {
	Kind() Kind
	Params() map[string]any
	sealed()
}

// Targeted is implemented by actions aimed at a CSS selector.
type Targeted interface {
	Action
	Target() string
	WithTarget(selector string) Action
}

type Navigate struct{ URL string }

type NewTab struct{ URL string }

type CloseTab struct{ TabID string }

type SwitchTab struct{ TabID string }

type GoBack struct{}

type GoForward struct{}

type Reload struct{}

type Search struct{ Query string }

// ExtractContent reads part of the page. Mode is one of the Mode* constants.
type ExtractContent struct {
	Selector string
	Mode     string
}

const (
	ModeText       = "text"
	ModeLinks      = "links"
	ModeImages     = "images"
	ModeForms      = "forms"
	ModeTables     = "tables"
	ModeStructured = "structured"
	ModeSummary    = "summary"
	ModeAll        = "all"
)

// ScrollPage scrolls by Amount pixels, or to an edge for top/bottom.
type ScrollPage struct {
	Direction string
	Amount    int
}

type ClickElement struct{ Selector string }

type FindAndClick struct{ ElementDescription string }

// FillForm types Text into Selector, or into the focused or first text
// field when Selector is empty.
type FillForm struct {
	Text     string
	Selector string
	Submit   bool
}

type WaitForElement struct {
	Selector string
	Timeout  time.Duration
}

type Screenshot struct{ Description string }

type AnalyzeContent struct{ AnalysisType string }

// SmartFillForm fills fields located by natural-language labels.
type SmartFillForm struct {
	ElementDescription string
	FormData           map[string]string
}

type ExtractTable struct{ Selector string }

// Reserved carries a reserved kind through to the dispatcher, which
// answers it with a failed result.
type Reserved struct {
	Tag        Kind
	Parameters map[string]any
}

func (Navigate) Kind() Kind       { return KindNavigate }
func (NewTab) Kind() Kind         { return KindNewTab }
func (CloseTab) Kind() Kind       { return KindCloseTab }
func (SwitchTab) Kind() Kind      { return KindSwitchTab }
func (GoBack) Kind() Kind         { return KindGoBack }
func (GoForward) Kind() Kind      { return KindGoForward }
func (Reload) Kind() Kind         { return KindReload }
func (Search) Kind() Kind         { return KindSearch }
func (ExtractContent) Kind() Kind { return KindExtractContent }
func (ScrollPage) Kind() Kind     { return KindScrollPage }
func (ClickElement) Kind() Kind   { return KindClickElement }
func (FindAndClick) Kind() Kind   { return KindFindAndClick }
func (FillForm) Kind() Kind       { return KindFillForm }
func (WaitForElement) Kind() Kind { return KindWaitForElement }
func (Screenshot) Kind() Kind     { return KindScreenshot }
func (AnalyzeContent) Kind() Kind { return KindAnalyzeContent }
func (SmartFillForm) Kind() Kind  { return KindSmartFillForm }
func (ExtractTable) Kind() Kind   { return KindExtractTable }
func (r Reserved) Kind() Kind     { return r.Tag }

func (Navigate) sealed()       {}
func (NewTab) sealed()         {}
func (CloseTab) sealed()       {}
func (SwitchTab) sealed()      {}
func (GoBack) sealed()         {}
func (GoForward) sealed()      {}
func (Reload) sealed()         {}
func (Search) sealed()         {}
func (ExtractContent) sealed() {}
func (ScrollPage) sealed()     {}
func (ClickElement) sealed()   {}
func (FindAndClick) sealed()   {}
func (FillForm) sealed()       {}
func (WaitForElement) sealed() {}
func (Screenshot) sealed()     {}
func (AnalyzeContent) sealed() {}
func (SmartFillForm) sealed()  {}
func (ExtractTable) sealed()   {}
func (Reserved) sealed()       {}

func (a ClickElement) Target() string   { return a.Selector }
func (a FillForm) Target() string       { return a.Selector }
func (a WaitForElement) Target() string { return a.Selector }

func (a ClickElement) WithTarget(s string) Action   { a.Selector = s; return a }
func (a FillForm) WithTarget(s string) Action       { a.Selector = s; return a }
func (a WaitForElement) WithTarget(s string) Action { a.Selector = s; return a }

// Result is the outcome of one dispatch. It is always produced; errors
// never cross the dispatcher boundary as Go errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(message string, data any) Result {
	return Result{Success: true, Message: message, Data: data}
}

// Failed builds a failed result.
func Failed(message string) Result {
	return Result{Success: false, Message: message}
}
