package action

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Blueprint is the untyped form of an action as produced by planners and
// API clients: a tag, a human-readable description and a parameter bag.
type Blueprint struct {
	Action      string         `json:"action" yaml:"action"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters" yaml:"parameters"`
}

// Kind returns the blueprint's tag as a Kind.
func (b Blueprint) Kind() Kind { return Kind(b.Action) }

// Decode builds the typed action for a blueprint. It does not enforce
// required fields; run the validator first.
func Decode(b Blueprint) (Action, error) {
	p := b.Parameters
	switch k := b.Kind(); k {
	case KindNavigate:
		return Navigate{URL: String(p, "url")}, nil
	case KindNewTab:
		return NewTab{URL: String(p, "url")}, nil
	case KindCloseTab:
		return CloseTab{TabID: String(p, "tabId")}, nil
	case KindSwitchTab:
		return SwitchTab{TabID: String(p, "tabId")}, nil
	case KindGoBack:
		return GoBack{}, nil
	case KindGoForward:
		return GoForward{}, nil
	case KindReload:
		return Reload{}, nil
	case KindSearch:
		return Search{Query: String(p, "query")}, nil
	case KindExtractContent:
		mode := strings.ToLower(String(p, "mode"))
		if mode == "" {
			mode = ModeText
		}
		return ExtractContent{Selector: String(p, "selector"), Mode: mode}, nil
	case KindScrollPage:
		return ScrollPage{Direction: strings.ToLower(String(p, "direction")), Amount: Int(p, "amount")}, nil
	case KindClickElement:
		return ClickElement{Selector: String(p, "selector")}, nil
	case KindFindAndClick:
		return FindAndClick{ElementDescription: String(p, "elementDescription")}, nil
	case KindFillForm:
		return FillForm{Text: String(p, "text"), Selector: String(p, "selector"), Submit: Bool(p, "submit")}, nil
	case KindWaitForElement:
		return WaitForElement{
			Selector: String(p, "selector"),
			Timeout:  time.Duration(Int(p, "timeout")) * time.Millisecond,
		}, nil
	case KindScreenshot:
		return Screenshot{Description: String(p, "description")}, nil
	case KindAnalyzeContent:
		return AnalyzeContent{AnalysisType: String(p, "analysisType")}, nil
	case KindSmartFillForm:
		return SmartFillForm{
			ElementDescription: String(p, "elementDescription"),
			FormData:           StringMap(p, "formData"),
		}, nil
	case KindExtractTable:
		return ExtractTable{Selector: String(p, "selector")}, nil
	default:
		if k.Reserved() {
			return Reserved{Tag: k, Parameters: p}, nil
		}
		return nil, fmt.Errorf("unknown action %q", b.Action)
	}
}

// Encode turns an action back into its blueprint form.
func Encode(a Action, description string) Blueprint {
	return Blueprint{Action: string(a.Kind()), Description: description, Parameters: a.Params()}
}

func (a Navigate) Params() map[string]any  { return map[string]any{"url": a.URL} }
func (a NewTab) Params() map[string]any    { return omitEmpty(map[string]any{"url": a.URL}) }
func (a CloseTab) Params() map[string]any  { return omitEmpty(map[string]any{"tabId": a.TabID}) }
func (a SwitchTab) Params() map[string]any { return map[string]any{"tabId": a.TabID} }
func (GoBack) Params() map[string]any      { return map[string]any{} }
func (GoForward) Params() map[string]any   { return map[string]any{} }
func (Reload) Params() map[string]any      { return map[string]any{} }
func (a Search) Params() map[string]any    { return map[string]any{"query": a.Query} }

func (a ExtractContent) Params() map[string]any {
	return map[string]any{"selector": a.Selector, "mode": a.Mode}
}

func (a ScrollPage) Params() map[string]any {
	p := map[string]any{"direction": a.Direction}
	if a.Amount > 0 {
		p["amount"] = a.Amount
	}
	return p
}

func (a ClickElement) Params() map[string]any { return map[string]any{"selector": a.Selector} }

func (a FindAndClick) Params() map[string]any {
	return map[string]any{"elementDescription": a.ElementDescription}
}

func (a FillForm) Params() map[string]any {
	p := omitEmpty(map[string]any{"text": a.Text, "selector": a.Selector})
	if a.Submit {
		p["submit"] = true
	}
	return p
}

func (a WaitForElement) Params() map[string]any {
	p := map[string]any{"selector": a.Selector}
	if a.Timeout > 0 {
		p["timeout"] = a.Timeout.Milliseconds()
	}
	return p
}

func (a Screenshot) Params() map[string]any { return map[string]any{"description": a.Description} }

func (a AnalyzeContent) Params() map[string]any {
	return map[string]any{"analysisType": a.AnalysisType}
}

func (a SmartFillForm) Params() map[string]any {
	p := map[string]any{"elementDescription": a.ElementDescription}
	if len(a.FormData) > 0 {
		data := make(map[string]any, len(a.FormData))
		for k, v := range a.FormData {
			data[k] = v
		}
		p["formData"] = data
	}
	return p
}

func (a ExtractTable) Params() map[string]any { return omitEmpty(map[string]any{"selector": a.Selector}) }

func (r Reserved) Params() map[string]any {
	if r.Parameters == nil {
		return map[string]any{}
	}
	return r.Parameters
}

func omitEmpty(p map[string]any) map[string]any {
	for k, v := range p {
		if s, ok := v.(string); ok && s == "" {
			delete(p, k)
		}
	}
	return p
}

// String reads a parameter as a trimmed string. Numbers are formatted so
// that ids sent as JSON numbers still work.
func String(p map[string]any, key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return ""
}

// Int reads a numeric parameter, accepting numeric strings.
func Int(p map[string]any, key string) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return 0
}

// Bool reads a boolean parameter, accepting "true"/"false" strings.
func Bool(p map[string]any, key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// StringMap reads an object parameter as a string map.
func StringMap(p map[string]any, key string) map[string]string {
	raw, ok := p[key].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s := String(raw, k); s != "" {
			out[k] = s
		} else if v != nil {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// SortedKeys returns the keys of m in order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
