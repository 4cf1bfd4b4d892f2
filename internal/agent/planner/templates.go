package planner

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
)

//go:embed templates.yaml
var builtinTemplates []byte

// ErrBadTemplate reports an unusable template definition.
var ErrBadTemplate = errors.New("invalid template")

// Template is a keyword-triggered plan with placeholders.
type Template struct {
	Name     string             `yaml:"name"`
	Keywords []string           `yaml:"keywords"`
	Requires []string           `yaml:"requires"`
	Defaults map[string]string  `yaml:"defaults"`
	Steps    []action.Blueprint `yaml:"steps"`

	trigger *regexp.Regexp
}

// Library is an ordered template set.
type Library struct {
	templates []Template
}

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// goal value readers, keyed by placeholder name
var (
	fromToRe = regexp.MustCompile(`(?i)\bfrom\s+(.+?)\s+to\s+(.+?)(?:\s+(?:on|for|in|at|with|departing|returning)\b|[,.;!?]|$)`)
	dateRe   = regexp.MustCompile(`(?i)\b((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?|\d{4}-\d{2}-\d{2}|(?:today|tomorrow|tonight))\b`)
	paxRe    = regexp.MustCompile(`(?i)\b(\d+|one|two|three|four|five|six|seven|eight|nine)\s+(?:adults?|passengers?|people|persons?|travell?ers?)\b`)
	cityRe   = regexp.MustCompile(`(?i)\b(?:in|near|around)\s+(.+?)(?:\s+(?:on|for|from|with|under|between)\b|[,.;!?]|$)`)
	buyRe    = regexp.MustCompile(`(?i)\b(?:buy|purchase|order|shop\s+for)\s+(?:an?\s+|the\s+|some\s+)?(.+?)(?:\s+(?:on|from|for|under|with|at)\b|[,.;!?]|$)`)
	topicRe  = regexp.MustCompile(`(?i)\b(?:research|learn\s+about|learn|investigate|study|find\s+out\s+about)\s+(.+?)(?:[,.;!?]|$)`)
	queryRe  = regexp.MustCompile(`(?i)\b(?:search\s+(?:the\s+web\s+)?(?:for\s+)?|look\s+up\s+|look\s+for\s+|find\s+)(.+?)(?:[.;!?]|$)`)
)

var numberWords = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9",
}

// LoadLibrary parses the built-in templates.
func LoadLibrary() (*Library, error) {
	return ParseLibrary(builtinTemplates)
}

// ParseLibrary parses a YAML template list.
func ParseLibrary(data []byte) (*Library, error) {
	var templates []Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	lib := &Library{}
	for i := range templates {
		t := templates[i]
		if err := t.compile(); err != nil {
			return nil, err
		}
		lib.templates = append(lib.templates, t)
	}
	return lib, nil
}

func (t *Template) compile() error {
	if t.Name == "" || len(t.Keywords) == 0 || len(t.Steps) == 0 {
		return fmt.Errorf("%w: %q needs a name, keywords and steps", ErrBadTemplate, t.Name)
	}
	for _, s := range t.Steps {
		if !s.Kind().Known() {
			return fmt.Errorf("%w: %q uses unknown action %q", ErrBadTemplate, t.Name, s.Action)
		}
	}
	words := make([]string, len(t.Keywords))
	for i, k := range t.Keywords {
		words[i] = regexp.QuoteMeta(strings.ToLower(k))
	}
	t.trigger = regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\b`)
	return nil
}

// Names lists template names in match order.
func (l *Library) Names() []string {
	names := make([]string, len(l.templates))
	for i, t := range l.templates {
		names[i] = t.Name
	}
	return names
}

// Fill returns the first matching template's steps with the values read
// from goal, or nil when none matches.
func (l *Library) Fill(goal, _ string) ([]action.Blueprint, map[string]string) {
	values := Values(goal)
	lower := strings.ToLower(goal)
	for _, t := range l.templates {
		if !t.trigger.MatchString(lower) {
			continue
		}
		params := make(map[string]string, len(values)+len(t.Defaults))
		for k, v := range t.Defaults {
			params[k] = v
		}
		for k, v := range values {
			params[k] = v
		}
		if !hasAll(params, t.Requires) {
			continue
		}
		steps := make([]action.Blueprint, len(t.Steps))
		for i, s := range t.Steps {
			steps[i] = action.Blueprint{
				Action:      s.Action,
				Description: substitute(s.Description, params, false),
				Parameters:  fillParams(s.Parameters, params),
			}
		}
		return steps, params
	}
	return nil, nil
}

// Values reads every known placeholder value from a goal.
func Values(goal string) map[string]string {
	v := map[string]string{}
	if m := fromToRe.FindStringSubmatch(goal); m != nil {
		v["from"], v["to"] = phrase(m[1]), phrase(m[2])
	}
	if m := dateRe.FindStringSubmatch(goal); m != nil {
		v["date"] = m[1]
	}
	if m := paxRe.FindStringSubmatch(goal); m != nil {
		n := strings.ToLower(m[1])
		if w, ok := numberWords[n]; ok {
			n = w
		}
		v["passengers"] = n
	}
	if m := cityRe.FindStringSubmatch(goal); m != nil {
		v["city"] = phrase(m[1])
	}
	if m := buyRe.FindStringSubmatch(goal); m != nil {
		v["product"] = phrase(m[1])
	}
	if m := topicRe.FindStringSubmatch(goal); m != nil {
		v["topic"] = phrase(m[1])
	}
	if m := queryRe.FindStringSubmatch(goal); m != nil {
		v["query"] = phrase(m[1])
	}
	for k, s := range v {
		if s == "" {
			delete(v, k)
		}
	}
	return v
}

func hasAll(params map[string]string, keys []string) bool {
	for _, k := range keys {
		if params[k] == "" {
			return false
		}
	}
	return true
}

func fillParams(in map[string]any, params map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = substitute(val, params, k == "url")
		case map[string]any:
			out[k] = fillParams(val, params)
		default:
			out[k] = val
		}
	}
	return out
}

func substitute(s string, params map[string]string, escape bool) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		v := params[placeholderRe.FindStringSubmatch(m)[1]]
		if escape {
			return url.QueryEscape(v)
		}
		return v
	})
}
