package planner

import (
	"regexp"
	"strings"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
)

var (
	listPrefixRe = regexp.MustCompile(`(?i)^\s*(?:[-*•]|\d+[.)]|step\s+\d+\s*[:.)-])\s*`)
	urlRe        = regexp.MustCompile(`https?://[^\s"'<>)\]},]+`)
	navigateCue  = regexp.MustCompile(`(?i)\b(?:navigate|go\s+to|visit|open)\b`)
	searchCue    = regexp.MustCompile(`(?i)\b(?:search|find)\b(?:\s+(?:for|the\s+web\s+for|google\s+for))?\s*(.*)$`)
	clickCue     = regexp.MustCompile(`(?i)\b(?:click|press|select|tap)\b(?:\s+on)?(?:\s+the)?\s*(.*)$`)
	scrollCue    = regexp.MustCompile(`(?i)\bscroll\b`)
	fillCue      = regexp.MustCompile(`(?i)\b(?:input|enter|type|fill(?:\s+in)?)\b\s*(.*)$`)
	// structural leftovers from a half-written JSON plan
	junkRe = regexp.MustCompile(`[{}\[\]]|"\s*:|^\s*"?(?:action|parameters|description)"?\s*$`)
)

// TextPatterns scans reply line by line for verb cues. It is used when the
// reply is not a readable array.
func TextPatterns(reply string) []action.Blueprint {
	var out []action.Blueprint
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(listPrefixRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		if b, ok := lineStep(line); ok {
			out = append(out, b)
		}
	}
	return out
}

func lineStep(line string) (action.Blueprint, bool) {
	step := func(k action.Kind, params map[string]any) (action.Blueprint, bool) {
		return action.Blueprint{Action: string(k), Description: line, Parameters: params}, true
	}

	if navigateCue.MatchString(line) {
		if u := urlRe.FindString(line); u != "" {
			return step(action.KindNavigate, map[string]any{"url": strings.TrimRight(u, ".,;:")})
		}
	}
	if m := searchCue.FindStringSubmatch(line); m != nil {
		if q := phrase(m[1]); q != "" {
			return step(action.KindSearch, map[string]any{"query": q})
		}
	}
	if m := clickCue.FindStringSubmatch(line); m != nil {
		if d := phrase(m[1]); d != "" && !junkRe.MatchString(m[1]) {
			return step(action.KindFindAndClick, map[string]any{"elementDescription": d})
		}
	}
	if scrollCue.MatchString(line) {
		return step(action.KindScrollPage, map[string]any{"direction": direction(line)})
	}
	if m := fillCue.FindStringSubmatch(line); m != nil {
		if text := phrase(m[1]); text != "" && !junkRe.MatchString(m[1]) {
			return step(action.KindFillForm, map[string]any{"text": text})
		}
	}
	return action.Blueprint{}, false
}

// phrase drops quotes and trailing punctuation from a captured phrase.
func phrase(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(`"`, "", "`", "").Replace(s)
	s = strings.TrimRight(s, ".,;:!")
	return strings.TrimSpace(strings.Trim(s, "'"))
}

func direction(line string) string {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, "top"):
		return "top"
	case strings.Contains(l, "up"):
		return "up"
	}
	return "down"
}
