package parser

import (
	"regexp"
	"strings"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/intent"
)

// PatternConfidence is the confidence of a pattern match.
const PatternConfidence = 0.6

var (
	questionRe = regexp.MustCompile(`(?i)^(what|why|how|who|whom|whose|when|where|which|is|are|does|do|did|can|could|should|would)\b`)
	navigateRe = regexp.MustCompile(`(?i)^(?:please\s+)?(?:go\s+to|navigate\s+to|open|visit|load|head\s+to|take\s+me\s+to)\s+(.+)$`)
	searchRe   = regexp.MustCompile(`(?i)^(?:please\s+)?(?:search(?:\s+for)?|look\s+up|google|find\s+me)\s+(.+)$`)
	clickRe    = regexp.MustCompile(`(?i)^(?:please\s+)?(?:click|press|tap|hit|select)\s+(?:on\s+)?(?:the\s+)?(.+)$`)
	fillRe     = regexp.MustCompile(`(?i)^(?:please\s+)?(?:type|enter|input|write|fill\s+in|fill)\s+(.+?)(?:\s+(?:in|into)\s+(?:the\s+)?(.+))?$`)
	scrollRe   = regexp.MustCompile(`(?i)^(?:please\s+)?(?:scroll|page)(?:\s+(?:to\s+the\s+)?(up|down|top|bottom))?\b`)
	extractRe  = regexp.MustCompile(`(?i)^(?:please\s+)?(?:extract|get|grab|list|show|read|copy)\s+(?:me\s+)?(?:all\s+)?(?:the\s+)?(text|links|images|forms|tables|structured data|summary|everything|content)\b`)
	waitRe     = regexp.MustCompile(`(?i)^(?:please\s+)?wait\s+(?:for\s+)?(?:the\s+)?(.+)$`)
	quotesRe   = regexp.MustCompile(`^["'](.*)["']$`)
)

// Match classifies command with fixed patterns. Questions and anything
// unrecognised are not understood.
func Match(command string) intent.Intent {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return intent.NotUnderstood("empty command")
	}
	if strings.HasSuffix(cmd, "?") || questionRe.MatchString(cmd) {
		return intent.NotUnderstood("This is a question, not a browser command.")
	}
	cmd = strings.TrimRight(cmd, ".! ")

	matched := func(kind intent.Kind, target, query string) intent.Intent {
		return intent.Intent{
			Understood: true,
			Action:     kind,
			Target:     strings.TrimSpace(target),
			Query:      strings.TrimSpace(query),
			Confidence: PatternConfidence,
			Reasoning:  "matched " + string(kind) + " pattern",
		}
	}

	if m := scrollRe.FindStringSubmatch(cmd); m != nil {
		dir := strings.ToLower(m[1])
		if dir == "" {
			dir = "down"
		}
		return matched(intent.Scroll, dir, "")
	}
	if m := navigateRe.FindStringSubmatch(cmd); m != nil {
		return matched(intent.Navigate, unquote(m[1]), "")
	}
	if m := searchRe.FindStringSubmatch(cmd); m != nil {
		return matched(intent.Search, "", unquote(m[1]))
	}
	if m := extractRe.FindStringSubmatch(cmd); m != nil {
		return matched(intent.Extract, extractMode(m[1]), "")
	}
	if m := fillRe.FindStringSubmatch(cmd); m != nil {
		return matched(intent.FillForm, m[2], unquote(m[1]))
	}
	if m := clickRe.FindStringSubmatch(cmd); m != nil {
		return matched(intent.Click, unquote(m[1]), "")
	}
	if m := waitRe.FindStringSubmatch(cmd); m != nil {
		return matched(intent.Wait, m[1], "")
	}
	return intent.NotUnderstood("No command pattern matched.")
}

func extractMode(word string) string {
	switch w := strings.ToLower(word); w {
	case "structured data":
		return action.ModeStructured
	case "everything":
		return action.ModeAll
	case action.ModeText, action.ModeLinks, action.ModeImages, action.ModeForms,
		action.ModeTables, action.ModeStructured, action.ModeSummary, action.ModeAll:
		return w
	default:
		return action.ModeText
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if m := quotesRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
