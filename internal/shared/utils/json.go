// Package utils holds helpers for reading JSON out of free-form language
// model replies, which routinely wrap the payload in prose or markdown
// fences and leave it slightly malformed.
package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
)

// Limits
const (
	MaxJSONSize  = 1 * 1024 * 1024 // 1MB
	MaxJSONDepth = 32
)

var (
	ErrNoJSON   = errors.New("no JSON value found")
	ErrTooLarge = errors.New("JSON payload too large")
	ErrTooDeep  = errors.New("JSON nesting too deep")
)

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// StripFences returns the contents of the first markdown code fence, or s
// unchanged when there is none.
func StripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// ExtractObject returns the first balanced {...} in s.
func ExtractObject(s string) (string, bool) { return extract(s, '{', '}') }

// ExtractArray returns the first balanced [...] in s.
func ExtractArray(s string) (string, bool) { return extract(s, '[', ']') }

// extract scans for open and returns the text up to its matching close,
// ignoring brackets inside string literals. An unbalanced tail is returned
// as is so repair can close it.
func extract(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return s[start:], true
}

// DecodeLenient decodes raw into out, repairing it first if it does not
// parse as is.
func DecodeLenient(raw string, out any) error {
	if len(raw) > MaxJSONSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(raw))
	}
	if err := sonic.UnmarshalString(raw, out); err == nil {
		return nil
	}
	fixed, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return fmt.Errorf("repair JSON: %w", err)
	}
	if err := sonic.UnmarshalString(fixed, out); err != nil {
		return fmt.Errorf("decode repaired JSON: %w", err)
	}
	return nil
}

// CheckDepth rejects values nested deeper than maxDepth.
func CheckDepth(v any, maxDepth int) error {
	return checkDepth(v, 0, maxDepth)
}

func checkDepth(v any, depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: exceeds %d", ErrTooDeep, maxDepth)
	}
	switch val := v.(type) {
	case map[string]any:
		for _, child := range val {
			if err := checkDepth(child, depth+1, maxDepth); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range val {
			if err := checkDepth(child, depth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}
