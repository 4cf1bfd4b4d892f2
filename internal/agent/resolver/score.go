package resolver

import (
	"math"
	"sort"
	"strings"
)

// Scoring weights. js/score.js implements the same arithmetic in the page;
// a parity test keeps the two in step.
const (
	ExactScore      = 100.0
	ContainsBase    = 80.0
	ContainsSpan    = 19.0
	OverlapBase     = 40.0
	OverlapSpan     = 30.0
	CentralityBonus = 10.0
	SizeBonus       = 5.0
	SizeCapArea     = 10000.0
	Threshold       = 30.0
)

// Rect is an element's viewport-relative bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Candidate is one interactive element as seen by the scorer.
type Candidate struct {
	Ref   int      `json:"ref"`
	Texts []string `json:"texts"`
	Rect  Rect     `json:"rect"`
}

// Scored is a candidate with its total score and the text that matched.
type Scored struct {
	Candidate
	Score       float64 `json:"score"`
	MatchedText string  `json:"matchedText"`
}

// TextScore rates how well target matches description: 100 for equality,
// 80..99 for containment, 40..70 for word overlap, 0 otherwise.
func TextScore(target, description string) float64 {
	t := strings.ToLower(strings.TrimSpace(target))
	d := strings.ToLower(strings.TrimSpace(description))
	if t == "" || d == "" {
		return 0
	}
	if t == d {
		return ExactScore
	}

	tl, dl := jsLen(t), jsLen(d)
	if strings.Contains(t, d) || (tl >= 3 && strings.Contains(d, t)) {
		return ContainsBase + ContainsSpan*(math.Min(tl, dl)/math.Max(tl, dl))
	}

	dw, tw := words(d), words(t)
	if len(dw) == 0 || len(tw) == 0 {
		return 0
	}
	matched := 0
	for _, w := range dw {
		for _, tword := range tw {
			if strings.Contains(tword, w) {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return 0
	}
	return OverlapBase + OverlapSpan*(float64(matched)/float64(len(dw)))
}

// Centrality rewards elements near the vertical middle of the viewport.
func Centrality(r Rect, viewportHeight float64) float64 {
	if viewportHeight <= 0 {
		return 0
	}
	half := viewportHeight / 2
	cy := r.Y + r.Height/2
	return CentralityBonus * math.Max(0, 1-math.Abs(cy-half)/half)
}

// Size rewards larger click targets, capped at SizeCapArea square pixels.
func Size(r Rect) float64 {
	return SizeBonus * math.Min(1, (r.Width*r.Height)/SizeCapArea)
}

// Score rates one candidate: its best text match plus geometry bonuses.
// A candidate with no matching text scores zero.
func Score(c Candidate, description string, viewportHeight float64) Scored {
	best, matched := 0.0, ""
	for _, text := range c.Texts {
		if s := TextScore(text, description); s > best {
			best, matched = s, text
		}
	}
	if best == 0 {
		return Scored{Candidate: c}
	}
	return Scored{
		Candidate:   c,
		Score:       best + Centrality(c.Rect, viewportHeight) + Size(c.Rect),
		MatchedText: matched,
	}
}

// Rank scores all candidates, drops those at or under Threshold and sorts
// the rest best first. Ties keep document order.
func Rank(cands []Candidate, description string, viewportHeight float64) []Scored {
	out := make([]Scored, 0, len(cands))
	for _, c := range cands {
		if s := Score(c, description, viewportHeight); s.Score > Threshold {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// words splits on whitespace and keeps words of two or more characters.
func words(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if jsLen(w) >= 2 {
			out = append(out, w)
		}
	}
	return out
}

// jsLen counts UTF-16 code units, matching String.prototype.length.
func jsLen(s string) float64 {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return float64(n)
}
