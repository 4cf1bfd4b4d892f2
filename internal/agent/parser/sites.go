package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/config"
)

var (
	engineRe = regexp.MustCompile(`(?i)\b(?:on|with|using|via)\s+(?:google|bing|duckduckgo|yahoo|the\s+web|the\s+internet)\b`)
	domainRe = regexp.MustCompile(`(?i)\b(?:on|at|from)\s+((?:[a-z0-9-]+\.)+[a-z]{2,})\b`)
)

// Sites is the allow-list of hosts that carry their own search box.
type Sites struct {
	globs []string
}

// NewSites creates an allow-list from host globs; nil means the defaults.
func NewSites(globs []string) *Sites {
	if globs == nil {
		globs = config.DefaultSearchableSites
	}
	valid := make([]string, 0, len(globs))
	for _, g := range globs {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" && doublestar.ValidatePattern(g) {
			valid = append(valid, g)
		}
	}
	return &Sites{globs: valid}
}

// Searchable reports whether the page at rawURL has its own search.
func (s *Sites) Searchable(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	for _, g := range s.globs {
		if ok, _ := doublestar.Match(g, host); ok {
			return true
		}
	}
	return false
}

// NamesDestination reports whether command sends the search somewhere
// other than the current site.
func NamesDestination(command, currentURL string) bool {
	if engineRe.MatchString(command) {
		return true
	}
	m := domainRe.FindStringSubmatch(command)
	if m == nil {
		return false
	}
	named := strings.TrimPrefix(strings.ToLower(m[1]), "www.")
	current := strings.TrimPrefix(hostOf(currentURL), "www.")
	return named != current && !strings.HasSuffix(current, "."+named)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
