package action

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultSearchEndpoint receives free text that is not an address.
const DefaultSearchEndpoint = "https://www.google.com/search?q="

var (
	schemeRe    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	localhostRe = regexp.MustCompile(`^localhost(:\d+)?(/.*)?$`)
)

// BuildURL turns user input into a navigable address. Input that already
// carries a scheme is kept; a single token that looks like a host gets an
// https:// prefix; anything else is sent to the search endpoint.
func BuildURL(input, searchEndpoint string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if searchEndpoint == "" {
		searchEndpoint = DefaultSearchEndpoint
	}

	if schemeRe.MatchString(input) || strings.HasPrefix(input, "about:") {
		return input
	}
	if !strings.ContainsAny(input, " \t") {
		if localhostRe.MatchString(input) {
			return "http://" + input
		}
		if looksLikeHost(input) {
			return "https://" + input
		}
	}
	return SearchURL(input, searchEndpoint)
}

// SearchURL builds a search address for query.
func SearchURL(query, searchEndpoint string) string {
	if searchEndpoint == "" {
		searchEndpoint = DefaultSearchEndpoint
	}
	return searchEndpoint + url.QueryEscape(strings.TrimSpace(query))
}

// IsHTTPURL reports whether s is an absolute http(s) address.
func IsHTTPURL(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && u.Host != ""
}

func looksLikeHost(token string) bool {
	host := token
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	dot := strings.LastIndexByte(host, '.')
	if dot <= 0 || dot == len(host)-1 {
		return false
	}
	tld := host[dot+1:]
	for _, r := range tld {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
