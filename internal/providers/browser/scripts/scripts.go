// Package scripts holds the JavaScript the agent evaluates inside the page
// and assembles it into invocations.
//
// Every file under js/ except score.js is a parenthesised function
// expression. Build appends a JSON argument list and a leading marker
// comment naming the script, so fakes and logs can tell invocations apart.
// score.js is a library: it defines __abScore and is prepended to the
// scripts that rank elements.
package scripts

import (
	"embed"
	"fmt"
	"regexp"
	"sort"

	"github.com/bytedance/sonic"
)

//go:embed js/*.js
var files embed.FS

// Name identifies an embedded script.
type Name string

const (
	Score    Name = "score"
	Resolve  Name = "resolve"
	Location Name = "location"
	Context  Name = "context"
	HTML     Name = "html"
	Click    Name = "click"
	Fill     Name = "fill"
	Scroll   Name = "scroll"
	Exists   Name = "exists"
)

// dependencies are prepended to a script's source.
var dependencies = map[Name][]Name{
	Resolve: {Score},
}

var markerRe = regexp.MustCompile(`^/\*ab:([a-z]+)\*/`)

// Source returns the raw source of a script.
func Source(name Name) (string, error) {
	b, err := files.ReadFile("js/" + string(name) + ".js")
	if err != nil {
		return "", fmt.Errorf("script %q: %w", name, err)
	}
	return string(b), nil
}

// All returns every embedded script's source keyed by name.
func All() (map[Name]string, error) {
	entries, err := files.ReadDir("js")
	if err != nil {
		return nil, err
	}
	out := make(map[Name]string, len(entries))
	for _, e := range entries {
		name := Name(e.Name()[:len(e.Name())-len(".js")])
		src, err := Source(name)
		if err != nil {
			return nil, err
		}
		out[name] = src
	}
	return out, nil
}

// Names lists embedded scripts in sorted order.
func Names() []Name {
	all, _ := All()
	names := make([]Name, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Build returns an evaluable invocation of name with args marshalled as its
// only argument. A nil args passes an empty object.
func Build(name Name, args any) (string, error) {
	src, err := Source(name)
	if err != nil {
		return "", err
	}
	if args == nil {
		args = map[string]any{}
	}
	payload, err := sonic.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("script %q args: %w", name, err)
	}

	code := "/*ab:" + string(name) + "*/\n"
	for _, dep := range dependencies[name] {
		depSrc, err := Source(dep)
		if err != nil {
			return "", err
		}
		code += depSrc + "\n"
	}
	return code + src + "(" + string(payload) + ");", nil
}

// MustBuild is Build for arguments that cannot fail to marshal.
func MustBuild(name Name, args any) string {
	code, err := Build(name, args)
	if err != nil {
		panic(err)
	}
	return code
}

// NameOf recovers the script name from a built invocation.
func NameOf(code string) Name {
	m := markerRe.FindStringSubmatch(code)
	if m == nil {
		return ""
	}
	return Name(m[1])
}

// ResolveArgs drives resolve.js.
type ResolveArgs struct {
	Description string `json:"description"`
	Mode        string `json:"mode"` // click, fill or locate
	Value       string `json:"value,omitempty"`
	DelayMillis int64  `json:"delay"`
}

// ResolveResult is what resolve.js returns.
type ResolveResult struct {
	Found      bool     `json:"found"`
	Tag        string   `json:"tag"`
	Text       string   `json:"text"`
	Score      float64  `json:"score"`
	Confidence int      `json:"confidence"`
	Error      string   `json:"error"`
	Available  []string `json:"available"`
}

// SelectorArgs drives html.js, click.js and exists.js.
type SelectorArgs struct {
	Selector string `json:"selector"`
}

// HTMLResult is what html.js returns.
type HTMLResult struct {
	Found bool   `json:"found"`
	URL   string `json:"url"`
	HTML  string `json:"html"`
}

// ElementResult is what click.js, fill.js and exists.js return.
type ElementResult struct {
	Found     bool   `json:"found"`
	Visible   bool   `json:"visible"`
	Tag       string `json:"tag"`
	Text      string `json:"text"`
	Name      string `json:"name"`
	Submitted bool   `json:"submitted"`
}

// FillArgs drives fill.js.
type FillArgs struct {
	Selector string `json:"selector,omitempty"`
	Text     string `json:"text"`
	Submit   bool   `json:"submit"`
}

// ScrollArgs drives scroll.js.
type ScrollArgs struct {
	Direction string `json:"direction"`
	Amount    int    `json:"amount"`
}

// ScrollResult is what scroll.js returns.
type ScrollResult struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
}
