package scripts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllScriptsEmbedded(t *testing.T) {
	all, err := All()
	require.NoError(t, err)

	for _, name := range []Name{Score, Resolve, Location, Context, HTML, Click, Fill, Scroll, Exists} {
		assert.NotEmpty(t, all[name], name)
	}
	assert.Len(t, Names(), len(all))
}

func TestBuildMarksAndInvokes(t *testing.T) {
	code, err := Build(Click, SelectorArgs{Selector: "#buy"})
	require.NoError(t, err)

	assert.Equal(t, Click, NameOf(code))
	assert.True(t, strings.HasSuffix(code, `({"selector":"#buy"});`))
	assert.NotContains(t, code, "__abScore =")
}

func TestBuildPrependsDependencies(t *testing.T) {
	code := MustBuild(Resolve, ResolveArgs{Description: "submit order", Mode: "click", DelayMillis: 500})

	assert.Equal(t, Resolve, NameOf(code))
	scoreAt := strings.Index(code, "var __abScore")
	resolveAt := strings.Index(code, "var S = __abScore")
	require.GreaterOrEqual(t, scoreAt, 0)
	assert.Less(t, scoreAt, resolveAt)
}

func TestBuildNilArgs(t *testing.T) {
	code := MustBuild(Location, nil)
	assert.True(t, strings.HasSuffix(code, "({});"))
}

func TestNameOfUnmarked(t *testing.T) {
	assert.Equal(t, Name(""), NameOf("location.href"))
}

func TestUnknownScript(t *testing.T) {
	_, err := Build("nope", nil)
	assert.Error(t, err)
}
