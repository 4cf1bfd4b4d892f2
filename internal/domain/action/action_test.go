package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name string
		bp   Blueprint
		want Action
	}{
		{
			name: "navigate",
			bp:   Blueprint{Action: "navigate", Parameters: map[string]any{"url": " https://example.com "}},
			want: Navigate{URL: "https://example.com"},
		},
		{
			name: "switch tab with numeric id",
			bp:   Blueprint{Action: "switchTab", Parameters: map[string]any{"tabId": float64(3)}},
			want: SwitchTab{TabID: "3"},
		},
		{
			name: "extract defaults to text mode",
			bp:   Blueprint{Action: "extractContent", Parameters: map[string]any{"selector": "main"}},
			want: ExtractContent{Selector: "main", Mode: ModeText},
		},
		{
			name: "fill form with submit string",
			bp:   Blueprint{Action: "fillForm", Parameters: map[string]any{"text": "hello", "submit": "true"}},
			want: FillForm{Text: "hello", Submit: true},
		},
		{
			name: "wait timeout in milliseconds",
			bp:   Blueprint{Action: "waitForElement", Parameters: map[string]any{"selector": "#x", "timeout": float64(1500)}},
			want: WaitForElement{Selector: "#x", Timeout: 1500 * time.Millisecond},
		},
		{
			name: "smart fill form data",
			bp: Blueprint{Action: "smartFillForm", Parameters: map[string]any{
				"elementDescription": "signup form",
				"formData":           map[string]any{"email": "a@b.c", "age": float64(30)},
			}},
			want: SmartFillForm{ElementDescription: "signup form", FormData: map[string]string{"email": "a@b.c", "age": "30"}},
		},
		{
			name: "reserved kind",
			bp:   Blueprint{Action: "monitorNetwork"},
			want: Reserved{Tag: KindMonitorNetwork},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.bp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.bp.Kind(), got.Kind())
		})
	}
}

func TestDecodeUnknown(t *testing.T) {
	_, err := Decode(Blueprint{Action: "teleport"})
	assert.Error(t, err)
}

func TestEncodeKeepsTag(t *testing.T) {
	bp := Encode(FillForm{Text: "hi", Submit: true}, "type greeting")

	assert.Equal(t, "fillForm", bp.Action)
	assert.Equal(t, map[string]any{"text": "hi", "submit": true}, bp.Parameters)

	back, err := Decode(bp)
	require.NoError(t, err)
	assert.Equal(t, FillForm{Text: "hi", Submit: true}, back)
}

func TestWithTargetReturnsCopy(t *testing.T) {
	orig := ClickElement{Selector: "button"}
	changed := orig.WithTarget("#buy")

	assert.Equal(t, "button", orig.Selector)
	assert.Equal(t, ClickElement{Selector: "#buy"}, changed)
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, KindNavigate.Known())
	assert.False(t, KindManageBookmarks.Known())
	assert.True(t, KindManageBookmarks.Reserved())
	assert.True(t, KindFindAndClick.Interactive())
	assert.False(t, KindScrollPage.Interactive())
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://example.com/a", "https://example.com/a"},
		{"file:///tmp/x.html", "file:///tmp/x.html"},
		{"example.com", "https://example.com"},
		{"news.ycombinator.com/item?id=1", "https://news.ycombinator.com/item?id=1"},
		{"localhost:3000", "http://localhost:3000"},
		{"cheap flights", "https://www.google.com/search?q=cheap+flights"},
		{"golang", "https://www.google.com/search?q=golang"},
		{"v1.", "https://www.google.com/search?q=v1."},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildURL(tt.input, ""))
		})
	}

	assert.Equal(t, "https://duckduckgo.com/?q=a+b", BuildURL("a b", "https://duckduckgo.com/?q="))
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://example.com/signup"))
	assert.True(t, IsHTTPURL("HTTP://example.com"))
	assert.False(t, IsHTTPURL("example.com"))
	assert.False(t, IsHTTPURL("ftp://example.com"))
	assert.False(t, IsHTTPURL("https://"))
}
