package dispatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/pagecontext"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/scraper"
	"github.com/GriffinCanCode/AgentBrowser/internal/testutil"
)

const storeHTML = `<html><head><title>Store</title><meta name="description" content="A small store"></head><body>
<h1>Deals</h1>
<a href="/cart">Cart</a> <a href="https://help.example.com/">Help</a>
<table id="prices"><tr><th>Item</th><th>Price</th></tr><tr><td>Lamp</td><td>20</td></tr><tr><td>Desk</td><td>90</td></tr></table>
<p>Everything must go.</p>
</body></html>`

func newDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *testutil.FakePage) {
	t.Helper()
	fp := testutil.NewFakePage("https://shop.example.com/", "Store", storeHTML)
	return New(fp, nil, nil, opts...), fp
}

func TestNavigateBuildsURL(t *testing.T) {
	d, fp := newDispatcher(t)
	ctx := context.Background()

	res := d.Dispatch(ctx, action.Navigate{URL: "example.com"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Navigated to https://example.com", res.Message)

	res = d.Dispatch(ctx, action.Navigate{URL: "best pizza nearby"})
	require.True(t, res.Success)
	assert.Equal(t, []string{
		"https://example.com",
		"https://www.google.com/search?q=best+pizza+nearby",
	}, fp.Navigations())
}

func TestNavigateFailureIsAResult(t *testing.T) {
	d, fp := newDispatcher(t)
	fp.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	res := d.Dispatch(context.Background(), action.Navigate{URL: "https://nowhere.invalid"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "ERR_NAME_NOT_RESOLVED")
}

func TestSearchUsesConfiguredEndpoint(t *testing.T) {
	d, fp := newDispatcher(t, WithSearchEndpoint(func() string { return "https://duckduckgo.com/?q=" }))
	res := d.Dispatch(context.Background(), action.Search{Query: "go generics"})
	require.True(t, res.Success)
	assert.Equal(t, []string{"https://duckduckgo.com/?q=go+generics"}, fp.Navigations())

	res = d.Dispatch(context.Background(), action.Search{Query: "  "})
	assert.False(t, res.Success)
}

func TestTabLifecycle(t *testing.T) {
	d, fp := newDispatcher(t)
	ctx := context.Background()

	res := d.Dispatch(ctx, action.NewTab{URL: "example.org"})
	require.True(t, res.Success)
	assert.Equal(t, "tab-2", res.Data.(map[string]any)["tabId"])
	assert.Equal(t, "tab-2", fp.CurrentTabID())

	require.True(t, d.Dispatch(ctx, action.SwitchTab{TabID: "tab-1"}).Success)
	assert.Equal(t, "tab-1", fp.CurrentTabID())
	assert.False(t, d.Dispatch(ctx, action.SwitchTab{TabID: "tab-9"}).Success)

	require.True(t, d.Dispatch(ctx, action.CloseTab{}).Success)
	assert.Equal(t, "tab-2", fp.CurrentTabID())
	assert.False(t, d.Dispatch(ctx, action.CloseTab{}).Success, "last tab stays open")
}

func TestReservedAndNil(t *testing.T) {
	d, _ := newDispatcher(t)
	res := d.Dispatch(context.Background(), action.Reserved{Tag: action.KindMonitorNetwork})
	assert.False(t, res.Success)
	assert.Equal(t, "monitorNetwork is not supported", res.Message)

	assert.False(t, d.Dispatch(context.Background(), nil).Success)
}

func TestHandlerPanicBecomesFailedResult(t *testing.T) {
	d, fp := newDispatcher(t)
	fp.On(scripts.Click, func(string) (any, error) { panic("boom") })
	res := d.Dispatch(context.Background(), action.ClickElement{Selector: "#go"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "boom")
}

func TestClickElement(t *testing.T) {
	d, fp := newDispatcher(t)
	fp.On(scripts.Click, func(code string) (any, error) {
		var args scripts.SelectorArgs
		require.NoError(t, testutil.ScriptArgs(code, &args))
		if args.Selector != "#buy" {
			return scripts.ElementResult{Found: false}, nil
		}
		return scripts.ElementResult{Found: true, Tag: "button", Text: "Buy now"}, nil
	})

	res := d.Dispatch(context.Background(), action.ClickElement{Selector: "#buy"})
	require.True(t, res.Success)
	assert.Equal(t, `Clicked button "Buy now"`, res.Message)

	res = d.Dispatch(context.Background(), action.ClickElement{Selector: "#missing"})
	assert.False(t, res.Success)
	assert.Equal(t, `No element matches selector "#missing"`, res.Message)
}

func TestFindAndClickNotFoundCarriesAvailable(t *testing.T) {
	d, fp := newDispatcher(t)
	fp.On(scripts.Resolve, func(string) (any, error) {
		return scripts.ResolveResult{Found: false, Available: []string{"Cart", "Help"}}, nil
	})
	res := d.Dispatch(context.Background(), action.FindAndClick{ElementDescription: "checkout"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "available: Cart, Help")
	assert.Equal(t, []string{"Cart", "Help"}, res.Data.(map[string]any)["available"])
}

func TestFillFormSubmit(t *testing.T) {
	d, fp := newDispatcher(t)
	var got scripts.FillArgs
	fp.On(scripts.Fill, func(code string) (any, error) {
		require.NoError(t, testutil.ScriptArgs(code, &got))
		return scripts.ElementResult{Found: true, Tag: "input", Name: "q", Submitted: got.Submit}, nil
	})

	res := d.Dispatch(context.Background(), action.FillForm{Text: "lamps", Submit: true})
	require.True(t, res.Success)
	assert.Equal(t, scripts.FillArgs{Text: "lamps", Submit: true}, got)
	assert.Equal(t, `Filled input "q" with "lamps" and submitted`, res.Message)
}

func TestSmartFillForm(t *testing.T) {
	d, fp := newDispatcher(t)
	fp.On(scripts.Resolve, func(code string) (any, error) {
		var args scripts.ResolveArgs
		require.NoError(t, testutil.ScriptArgs(code, &args))
		if args.Description == "phone" {
			return scripts.ResolveResult{Found: false}, nil
		}
		return scripts.ResolveResult{Found: true, Tag: "input", Text: args.Description, Confidence: 90}, nil
	})

	res := d.Dispatch(context.Background(), action.SmartFillForm{
		ElementDescription: "signup form",
		FormData:           map[string]string{"email": "a@b.c", "name": "Ada", "phone": "123"},
	})
	require.True(t, res.Success)
	assert.Equal(t, "Filled 2 of 3 fields; missing: phone", res.Message)
}

func TestScrollValidatesDirection(t *testing.T) {
	d, fp := newDispatcher(t)
	fp.On(scripts.Scroll, func(string) (any, error) { return scripts.ScrollResult{Y: 640}, nil })

	res := d.Dispatch(context.Background(), action.ScrollPage{})
	require.True(t, res.Success)
	assert.Equal(t, "Scrolled down", res.Message)
	assert.False(t, d.Dispatch(context.Background(), action.ScrollPage{Direction: "sideways"}).Success)
}

func TestWaitForElementPolls(t *testing.T) {
	d, fp := newDispatcher(t, WithWait(time.Millisecond, time.Second))
	var calls atomic.Int32
	fp.On(scripts.Exists, func(string) (any, error) {
		return scripts.ElementResult{Found: calls.Add(1) >= 3, Visible: true}, nil
	})

	res := d.Dispatch(context.Background(), action.WaitForElement{Selector: "#results"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitForElementTimesOut(t *testing.T) {
	d, fp := newDispatcher(t, WithWait(time.Millisecond, time.Hour))
	fp.On(scripts.Exists, func(string) (any, error) { return scripts.ElementResult{}, nil })

	res := d.Dispatch(context.Background(), action.WaitForElement{Selector: "#never", Timeout: 20 * time.Millisecond})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "did not appear within 20ms")
}

func TestExtractContentModes(t *testing.T) {
	d, _ := newDispatcher(t)

	res := d.Dispatch(context.Background(), action.ExtractContent{Mode: action.ModeLinks})
	require.True(t, res.Success, res.Message)
	out := res.Data.(*scraper.Extraction)
	require.Len(t, out.Links, 2)
	assert.Equal(t, "https://shop.example.com/cart", out.Links[0].Href)

	res = d.Dispatch(context.Background(), action.ExtractContent{Mode: "poetry"})
	assert.False(t, res.Success)
}

func TestExtractTable(t *testing.T) {
	d, _ := newDispatcher(t)
	res := d.Dispatch(context.Background(), action.ExtractTable{Selector: "#prices"})
	require.True(t, res.Success, res.Message)
	tbl := res.Data.(*scraper.Table)
	assert.Equal(t, []string{"Item", "Price"}, tbl.Headers)
	assert.Equal(t, [][]string{{"Lamp", "20"}, {"Desk", "90"}}, tbl.Rows)

	res = d.Dispatch(context.Background(), action.ExtractTable{Selector: "#nope"})
	assert.False(t, res.Success)
}

func TestScreenshotSavedWithDetectedExtension(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 9, 1, 12, 30, 0, 0, time.UTC)
	d, fp := newDispatcher(t, WithScreenshotDir(dir), WithClock(func() time.Time { return at }))
	fp.ScreenshotData = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	res := d.Dispatch(context.Background(), action.Screenshot{Description: "Pricing Table!"})
	require.True(t, res.Success, res.Message)
	data := res.Data.(map[string]any)
	assert.Equal(t, "image/png", data["mimeType"])
	path := data["path"].(string)
	assert.Equal(t, filepath.Join(dir, "20250901-123000.000-pricing-table.png"), path)
	_, err := os.Stat(path)
	assert.NoError(t, err)

	fp.ScreenshotData = []byte("plain text")
	assert.False(t, d.Dispatch(context.Background(), action.Screenshot{Description: "x"}).Success)
}

func TestAnalyzeContent(t *testing.T) {
	fp := testutil.NewFakePage("https://shop.example.com/", "Store", storeHTML)
	ext, err := pagecontext.New(fp, nil, 8)
	require.NoError(t, err)
	model := testutil.NewFakeCompleter("  A store running a clearance sale.  ")
	d := New(fp, nil, nil, WithExtractor(ext), WithModel(model))

	res := d.Dispatch(context.Background(), action.AnalyzeContent{AnalysisType: "summary"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "A store running a clearance sale.", res.Data.(map[string]any)["analysis"])
	prompt := model.Prompts()[0]
	assert.True(t, strings.HasPrefix(prompt, analysisPrompts["summary"]))
	assert.Contains(t, prompt, "Description: A small store")
	assert.Contains(t, prompt, "- Deals")

	res = d.Dispatch(context.Background(), action.AnalyzeContent{AnalysisType: "Translate the headline to French"})
	require.True(t, res.Success)
	assert.True(t, strings.HasPrefix(model.Prompts()[1], "Translate the headline to French"))
}

func TestAnalyzeWithoutModel(t *testing.T) {
	d, _ := newDispatcher(t)
	res := d.Dispatch(context.Background(), action.AnalyzeContent{AnalysisType: "summary"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no language model provider configured")
}
