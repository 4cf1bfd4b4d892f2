package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
)

func bp(kind string, params map[string]any) action.Blueprint {
	return action.Blueprint{Action: kind, Description: "step", Parameters: params}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		bp      action.Blueprint
		missing string
		err     error
	}{
		{name: "navigate ok", bp: bp("navigate", map[string]any{"url": "https://example.com"})},
		{name: "navigate missing url", bp: bp("navigate", map[string]any{}), missing: "url"},
		{name: "navigate blank url", bp: bp("navigate", map[string]any{"url": "   "}), missing: "url"},
		{name: "navigate bare host", bp: bp("navigate", map[string]any{"url": "example.com"}), err: ErrInvalidURL},
		{name: "search ok", bp: bp("search", map[string]any{"query": "go"})},
		{name: "search missing", bp: bp("search", nil), missing: "query"},
		{name: "findAndClick ok", bp: bp("findAndClick", map[string]any{"elementDescription": "login"})},
		{name: "findAndClick missing", bp: bp("findAndClick", map[string]any{"selector": "#a"}), missing: "elementDescription"},
		{name: "fillForm without selector", bp: bp("fillForm", map[string]any{"text": "hi"})},
		{name: "fillForm without text", bp: bp("fillForm", map[string]any{"selector": "#q"}), missing: "text"},
		{name: "switchTab numeric", bp: bp("switchTab", map[string]any{"tabId": float64(2)})},
		{name: "smartFillForm empty data ok", bp: bp("smartFillForm", map[string]any{"elementDescription": "form"})},
		{name: "goBack no params", bp: bp("goBack", nil)},
		{name: "extractTable no params", bp: bp("extractTable", nil)},
		{name: "scroll missing direction", bp: bp("scrollPage", map[string]any{"amount": float64(10)}), missing: "direction"},
		{name: "unknown tag", bp: bp("teleport", nil), err: ErrUnsupportedAction},
		{name: "reserved tag", bp: bp("manageBookmarks", nil), err: ErrUnsupportedAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.bp)
			switch {
			case tt.missing != "":
				var mf *MissingFieldError
				require.ErrorAs(t, err, &mf)
				assert.Equal(t, tt.missing, mf.Field)
				assert.Equal(t, tt.bp.Kind(), mf.Action)
			case tt.err != nil:
				assert.ErrorIs(t, err, tt.err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

// Every executable kind accepts a blueprint carrying exactly its required
// fields and rejects the same blueprint with any one of them blanked.
func TestCheckAcceptsIffRequiredPresent(t *testing.T) {
	for _, kind := range action.Kinds {
		fields := Required[kind]
		full := map[string]any{}
		for _, f := range fields {
			full[f] = "value"
		}
		if kind == action.KindNavigate {
			full["url"] = "http://example.com"
		}

		assert.NoError(t, Check(bp(string(kind), full)), kind)

		for _, f := range fields {
			partial := map[string]any{}
			for k, v := range full {
				partial[k] = v
			}
			partial[f] = ""
			assert.Error(t, Check(bp(string(kind), partial)), "%s without %s", kind, f)
		}
	}
}

func TestFilterLogsRejections(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	v := New(zap.New(core))

	kept := v.Filter([]action.Blueprint{
		bp("navigate", map[string]any{"url": "https://a.example"}),
		bp("findAndClick", map[string]any{}),
		bp("search", map[string]any{"query": "shoes"}),
	})

	require.Len(t, kept, 2)
	assert.Equal(t, "navigate", kept[0].Action)
	assert.Equal(t, "search", kept[1].Action)

	rejected := logs.FilterMessage("step rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, "elementDescription", rejected[0].ContextMap()["missing_field"])
	assert.Len(t, logs.FilterMessage("continuing with partial plan").All(), 1)
}

func TestFilterAllRejected(t *testing.T) {
	v := New(nil)
	assert.Empty(t, v.Filter([]action.Blueprint{bp("navigate", nil)}))
}
