package browser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
)

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// RunScript evaluates code in the active tab and decodes its JSON value
// into out. A nil out discards the value.
func (b *Browser) RunScript(ctx context.Context, code string, out any) error {
	var raw []byte
	if err := b.do(ctx, chromedp.Evaluate(code, &raw, awaitPromise)); err != nil {
		b.logger.Debug("script failed", zap.String("script", string(scripts.NameOf(code))), zap.Error(err))
		return fmt.Errorf("script %s: %w", scripts.NameOf(code), err)
	}
	if out == nil {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", scripts.NameOf(code), err)
	}
	return nil
}
