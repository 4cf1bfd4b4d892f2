package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/scraper"
)

// analysisPrompts are the built-in analyzeContent types. Any other type is
// sent to the model as a free-form instruction.
var analysisPrompts = map[string]string{
	"summary":   "Summarize this page in three to five sentences.",
	"sentiment": "Classify the overall sentiment of this page as positive, negative, neutral or mixed, then justify it in one sentence.",
	"keywords":  "List the ten most important keywords of this page, comma separated.",
	"entities":  "List the named entities on this page (people, organizations, places, products), one per line with its type.",
	"questions": "List the questions a reader could answer from this page, one per line.",
}

const analysisTextLimit = 3000

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func (d *Dispatcher) html(ctx context.Context) (scripts.HTMLResult, error) {
	var res scripts.HTMLResult
	err := d.run(ctx, scripts.HTML, scripts.SelectorArgs{}, &res)
	return res, err
}

func (d *Dispatcher) extractContent(ctx context.Context, a action.ExtractContent) action.Result {
	doc, err := d.html(ctx)
	if err != nil {
		return failure("extract", err)
	}
	out, err := scraper.Extract(doc.HTML, doc.URL, a.Selector, a.Mode, d.limits)
	if err != nil {
		return failure("extract", err)
	}
	msg := fmt.Sprintf("Extracted %s content", out.Mode)
	if out.Truncated {
		msg += " (truncated)"
	}
	return action.Succeeded(msg, out)
}

func (d *Dispatcher) extractTable(ctx context.Context, a action.ExtractTable) action.Result {
	doc, err := d.html(ctx)
	if err != nil {
		return failure("extract table", err)
	}
	t, err := scraper.ExtractTable(doc.HTML, a.Selector, TableRowLimit)
	if err != nil {
		return failure("extract table", err)
	}
	return action.Succeeded(fmt.Sprintf("Extracted table with %d of %d rows", len(t.Rows), t.TotalRows), t)
}

func (d *Dispatcher) screenshot(ctx context.Context, a action.Screenshot) action.Result {
	data, err := d.page.Screenshot(ctx)
	if err != nil {
		return failure("screenshot", err)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return action.Failed(fmt.Sprintf("screenshot failed: capture is %s, not an image", mt.String()))
	}
	if err := os.MkdirAll(d.screenshotDir, 0o755); err != nil {
		return failure("screenshot", err)
	}
	name := d.now().Format("20060102-150405.000") + "-" + slug(a.Description) + mt.Extension()
	path := filepath.Join(d.screenshotDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return failure("screenshot", err)
	}
	d.logger.Info("screenshot saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return action.Succeeded("Screenshot saved to "+path, map[string]any{
		"path":        path,
		"mimeType":    mt.String(),
		"bytes":       len(data),
		"description": a.Description,
	})
}

func (d *Dispatcher) analyze(ctx context.Context, a action.AnalyzeContent) action.Result {
	if d.model == nil || d.extractor == nil {
		return action.Failed("analyzeContent failed: " + llm.ErrNotConfigured.Error())
	}
	pc, err := d.extractor.Extract(ctx)
	if err != nil {
		return failure("analyze", err)
	}
	kind := strings.ToLower(strings.TrimSpace(a.AnalysisType))
	instruction, ok := analysisPrompts[kind]
	if !ok {
		instruction = a.AnalysisType
	}

	reply, err := d.model.Complete(ctx, instruction+"\n\n"+DescribePage(pc), []llm.Message{
		{Role: llm.RoleSystem, Content: "You analyse web pages for a browsing assistant. Answer only from the page content given."},
	})
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) || errors.Is(err, llm.ErrInvalidCredential) {
			return action.Failed("analyzeContent failed: " + err.Error())
		}
		return failure("analyze", err)
	}
	return action.Succeeded("Analysis complete", map[string]any{
		"analysisType": a.AnalysisType,
		"url":          pc.URL,
		"analysis":     strings.TrimSpace(reply),
	})
}

// DescribePage renders a context as prompt text: title, URL, description,
// headings and a bounded slice of the visible text.
func DescribePage(pc *page.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Page: %s\nURL: %s\n", pc.Title, pc.URL)
	if pc.Meta.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", pc.Meta.Description)
	}
	if len(pc.Headings) > 0 {
		b.WriteString("Headings:\n")
		for _, h := range pc.Headings {
			fmt.Fprintf(&b, "- %s\n", h.Text)
		}
	}
	if pc.Text != "" {
		text, _ := scraper.Truncate(pc.Text, analysisTextLimit)
		fmt.Fprintf(&b, "Content:\n%s\n", text)
	}
	return b.String()
}

func slug(s string) string {
	s = strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(s) > 40 {
		s = strings.TrimRight(s[:40], "-")
	}
	if s == "" {
		return "screenshot"
	}
	return s
}
