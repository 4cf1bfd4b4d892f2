package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/http/client"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/scraper"
)

func (c *cli) inspectCommand() *cobra.Command {
	var mode, selector string
	cmd := &cobra.Command{
		Use:   "inspect <url|file>",
		Short: "Print the page context or an extraction of a page without launching a browser",
		Long: "Fetches a URL through the shared HTTP client (or reads a local HTML file), decodes its\n" +
			"charset and prints the page context the agent would see. With --mode the named\n" +
			"extraction (" + strings.Join(scraper.Modes, ", ") + ") is printed instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if mode == "" && selector == "" {
				pc, err := scraper.ParseContext(*snap, scraper.DefaultLimits, time.Now())
				if err != nil {
					return err
				}
				return c.printJSON(pc)
			}
			out, err := scraper.Extract(snap.HTML, snap.URL, selector, mode, scraper.DefaultLimits)
			if err != nil {
				return err
			}
			return c.printJSON(out)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "extraction mode instead of the page context")
	cmd.Flags().StringVar(&selector, "selector", "", "CSS selector scoping the extraction")
	return cmd
}

// load fetches target when it is an http(s) URL and reads it from disk
// otherwise.
func (c *cli) load(ctx context.Context, target string) (*page.Snapshot, error) {
	if action.IsHTTPURL(target) {
		cfg := client.DefaultConfig()
		cfg.Name = "inspect"
		f := browser.NewFetcher(client.New(cfg, c.logger.Component("http")), c.logger.Component("fetch"))
		doc, err := f.Fetch(ctx, target)
		if err != nil {
			return nil, err
		}
		return &page.Snapshot{URL: doc.URL, HTML: doc.HTML}, nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	html, err := scraper.Decode(data, "")
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}
	return &page.Snapshot{URL: "file://" + filepath.ToSlash(abs), HTML: html}, nil
}
