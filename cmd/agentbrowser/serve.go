package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/executor"
	"github.com/GriffinCanCode/AgentBrowser/internal/server"
)

func (c *cli) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Launch the browser and serve the HTTP and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				host, port, ok := strings.Cut(addr, ":")
				if !ok {
					return fmt.Errorf("--addr must be host:port, got %q", addr)
				}
				c.cfg.Server.Host, c.cfg.Server.Port = host, port
			}
			return c.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (host:port), overrides AGENTBROWSER_HOST/PORT")
	return cmd
}

func (c *cli) serve(parent context.Context) error {
	ctx, stop := signalContext(parent)
	defer stop()

	rt, err := server.NewRuntime(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.New(rt).Run(gctx) })
	g.Go(func() error {
		logProgress(gctx, rt.Agent.Workflows, c.logger.Component("workflow"))
		return nil
	})
	return g.Wait()
}

// logProgress logs workflow transitions until ctx ends.
func logProgress(ctx context.Context, wf *executor.Controller, log *zap.Logger) {
	events, unsubscribe := wf.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch {
			case ev.Workflow != nil:
				log.Info("workflow "+string(ev.Workflow.Status),
					zap.String("workflow_id", ev.Workflow.ID),
					zap.String("goal", ev.Workflow.Goal),
				)
			case ev.Step != nil:
				log.Debug("step "+string(ev.Step.Status),
					zap.String("workflow_id", ev.WorkflowID),
					zap.String("step", ev.Step.Description),
				)
			}
		}
	}
}
