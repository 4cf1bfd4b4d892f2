package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/executor"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/workflow"
	"github.com/GriffinCanCode/AgentBrowser/internal/server"
)

var errFailed = errors.New("did not succeed")

func (c *cli) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <goal>",
		Short: "Plan a goal and execute it step by step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func (c *cli) doCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "do <command>",
		Short: "Execute one natural-language command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func (c *cli) run(parent context.Context, goal string) error {
	ctx, stop := signalContext(parent)
	defer stop()

	rt, err := server.NewRuntime(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	wf := rt.Agent.Workflows
	events, unsubscribe := wf.Subscribe()

	var final *workflow.Workflow
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer unsubscribe()
		w, err := wf.Run(gctx, goal)
		final = w
		return err
	})
	g.Go(func() error {
		if !c.asJSON {
			c.printProgress(events)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if c.asJSON {
		return c.printJSON(final)
	}
	fmt.Fprintf(c.out, "Workflow %s: %s\n", final.Status, final.Goal)
	if final.Status != workflow.Completed {
		return fmt.Errorf("workflow %s %w", final.ID, errFailed)
	}
	return nil
}

// printProgress prints one line per finished step until events closes.
func (c *cli) printProgress(events <-chan executor.Event) {
	for ev := range events {
		if ev.Step == nil || ev.Step.Result == nil {
			continue
		}
		mark := "ok"
		if !ev.Step.Result.Success {
			mark = "FAILED"
		}
		fmt.Fprintf(c.out, "[%s] %s: %s\n", mark, ev.Step.Description, ev.Step.Result.Message)
	}
}

func (c *cli) do(parent context.Context, command string) error {
	ctx, stop := signalContext(parent)
	defer stop()

	rt, err := server.NewRuntime(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	res := rt.Agent.ExecuteCommand(ctx, command)
	if c.asJSON {
		if err := c.printJSON(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(c.out, "%s (%s, confidence %.2f)\n", res.Message, res.Intent.Action, res.Intent.Confidence)
	}
	if !res.Success {
		return fmt.Errorf("command %w", errFailed)
	}
	return nil
}
