package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
)

// cli holds state shared by every subcommand.
type cli struct {
	envFile  string
	logLevel string
	dev      bool
	asJSON   bool

	cfg    *config.Config
	logger *logging.Logger
	out    io.Writer
}

func newRootCommand() *cobra.Command {
	c := &cli{out: os.Stdout}

	root := &cobra.Command{
		Use:           "agentbrowser",
		Short:         "Drive a browser with natural-language commands",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	c.out = root.OutOrStdout()

	flags := root.PersistentFlags()
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before configuration (optional)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	flags.BoolVar(&c.dev, "dev", false, "development logging")
	flags.BoolVar(&c.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		c.serveCommand(),
		c.runCommand(),
		c.doCommand(),
		c.settingsCommand(),
		c.inspectCommand(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	c.out = cmd.OutOrStdout()
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", c.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.dev {
		cfg.Logging.Development = true
	}
	cfg.ResolvePaths()
	c.cfg = cfg
	c.logger = logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// printJSON writes v indented.
func (c *cli) printJSON(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}
