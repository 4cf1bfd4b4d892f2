package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentBrowser/internal/providers/settings"
)

func (c *cli) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change persisted settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print one setting, or list all with credentials masked",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				store, err := c.openSettings()
				if err != nil {
					return err
				}
				if len(args) == 1 {
					v, err := store.Get(args[0])
					if err != nil {
						return err
					}
					if c.asJSON {
						return c.printJSON(map[string]string{args[0]: v})
					}
					fmt.Fprintln(c.out, v)
					return nil
				}
				return c.printSettings(store.List())
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a setting, e.g. provider_keys.openai",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				store, err := c.openSettings()
				if err != nil {
					return err
				}
				return store.Set(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "reset <key>",
			Short: "Restore a setting to its default",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				store, err := c.openSettings()
				if err != nil {
					return err
				}
				return store.Reset(args[0])
			},
		},
	)
	return cmd
}

func (c *cli) openSettings() (*settings.Store, error) {
	return settings.Open(c.cfg.Storage.SettingsPath, c.logger.Component("settings"))
}

func (c *cli) printSettings(list []settings.Setting) error {
	if c.asJSON {
		return c.printJSON(list)
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tDESCRIPTION")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key, s.Value, s.Description)
	}
	return tw.Flush()
}
