package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"murmur/internal/ipc"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change stored settings",
	}

	settingsCmd.AddCommand(newSettingsListCommand(ctx))
	settingsCmd.AddCommand(newSettingsGetCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))

	return settingsCmd
}

func newSettingsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SettingsList()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Settings) == 0 {
					fmt.Fprintln(stdout, "No settings stored")
					return nil
				}
				keys := make([]string, 0, len(resp.Settings))
				for key := range resp.Settings {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, key := range keys {
					rows = append(rows, []string{key, resp.Settings[key]})
				}
				table := renderTable([]string{"Key", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SettingGet(args[0])
				if err != nil {
					return err
				}
				if !resp.Found {
					return fmt.Errorf("no setting stored for %q", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Value)
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.SettingSave(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
				return nil
			})
		},
	}
}
