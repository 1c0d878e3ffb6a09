package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"murmur/internal/ipc"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage watched directories",
	}

	watchCmd.AddCommand(newWatchAddCommand(ctx))
	watchCmd.AddCommand(newWatchRemoveCommand(ctx))
	watchCmd.AddCommand(newWatchListCommand(ctx))

	return watchCmd
}

func newWatchAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <directory>",
		Short: "Watch a directory for new audio files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.WatchAdd(absPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", absPath)
				return nil
			})
		},
	}
}

func newWatchRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <directory>",
		Short: "Stop watching a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.WatchRemove(absPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stopped watching %s\n", absPath)
				return nil
			})
		},
	}
}

func newWatchListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List watched directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.WatchList()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Paths) == 0 {
					fmt.Fprintln(stdout, "No directories watched")
					return nil
				}
				for _, path := range resp.Paths {
					fmt.Fprintln(stdout, path)
				}
				return nil
			})
		},
	}
}
