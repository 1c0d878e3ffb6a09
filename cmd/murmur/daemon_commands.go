package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/ipc"
)

const daemonStartTimeout = 10 * time.Second

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the murmur daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if client, err := ctx.dialClient(); err == nil {
				client.Close()
				fmt.Fprintln(stdout, "Daemon is already running")
				return nil
			}

			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Starting daemon...")
			if err := launchDaemon(ctx, exe); err != nil {
				return err
			}
			if err := waitForSocket(ctx, daemonStartTimeout); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the murmur daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.dialClient()
			if err != nil {
				fmt.Fprintln(stdout, "Daemon is not running; nothing to stop")
				return nil
			}
			defer client.Close()
			if _, err := client.Stop(); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				runningKind := statusError
				runningMessage := "stopped"
				if status.Running {
					runningKind = statusOK
					runningMessage = fmt.Sprintf("pid %d", status.PID)
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, runningMessage, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Queue length", statusInfo, fmt.Sprintf("%d", status.QueueLength), colorize))

				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Watched Directories", colorize) {
					fmt.Fprintln(stdout, line)
				}
				if len(status.WatchedDirs) == 0 {
					fmt.Fprintln(stdout, "  (none)")
				}
				for _, dir := range status.WatchedDirs {
					fmt.Fprintln(stdout, renderStatusLine(filepath.Base(dir), statusOK, dir, colorize))
				}

				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Recordings", colorize) {
					fmt.Fprintln(stdout, line)
				}
				rows := buildStatsRows(status.Stats)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "No recordings tracked")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprint(stdout, table)
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func buildStatsRows(stats map[string]int) [][]string {
	keys := make([]string, 0, len(stats))
	for key, count := range stats {
		if count == 0 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func daemonExecutable() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	sibling := filepath.Join(filepath.Dir(self), "murmurd")
	if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
		return sibling, nil
	}
	path, err := exec.LookPath("murmurd")
	if err != nil {
		return "", fmt.Errorf("locate murmurd: %w", err)
	}
	return path, nil
}

func launchDaemon(ctx *commandContext, exe string) error {
	args := make([]string, 0, 2)
	if ctx.configFlag != nil {
		if cfgPath := strings.TrimSpace(*ctx.configFlag); cfgPath != "" {
			args = append(args, "--config", cfgPath)
		}
	}
	cmd := exec.Command(exe, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return cmd.Process.Release()
}

func waitForSocket(ctx *commandContext, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ctx.dialClient()
		if err == nil {
			client.Close()
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not become ready within %s", timeout)
}
