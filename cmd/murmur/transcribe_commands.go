package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"murmur/internal/ipc"
	langpkg "murmur/internal/language"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	transcribeCmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Queue and inspect transcription jobs",
	}

	transcribeCmd.AddCommand(newTranscribeStartCommand(ctx))
	transcribeCmd.AddCommand(newTranscribeCancelCommand(ctx))
	transcribeCmd.AddCommand(newTranscribeStatusCommand(ctx))
	transcribeCmd.AddCommand(newTranscribeShowCommand(ctx))
	transcribeCmd.AddCommand(newTranscribeSaveCommand(ctx))

	return transcribeCmd
}

func newTranscribeStartCommand(ctx *commandContext) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "start <recording-id>",
		Short: "Queue a recording for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := ""
			if trimmed := strings.TrimSpace(language); trimmed != "" {
				lang = langpkg.Normalize(trimmed)
				if lang == "" || !langpkg.IsSupported(lang) {
					return fmt.Errorf("unsupported language %q", trimmed)
				}
			}
			return ctx.withClient(func(client *ipc.Client) error {
				id := strings.TrimSpace(args[0])
				if _, err := client.TranscribeStart(id, "", lang); err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if lang != "" {
					fmt.Fprintf(stdout, "Queued recording %s for %s transcription\n", shortID(id), langpkg.DisplayName(lang))
				} else {
					fmt.Fprintf(stdout, "Queued recording %s for transcription\n", shortID(id))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "Override the transcription language (code or name, e.g. en, french)")
	return cmd
}

func newTranscribeCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <recording-id>",
		Short: "Cancel a queued or active transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id := strings.TrimSpace(args[0])
				if _, err := client.TranscribeCancel(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled transcription for %s\n", shortID(id))
				return nil
			})
		},
	}
}

func newTranscribeStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <recording-id>",
		Short: "Show transcription status for a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id := strings.TrimSpace(args[0])
				status, err := client.TranscribeStatus(id)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Status: %s\n", status.Status)
				if status.Error != "" {
					fmt.Fprintf(stdout, "Error: %s\n", status.Error)
				}
				if status.Status == "processing" {
					progress, err := client.TranscribeProgress(id)
					if err != nil {
						return err
					}
					fmt.Fprintf(stdout, "Progress: %d%%\n", progress.PercentComplete)
				}
				return nil
			})
		},
	}
}

func newTranscribeShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var withSegments bool

	cmd := &cobra.Command{
		Use:   "show <recording-id>",
		Short: "Print the transcript for a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id := strings.TrimSpace(args[0])
				resp, err := client.TranscriptionGet(id)
				if err != nil {
					return err
				}
				if resp.Transcription == nil {
					return fmt.Errorf("no transcript for recording %s", args[0])
				}
				if asJSON {
					return writeJSON(cmd, resp.Transcription)
				}
				stdout := cmd.OutOrStdout()
				if withSegments {
					rows := make([][]string, 0, len(resp.Transcription.Segments))
					for _, seg := range resp.Transcription.Segments {
						rows = append(rows, []string{
							formatClock(seg.StartTime),
							formatClock(seg.EndTime),
							seg.Text,
						})
					}
					table := renderTable(
						[]string{"Start", "End", "Text"},
						rows,
						[]columnAlignment{alignRight, alignRight, alignLeft},
					)
					fmt.Fprintln(stdout, table)
					return nil
				}
				fmt.Fprintln(stdout, resp.Transcription.Content)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of plain text")
	cmd.Flags().BoolVar(&withSegments, "segments", false, "Show timed segments instead of joined text")
	return cmd
}

func newTranscribeSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save <recording-id> <content>",
		Short: "Replace the stored transcript content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id := strings.TrimSpace(args[0])
				if _, err := client.TranscriptionSave(id, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved transcript for %s\n", shortID(id))
				return nil
			})
		},
	}
}
