package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"murmur/internal/events"
	"murmur/internal/ipc"
)

const eventPollMillis = 5000

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var since uint64

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show daemon notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()

				resp, err := client.Events(ipc.EventsRequest{Since: since, Limit: 200})
				if err != nil {
					return err
				}
				for _, evt := range resp.Events {
					fmt.Fprintln(stdout, formatEvent(evt))
				}
				if !follow {
					return nil
				}

				cursor := resp.Next
				for {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					resp, err := client.Events(ipc.EventsRequest{
						Since:      cursor,
						Limit:      200,
						Wait:       true,
						WaitMillis: eventPollMillis,
					})
					if err != nil {
						return err
					}
					for _, evt := range resp.Events {
						fmt.Fprintln(stdout, formatEvent(evt))
					}
					cursor = resp.Next
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling for new notifications")
	cmd.Flags().Uint64Var(&since, "since", 0, "Start after the given sequence number")
	return cmd
}

func formatEvent(evt events.Event) string {
	ts := evt.Timestamp.Format("15:04:05")
	switch evt.Type {
	case events.TypeRecordingAdded:
		return fmt.Sprintf("%s  %-24s %s", ts, evt.Type, evt.Path)
	case events.TypeRecordingChanged:
		detail := evt.Status
		if evt.Error != "" {
			detail = fmt.Sprintf("%s (%s)", evt.Status, evt.Error)
		}
		return fmt.Sprintf("%s  %-24s %s %s", ts, evt.Type, shortID(evt.RecordingID), detail)
	case events.TypeRecordingRemoved:
		return fmt.Sprintf("%s  %-24s %s", ts, evt.Type, evt.Path)
	case events.TypeTranscriptionProgress:
		return fmt.Sprintf("%s  %-24s %s %d%%", ts, evt.Type, shortID(evt.RecordingID), evt.PercentComplete)
	case events.TypeTranscriptionCompleted:
		return fmt.Sprintf("%s  %-24s %s", ts, evt.Type, shortID(evt.RecordingID))
	case events.TypeTranscriptionError:
		return fmt.Sprintf("%s  %-24s %s %s", ts, evt.Type, shortID(evt.RecordingID), evt.Error)
	case events.TypeScanProgress:
		return fmt.Sprintf("%s  %-24s %s %d/%d", ts, evt.Type, evt.Directory, evt.Processed, evt.Total)
	case events.TypeWatcherError:
		return fmt.Sprintf("%s  %-24s %s %s", ts, evt.Type, evt.Path, evt.Error)
	default:
		return fmt.Sprintf("%s  %-24s", ts, evt.Type)
	}
}
