package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		socketFlag string
		configFlag string
	)
	ctx := newCommandContext(&socketFlag, &configFlag)

	rootCmd := &cobra.Command{
		Use:   "murmur",
		Short: "Manage the murmur transcription daemon",
		Long: "murmur controls a background daemon that watches directories for audio\n" +
			"recordings and transcribes them with a local whisper engine.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&socketFlag, "socket", "", "Path to the murmur daemon socket")
	flags.StringVarP(&configFlag, "config", "c", "", "Path to the configuration file")

	subcommands := newDaemonCommands(ctx)
	subcommands = append(subcommands,
		newRecordingsCommand(ctx),
		newTranscribeCommand(ctx),
		newWatchCommand(ctx),
		newSettingsCommand(ctx),
		newEventsCommand(ctx),
		newLogsCommand(ctx),
		newConfigCommand(),
	)
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}
