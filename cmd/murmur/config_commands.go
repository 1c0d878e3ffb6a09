package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"murmur/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and bootstrap configuration",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a starter configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				var err error
				if target, err = config.DefaultConfigPath(); err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
			}

			written, err := config.WriteSample(target)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration written to %s\n", written)
			fmt.Fprintln(cmd.OutOrStdout(), "Edit the file to set whisper.model_path before starting the daemon.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the configuration file")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Check that the configuration loads cleanly",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration file: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "File does not exist yet; built-in defaults apply")
			}
			if cfg.Whisper.ModelPath == "" {
				fmt.Fprintln(out, "Warning: whisper.model_path is not set; transcription will fail")
			}
			fmt.Fprintln(out, "Configuration OK")
			return nil
		},
	}
}
