// Package cmd assembles the roomcount command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tdemirli/roomcount-go/cmd/devices"
	"github.com/tdemirli/roomcount-go/cmd/file"
	"github.com/tdemirli/roomcount-go/cmd/realtime"
	"github.com/tdemirli/roomcount-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "roomcount",
		Short: "Estimate distinct speakers in a room from microphone or file audio",
		Long: `roomcount listens to a microphone or reads an audio file, trims the
signal down to speech, and asks a diarization sidecar how many distinct
speakers are active. The result drives building automation without cameras.`,
		Version: settings.Version,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		file.Command(settings),
		realtime.Command(settings),
		devices.Command(),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Re-unmarshal so command line flags override file values.
		return viper.Unmarshal(settings)
	}

	return rootCmd
}

// setupFlags defines flags common to every subcommand.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Diarizer.BaseURL, "diarizer", viper.GetString("diarizer.baseurl"), "Diarization sidecar base URL")
	rootCmd.PersistentFlags().IntVar(&settings.Diarizer.Timeout, "timeout", viper.GetInt("diarizer.timeout"), "Per-call diarization timeout in seconds")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("diarizer.baseurl", rootCmd.PersistentFlags().Lookup("diarizer")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("diarizer.timeout", rootCmd.PersistentFlags().Lookup("timeout")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
