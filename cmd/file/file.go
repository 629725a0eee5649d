// Package file implements the single-file analysis command.
package file

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tdemirli/roomcount-go/internal/analysis"
	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/report"
)

// Command creates the file command for analyzing a single audio file.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [input.wav]",
		Short: "Count speakers in an audio file",
		Long:  `Analyze a single WAV or FLAC recording and report the estimated number of distinct speakers with a speech timeline.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			snapshot, err := analysis.FileAnalysis(cmd.Context(), settings)
			if snapshot != nil {
				if writeErr := report.Write(settings, snapshot); writeErr != nil && err == nil {
					err = writeErr
				}
			}
			return err
		},
	}

	setupFlags(cmd, settings)
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVarP(&settings.Output.Dir, "output", "o", viper.GetString("output.dir"), "Path to output directory")
	cmd.Flags().StringVarP(&settings.Output.Format, "format", "f", viper.GetString("output.format"), "Output format: json, csv")

	_ = viper.BindPFlag("output.dir", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("output.format", cmd.Flags().Lookup("format"))
}
