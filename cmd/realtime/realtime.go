// Package realtime implements the live capture command.
package realtime

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tdemirli/roomcount-go/internal/analysis"
	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/report"
)

// Command creates the realtime command for live speaker counting.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "realtime",
		Short:   "Count speakers from live microphone capture",
		Long:    `Capture audio from the configured input device and continuously estimate the number of distinct speakers until stopped.`,
		Aliases: []string{"live"},
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := analysis.RealtimeAnalysis(settings)
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
	cmd.Flags().StringVar(&settings.Audio.Source, "source", viper.GetString("audio.source"), "Audio capture device name")
	cmd.Flags().IntVar(&settings.Realtime.Duration, "duration", viper.GetInt("realtime.duration"), "Capture duration in seconds, 0 for unbounded")
	cmd.Flags().IntVar(&settings.Realtime.Interval, "interval", viper.GetInt("realtime.interval"), "Analysis interval in seconds")
	cmd.Flags().StringVarP(&settings.Output.Dir, "output", "o", viper.GetString("output.dir"), "Path to output directory")
	cmd.Flags().StringVarP(&settings.Output.Format, "format", "f", viper.GetString("output.format"), "Output format: json, csv")

	_ = viper.BindPFlag("audio.source", cmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("realtime.duration", cmd.Flags().Lookup("duration"))
	_ = viper.BindPFlag("realtime.interval", cmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("output.dir", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("output.format", cmd.Flags().Lookup("format"))
}
