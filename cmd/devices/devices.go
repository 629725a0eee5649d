// Package devices implements the capture device listing command.
package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tdemirli/roomcount-go/internal/audio"
)

// Command creates the devices command for listing capture devices.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := audio.ListCaptureDevices()
			if err != nil {
				return fmt.Errorf("listing capture devices: %w", err)
			}
			if len(infos) == 0 {
				fmt.Println("No capture devices found.")
				return nil
			}
			for _, info := range infos {
				fmt.Printf("%d: %s\n", info.Index, info.Name)
			}
			return nil
		},
	}
}
