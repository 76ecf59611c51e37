/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/allbin/go-serprog"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show how the programmer device is chosen and its USB details",
	Long: `Show the device the other commands would open, its autodetection
score and, for USB programmers on Linux, the USB metadata from sysfs.

Examples:
  serprog info
  serprog info --device auto`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		device := deviceName()
		fmt.Printf("Programmer device: %s\n\n", infoStyle.Render(device))

		candidates, err := serprog.ListCandidates()
		if err != nil {
			fail("Error listing ports: %v", err)
		}
		for _, c := range candidates {
			if c.Name == device {
				fmt.Printf("  Driver:       %s\n", c.Path)
				fmt.Printf("  Score:        %d\n", c.Score)
			}
		}

		usb, err := serprog.GetUSBInfo(device)
		if err != nil {
			fmt.Println(mutedStyle.Render("\nNo USB metadata available"))
			return
		}

		fmt.Println("\nUSB Device Information:")
		fmt.Printf("  Vendor ID:    %s\n", usb.VendorID)
		fmt.Printf("  Product ID:   %s\n", usb.ProductID)
		if usb.SerialNumber != "" {
			fmt.Printf("  Serial:       %s\n", usb.SerialNumber)
		}
		if usb.Product != "" {
			fmt.Printf("  Product:      %s\n", usb.Product)
		}
		fmt.Printf("  Bus:          %s\n", usb.BusNumber)
		fmt.Printf("  Device:       %s\n", usb.DeviceNumber)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
