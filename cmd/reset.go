/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/allbin/go-serprog"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "USB-reset the programmer",
	Long: `Perform a USB-level reset of the programmer. This can recover a
programmer that stopped answering (the transport reports it unresponsive)
without physically unplugging it.

The programmer re-enumerates after the reset; the device path may change.

Requirements:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  sudo serprog reset
  sudo serprog reset --device /dev/ttyACM1`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !serprog.IsUSBResetAvailable() {
			fail("usbreset utility not available\nInstall with: sudo apt-get install usbutils")
		}

		device := deviceName()
		fmt.Printf("%s Resetting USB device behind %s\n", infoStyle.Render("⚡"), device)

		if err := serprog.ResetUSBDevice(device); err != nil {
			switch {
			case errors.Is(err, serprog.ErrUSBInfoNotAvailable):
				fail("%v\n%s does not appear to be a USB device", err, device)
			case errors.Is(err, serprog.ErrUnsupported):
				fail("USB reset needs Linux sysfs: %v", err)
			}
			fail("%v", err)
		}

		fmt.Printf("%s USB device reset successfully\n", successStyle.Render("✓"))
		fmt.Println(mutedStyle.Render("Use 'serprog list --table' to see the updated device list"))
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
