/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/allbin/go-serprog/internal/tui/components"
	"github.com/allbin/go-serprog/internal/tui/models"
	"github.com/spf13/cobra"
)

// clockCmd represents the clock command
var clockCmd = &cobra.Command{
	Use:   "clock <freq>",
	Short: "Set the SPI clock",
	Long: `Request an SPI clock frequency. The programmer applies the closest
frequency it supports and reports it back.

Examples:
  serprog clock 8MHz
  serprog clock 500kHz
  serprog clock 1000000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hz, err := models.ParseFrequency(args[0])
		if err != nil {
			return err
		}

		prog, err := openProgrammer()
		if err != nil {
			return err
		}
		defer prog.Close()

		actual := prog.SetSPIClock(hz)
		if actual == 0 {
			return fmt.Errorf("programmer did not accept %s", components.FormatClock(hz))
		}

		fmt.Printf("%s SPI clock set to %s", successStyle.Render("✓"), components.FormatClock(actual))
		if actual != hz {
			fmt.Print(mutedStyle.Render(fmt.Sprintf(" (requested %s)", components.FormatClock(hz))))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clockCmd)
}
