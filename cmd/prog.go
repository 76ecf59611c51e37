/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/allbin/go-serprog/internal/tui/models"
	"github.com/spf13/cobra"
)

// progCmd represents the prog command
var progCmd = &cobra.Command{
	Use:   "prog <state>",
	Short: "Enable or disable the programmer's output drivers",
	Long: `Drive the programmer's SPI pins (on) or release them to input mode
(off), so the target can run from its own flash.

Examples:
  serprog prog on
  serprog prog off

Valid states: on, off, enable, disable, high, low, true, false, 1, 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := models.ParseOnOff(args[0])
		if err != nil {
			return err
		}

		prog, err := openProgrammer()
		if err != nil {
			return err
		}
		defer prog.Close()

		state := "off"
		if on {
			state = "on"
			err = prog.EnableProg()
		} else {
			err = prog.DisableProg()
		}
		if err != nil {
			return fmt.Errorf("setting prog %s: %w", state, err)
		}

		fmt.Printf("%s prog %s on %s\n", successStyle.Render("✓"), state, prog.Channel().Device())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(progCmd)
}
