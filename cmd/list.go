/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/allbin/go-serprog"
	"github.com/allbin/go-serprog/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

const (
	columnKeyDevice   = "device"
	columnKeyDriver   = "driver"
	columnKeyScore    = "score"
	columnKeySelected = "selected"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial ports that may host a programmer",
	Long: `List serial ports together with the driver behind them and the score
autodetection gives them.

Scores:
  4  USB serial converter (usbser, usb-serial)
  3  other USB device (e.g. cdc_acm)
  2  unrecognized driver
  1  on-board serial port

"serprog --device auto" picks the highest score; the first port wins ties.`,
	Run: func(cmd *cobra.Command, args []string) {
		candidates, err := serprog.ListCandidates()
		if err != nil {
			fail("Error listing ports: %v", err)
		}

		if len(candidates) == 0 {
			fmt.Println("No serial ports found")
			fmt.Println(mutedStyle.Render("Default device: " + serprog.DefaultDevice()))
			return
		}

		selected := serprog.SelectDevice(candidates, serprog.DefaultDevice())

		tableFormat, _ := cmd.Flags().GetBool("table")
		if tableFormat {
			renderTable(candidates, selected)
		} else {
			renderSimple(candidates)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// renderTable renders the candidates with bubble-table, marking the one
// autodetection would pick
func renderTable(candidates []serprog.Candidate, selected string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(candidates))

	columns := []table.Column{
		table.NewColumn(columnKeyDevice, "Device", 16),
		table.NewColumn(columnKeyDriver, "Driver", 32),
		table.NewColumn(columnKeyScore, "Score", 7),
		table.NewColumn(columnKeySelected, "Auto", 6),
	}

	rows := make([]table.Row, 0, len(candidates))
	for _, c := range candidates {
		data := table.RowData{
			columnKeyDevice: c.Name,
			columnKeyDriver: c.Path,
			columnKeyScore:  strconv.Itoa(c.Score),
		}
		row := table.NewRow(data)
		if c.Name == selected {
			data[columnKeySelected] = "✓"
			row = table.NewRow(data).WithStyle(lipgloss.NewStyle().Foreground(styles.Green).Bold(true))
		}
		rows = append(rows, row)
	}

	t := table.New(columns).
		WithRows(rows).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(styles.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left).BorderForeground(styles.Surface2))

	fmt.Println(t.View())
}

// renderSimple prints one port per line
func renderSimple(candidates []serprog.Candidate) {
	for _, c := range candidates {
		fmt.Println(c.Name)
	}
}
