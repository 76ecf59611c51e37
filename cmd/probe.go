/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/allbin/go-serprog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// probeReport is the yaml shape of probe output
type probeReport struct {
	Device   string            `yaml:"device"`
	Info     serprog.ProbeInfo `yaml:",inline"`
	Commands []string          `yaml:"commands"`
}

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Query the programmer's interface, name and capabilities",
	Long: `Synchronize with the programmer and query its interface version,
name, supported commands, serial buffer size and bus types.

Examples:
  serprog probe
  serprog probe --device /dev/ttyACM1 --output yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		prog, err := openProgrammer()
		if err != nil {
			return err
		}
		defer prog.Close()

		info, err := prog.Probe()
		if err != nil {
			return fmt.Errorf("probe failed: %w", err)
		}

		report := probeReport{
			Device:   prog.Channel().Device(),
			Info:     *info,
			Commands: opcodeNames(info.Commands()),
		}

		switch strings.ToLower(output) {
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("encoding yaml: %w", err)
			}
			return enc.Close()
		default:
			renderProbe(report)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringP("output", "o", "text", "Output format: text, yaml")
}

func opcodeNames(ops []serprog.Opcode) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}

func renderProbe(r probeReport) {
	fmt.Printf("%s %s\n\n", successStyle.Render("✓"), infoStyle.Render("Programmer on "+r.Device))
	fmt.Printf("  Interface:     %d\n", r.Info.Interface)
	if r.Info.Name != "" {
		fmt.Printf("  Name:          %s\n", r.Info.Name)
	}
	if r.Info.SerialBuffer != 0 {
		fmt.Printf("  Serial buffer: %d bytes\n", r.Info.SerialBuffer)
	}
	fmt.Printf("  Bus types:     %s\n", r.Info.BusTypes)
	fmt.Println("\nSupported commands:")
	for _, name := range r.Commands {
		fmt.Printf("  %s\n", name)
	}
	if !r.Info.Supports(serprog.CmdOSPIOp) {
		fmt.Println(mutedStyle.Render("\nThis programmer does not support O_SPIOP"))
	}
}
