/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/allbin/go-serprog/internal/tui/models"
	"github.com/spf13/cobra"
)

// spiCmd represents the spi command
var spiCmd = &cobra.Command{
	Use:   "spi <hex>...",
	Short: "Run one SPI operation",
	Long: `Assert chip select, clock out the given bytes, clock in --read bytes
and release chip select, as one O_SPIOP command.

Hex may be continuous or space separated, with or without 0x prefixes.

Examples:
  serprog spi 9f --read 3          # JEDEC ID
  serprog spi 05 --read 1          # status register
  serprog spi 06                   # write enable
  serprog spi 03 00 00 00 -r 256 --raw > page0.bin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		readCount, _ := cmd.Flags().GetInt("read")
		raw, _ := cmd.Flags().GetBool("raw")

		write, err := models.ParseHex(strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("invalid hex data: %w", err)
		}

		prog, err := openProgrammer()
		if err != nil {
			return err
		}
		defer prog.Close()

		reply, err := prog.SPITransaction(write, readCount)
		if err != nil {
			return fmt.Errorf("SPI operation failed: %w", err)
		}

		if raw {
			_, err := os.Stdout.Write(reply)
			return err
		}

		fmt.Printf("%s wrote %d, read %d bytes\n", successStyle.Render("✓"), len(write), len(reply))
		if len(reply) > 0 {
			fmt.Print(hexDump(reply))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(spiCmd)

	spiCmd.Flags().IntP("read", "r", 0, "Number of bytes to read after writing")
	spiCmd.Flags().Bool("raw", false, "Write the bytes read to stdout unformatted")
}

// hexDump formats data 16 bytes per line with offsets and printable ASCII
func hexDump(data []byte) string {
	var sb strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		line := data[off:end]

		fmt.Fprintf(&sb, "%08x  %-47s  ", off, fmt.Sprintf("% x", line))
		for _, b := range line {
			if b >= 32 && b <= 126 {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
