/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// JEDEC SPI NOR commands
const (
	flashCmdReadID = 0x9F
	flashCmdRead   = 0x03
)

// maxReadChunk bounds one O_SPIOP of flash read; the programmer streams the
// reply, so this only limits memory per exchange
const maxReadChunk = 64 * 1024

var knownFlashIDs = map[[3]byte]string{
	{0xEF, 0x40, 0x18}: "Winbond W25Q128JV",
	{0xEF, 0x40, 0x17}: "Winbond W25Q64JV",
	{0xEF, 0x40, 0x16}: "Winbond W25Q32JV",
	{0xEF, 0x70, 0x18}: "Winbond W25Q128JVIM",
	{0xC2, 0x20, 0x17}: "Macronix MX25L6406E",
	{0xC2, 0x20, 0x18}: "Macronix MX25L12835F",
	{0x20, 0xBA, 0x16}: "Micron N25Q032",
	{0xC8, 0x40, 0x18}: "GigaDevice GD25Q128",
}

// flashCmd groups SPI NOR flash helpers
var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "SPI NOR flash helpers",
	Long: `Talk to an SPI NOR flash through the programmer, using the programmer
as a periph.io SPI port.`,
}

// flashIDCmd represents the flash id command
var flashIDCmd = &cobra.Command{
	Use:   "id",
	Short: "Read the JEDEC ID of the attached flash",
	Long: `Enable the programmer outputs, send RDID (0x9F) and print the
manufacturer and device ID.

Examples:
  serprog flash id
  serprog flash id --freq 1MHz`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var id [3]byte
		err := withFlash(cmd, func(conn spi.Conn) (err error) {
			id, err = readFlashID(conn)
			return err
		})
		if err != nil {
			return fmt.Errorf("reading JEDEC ID: %w", err)
		}

		if name, ok := knownFlashIDs[id]; ok {
			fmt.Printf("%s JEDEC ID %X: %s\n", successStyle.Render("✓"), id[:], name)
			return nil
		}
		if id == [3]byte{0xFF, 0xFF, 0xFF} || id == [3]byte{} {
			return fmt.Errorf("no flash answered (JEDEC ID %X)", id[:])
		}
		fmt.Printf("%s JEDEC ID %X (unknown part)\n", infoStyle.Render("?"), id[:])
		return nil
	},
}

// flashReadCmd represents the flash read command
var flashReadCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "Read flash contents to a file",
	Long: `Read --length bytes starting at --addr with READ (0x03) and write them
to file ("-" for stdout).

Examples:
  serprog flash read backup.bin --length 16777216
  serprog flash read - --addr 0x1000 --length 256 | xxd`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetUint32("addr")
		length, _ := cmd.Flags().GetUint32("length")
		if length == 0 {
			return errors.New("--length is required")
		}
		if uint64(addr)+uint64(length) > 1<<24 {
			return fmt.Errorf("READ (0x03) addresses 24 bits; %d bytes at 0x%06X run past 16 MiB", length, addr)
		}

		var data []byte
		err := withFlash(cmd, func(conn spi.Conn) (err error) {
			data, err = readFlash(conn, int(addr), int(length))
			return err
		})
		if err != nil {
			return fmt.Errorf("reading flash: %w", err)
		}

		// The file is only created once the image is in hand
		if args[0] == "-" {
			_, err := os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return err
		}
		fmt.Printf("%s read %d bytes from 0x%06X to %s\n", successStyle.Render("✓"), len(data), addr, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flashCmd)
	flashCmd.AddCommand(flashIDCmd)
	flashCmd.AddCommand(flashReadCmd)

	flashCmd.PersistentFlags().String("freq", "", "SPI clock to request (default: leave the programmer's clock)")
	flashReadCmd.Flags().Uint32("addr", 0, "Start address")
	flashReadCmd.Flags().Uint32("length", 0, "Number of bytes to read")
}

// withFlash opens the programmer as an SPI port and drives the pins for the
// duration of fn
func withFlash(cmd *cobra.Command, fn func(conn spi.Conn) error) error {
	var freq physic.Frequency
	if s, _ := cmd.Flags().GetString("freq"); s != "" {
		if err := freq.Set(s); err != nil {
			return fmt.Errorf("invalid --freq: %w", err)
		}
	}

	prog, err := openProgrammer()
	if err != nil {
		return err
	}
	port := prog.SPIPort()
	defer port.Close()

	conn, err := port.Connect(freq, spi.Mode0, 8)
	if err != nil {
		return err
	}
	glog.V(1).Infof("connected to %s", conn)

	if err := prog.EnableProg(); err != nil {
		return err
	}
	defer prog.DisableProg()

	return fn(conn)
}

func readFlashID(conn spi.Conn) (id [3]byte, err error) {
	if err = conn.Tx([]byte{flashCmdReadID}, id[:]); err != nil {
		return
	}
	return id, nil
}

// readFlash splits the read into operations of at most maxReadChunk bytes
func readFlash(conn spi.Conn, addr, n int) ([]byte, error) {
	out := make([]byte, n)
	off := 0
	for remaining := n; remaining > 0; {
		chunk := min(remaining, maxReadChunk)
		cmd := []byte{flashCmdRead, byte(addr >> 16), byte(addr >> 8), byte(addr)}

		if err := conn.Tx(cmd, out[off:off+chunk]); err != nil {
			return nil, fmt.Errorf("read at 0x%06X: %w", addr, err)
		}

		addr += chunk
		off += chunk
		remaining -= chunk
	}
	return out, nil
}
