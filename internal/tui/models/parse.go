package models

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// ParseHex converts hex to bytes. Accepted forms:
// - Space-separated: "9F 00 01"
// - Continuous: "9F0001"
// - Prefixed: "0x9F 0x00"
func ParseHex(s string) ([]byte, error) {
	clean := strings.Join(strings.Fields(s), "")
	clean = strings.ReplaceAll(clean, "0x", "")
	clean = strings.ReplaceAll(clean, "0X", "")
	if clean == "" {
		return nil, fmt.Errorf("empty input")
	}

	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(clean))
	}

	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %v", err)
	}
	return data, nil
}

// ParseFrequency reads a clock as plain hertz ("1000000") or with a unit
// ("12MHz", "500kHz").
func ParseFrequency(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if hz, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(hz), nil
	}

	var f physic.Frequency
	if err := f.Set(s); err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %v", s, err)
	}
	hz := f / physic.Hertz
	if f <= 0 || hz > physic.Frequency(^uint32(0)) {
		return 0, fmt.Errorf("frequency %s out of range", f)
	}
	return uint32(hz), nil
}

// ParseOnOff reads a pin state argument
func ParseOnOff(state string) (bool, error) {
	switch strings.ToLower(state) {
	case "on", "enable", "high", "true", "1":
		return true, nil
	case "off", "disable", "low", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid state: %s (valid: on, off, enable, disable, 1, 0)", state)
	}
}

// Command is one parsed console line
type Command struct {
	Name    string
	Write   []byte // spi
	ReadLen int    // spi
	ClockHz uint32 // clock
	On      bool   // prog
}

const commandHelp = `spi <hex> [readlen]   clock out <hex>, then clock in readlen bytes
clock <freq>          set the SPI clock, e.g. 8MHz or 500000
prog on|off           enable or disable the programmer outputs
sync                  resynchronize with SYNCNOP
probe                 query interface, name, command map and bus types
help                  show this list`

// ParseCommand splits a console line into a Command
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	cmd := Command{Name: strings.ToLower(fields[0])}
	args := fields[1:]

	switch cmd.Name {
	case "spi":
		if len(args) < 1 || len(args) > 2 {
			return cmd, fmt.Errorf("usage: spi <hex> [readlen]")
		}
		data, err := ParseHex(args[0])
		if err != nil {
			return cmd, err
		}
		cmd.Write = data
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return cmd, fmt.Errorf("invalid read length %q", args[1])
			}
			cmd.ReadLen = n
		}

	case "clock":
		if len(args) != 1 {
			return cmd, fmt.Errorf("usage: clock <freq>")
		}
		hz, err := ParseFrequency(args[0])
		if err != nil {
			return cmd, err
		}
		cmd.ClockHz = hz

	case "prog":
		if len(args) != 1 {
			return cmd, fmt.Errorf("usage: prog on|off")
		}
		on, err := ParseOnOff(args[0])
		if err != nil {
			return cmd, err
		}
		cmd.On = on

	case "sync", "probe", "help":
		if len(args) != 0 {
			return cmd, fmt.Errorf("%s takes no arguments", cmd.Name)
		}

	default:
		return cmd, fmt.Errorf("unknown command %q, type help", fields[0])
	}

	return cmd, nil
}
