package serprog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"
)

const (
	syncAttempts = 3
	syncWindow   = 4 // bytes examined per attempt for the NAK, ACK pair
)

// BusType is the serprog bus type bitmask
type BusType byte

const (
	BusParallel BusType = 1 << 0
	BusLPC      BusType = 1 << 1
	BusFWH      BusType = 1 << 2
	BusSPI      BusType = 1 << 3
)

func (b BusType) String() string {
	var names []string
	if b&BusParallel != 0 {
		names = append(names, "parallel")
	}
	if b&BusLPC != 0 {
		names = append(names, "LPC")
	}
	if b&BusFWH != 0 {
		names = append(names, "FWH")
	}
	if b&BusSPI != 0 {
		names = append(names, "SPI")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// MarshalYAML renders the mask as its names
func (b BusType) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// ProbeInfo describes a programmer as reported by its query commands
type ProbeInfo struct {
	Interface    uint16   `yaml:"interface"`
	Name         string   `yaml:"name"`
	CommandMap   [32]byte `yaml:"-"`
	SerialBuffer uint16   `yaml:"serial_buffer,omitempty"`
	BusTypes     BusType  `yaml:"bus_types"`
}

// Supports reports whether op is set in the command bitmap
func (i *ProbeInfo) Supports(op Opcode) bool {
	return i.CommandMap[op/8]&(1<<(op%8)) != 0
}

// Commands lists the supported opcodes
func (i *ProbeInfo) Commands() []Opcode {
	var ops []Opcode
	for op := 0; op < len(i.CommandMap)*8; op++ {
		if i.Supports(Opcode(op)) {
			ops = append(ops, Opcode(op))
		}
	}
	return ops
}

// Synchronize sends SYNCNOP until the programmer answers NAK followed by ACK,
// skipping stale bytes left in the link.
func (p *Programmer) Synchronize() error {
	for attempt := 1; attempt <= syncAttempts; attempt++ {
		if err := p.ch.Write([]byte{byte(CmdSyncNOP)}); err != nil {
			return fmt.Errorf("%w: %w", ErrSyncFailed, err)
		}

		prevNAK := false
		for i := 0; i < syncWindow; i++ {
			b, err := p.ch.Read(1)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSyncFailed, err)
			}
			if prevNAK && b[0] == ACK {
				glog.V(1).Infof("synchronized with %s after %d attempt(s)", p.ch.Device(), attempt)
				return nil
			}
			prevNAK = b[0] == NAK
		}
		glog.V(2).Infof("sync attempt %d did not see NAK, ACK", attempt)
	}
	return ErrSyncFailed
}

// Probe synchronizes and queries interface version, name, command map,
// serial buffer size and bus types. Optional queries the programmer rejects
// are left zero.
func (p *Programmer) Probe() (*ProbeInfo, error) {
	if err := p.Synchronize(); err != nil {
		return nil, err
	}

	info := &ProbeInfo{}

	reply, err := p.SendCommand(CmdQIface, nil, 2)
	if err != nil {
		return nil, err
	}
	info.Interface = binary.LittleEndian.Uint16(reply)
	if info.Interface != 1 {
		return nil, fmt.Errorf("%w: unsupported interface version %d", ErrProtocolViolation, info.Interface)
	}

	reply, err = p.SendCommand(CmdQCmdMap, nil, len(info.CommandMap))
	if err != nil {
		return nil, err
	}
	copy(info.CommandMap[:], reply)

	if info.Supports(CmdQPgmName) {
		reply, err = p.SendCommand(CmdQPgmName, nil, 16)
		if err != nil && !errors.Is(err, ErrCommandRejected) {
			return nil, err
		}
		if err == nil {
			info.Name = string(bytes.TrimRight(reply, "\x00"))
		}
	}

	if info.Supports(CmdQSerBuf) {
		reply, err = p.SendCommand(CmdQSerBuf, nil, 2)
		if err != nil && !errors.Is(err, ErrCommandRejected) {
			return nil, err
		}
		if err == nil {
			info.SerialBuffer = binary.LittleEndian.Uint16(reply)
		}
	}

	if info.Supports(CmdQBusType) {
		reply, err = p.SendCommand(CmdQBusType, nil, 1)
		if err != nil && !errors.Is(err, ErrCommandRejected) {
			return nil, err
		}
		if err == nil {
			info.BusTypes = BusType(reply[0])
		}
	}

	return info, nil
}

// SetBusType selects the bus(es) the programmer drives
func (p *Programmer) SetBusType(bus BusType) error {
	_, err := p.SendCommand(CmdSBusType, []byte{byte(bus)}, 0)
	return err
}
