package serprog

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/glog"
)

// MaxTransferLength is the largest write or read count of one SPI operation
const MaxTransferLength = 1<<24 - 1

// Pin states for CmdSPinState
const (
	pinDisable byte = 0
	pinEnable  byte = 1
)

// Programmer exposes SPI operations of a serprog programmer
type Programmer struct {
	*Engine
	ch Channel
}

// NewProgrammer wraps an open channel
func NewProgrammer(ch Channel) *Programmer {
	return &Programmer{
		Engine: NewEngine(ch),
		ch:     ch,
	}
}

// Channel returns the underlying channel
func (p *Programmer) Channel() Channel {
	return p.ch
}

// Close closes the underlying channel
func (p *Programmer) Close() error {
	return p.ch.Close()
}

// SPITransaction asserts chip select, clocks out write, then clocks in
// readCount bytes and returns them.
func (p *Programmer) SPITransaction(write []byte, readCount int) ([]byte, error) {
	params, err := encodeSPIOp(write, readCount)
	if err != nil {
		return nil, err
	}
	return p.SendCommand(CmdOSPIOp, params, readCount)
}

// encodeSPIOp builds write_len(3) ∥ read_len(3) ∥ write, little-endian
func encodeSPIOp(write []byte, readCount int) ([]byte, error) {
	if len(write) > MaxTransferLength {
		return nil, fmt.Errorf("%w: write length %d", ErrLengthOutOfRange, len(write))
	}
	if readCount < 0 || readCount > MaxTransferLength {
		return nil, fmt.Errorf("%w: read length %d", ErrLengthOutOfRange, readCount)
	}

	params := make([]byte, 6+len(write))
	putUint24(params[0:3], uint32(len(write)))
	putUint24(params[3:6], uint32(readCount))
	copy(params[6:], write)
	return params, nil
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// SetSPIClock requests hz and returns the frequency the programmer applied.
// It returns 0 when the exchange fails; callers treat that as unknown.
func (p *Programmer) SetSPIClock(hz uint32) uint32 {
	reply, err := p.SendCommand(CmdSSPIFreq, encodeClock(hz), 4)
	if err != nil {
		glog.Warningf("can't set SPI frequency to %d Hz: %v", hz, err)
		return 0
	}
	return decodeClock(reply)
}

func encodeClock(hz uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, hz)
	return buf
}

func decodeClock(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// EnableProg drives the programmer's output pins
func (p *Programmer) EnableProg() error {
	if _, err := p.SendCommand(CmdSPinState, []byte{pinEnable}, 0); err != nil {
		glog.Warningf("can't enable prog: %v", err)
		return err
	}
	return nil
}

// DisableProg puts the programmer's pins in input mode
func (p *Programmer) DisableProg() error {
	if _, err := p.SendCommand(CmdSPinState, []byte{pinDisable}, 0); err != nil {
		glog.Warningf("can't disable prog: %v", err)
		return err
	}
	return nil
}
