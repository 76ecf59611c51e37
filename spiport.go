package serprog

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var errKeepCS = errors.New("serprog: KeepCS is not supported, each packet is one SPI operation")

// SPIPort exposes the programmer as a periph.io SPI port
func (p *Programmer) SPIPort() spi.PortCloser {
	return &spiPort{prog: p}
}

type spiPort struct {
	prog  *Programmer
	limit physic.Frequency
}

func (s *spiPort) String() string {
	return "serprog(" + s.prog.ch.Device() + ")"
}

// Connect programs the SPI clock. serprog has no mode or word size command,
// so only Mode0 with 8 bit words is accepted.
func (s *spiPort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	if mode&^spi.NoCS != spi.Mode0 {
		return nil, fmt.Errorf("serprog: unsupported SPI mode %s", mode)
	}
	if bits != 8 {
		return nil, fmt.Errorf("serprog: unsupported word size %d", bits)
	}
	if s.limit != 0 && f > s.limit {
		f = s.limit
	}

	c := &spiConn{prog: s.prog, name: s.String()}
	if f > 0 {
		hz := f / physic.Hertz
		if hz > physic.Frequency(^uint32(0)) {
			return nil, fmt.Errorf("serprog: frequency %s out of range", f)
		}
		actual := s.prog.SetSPIClock(uint32(hz))
		if actual == 0 {
			return nil, fmt.Errorf("serprog: programmer did not accept %s", f)
		}
		c.freq = physic.Frequency(actual) * physic.Hertz
	}
	return c, nil
}

// LimitSpeed caps the frequency later Connect calls may request
func (s *spiPort) LimitSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("serprog: invalid speed %s", f)
	}
	s.limit = f
	return nil
}

func (s *spiPort) Close() error {
	return s.prog.Close()
}

// spiConn is half duplex: w is clocked out, then len(r) bytes are clocked in
type spiConn struct {
	prog *Programmer
	name string
	freq physic.Frequency
}

func (c *spiConn) String() string {
	if c.freq == 0 {
		return c.name
	}
	return fmt.Sprintf("%s@%s", c.name, c.freq)
}

func (c *spiConn) Duplex() conn.Duplex {
	return conn.Half
}

func (c *spiConn) Tx(w, r []byte) error {
	reply, err := c.prog.SPITransaction(w, len(r))
	if err != nil {
		return err
	}
	copy(r, reply)
	return nil
}

func (c *spiConn) TxPackets(packets []spi.Packet) error {
	for _, pkt := range packets {
		if pkt.KeepCS {
			return errKeepCS
		}
	}
	for _, pkt := range packets {
		if err := c.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}
