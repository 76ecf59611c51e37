// Package serprog drives SPI programmers that speak the serprog serial
// flasher protocol over a USB CDC or UART link.
//
// The package is layered: a Channel delivers exact byte counts over a raw
// serial port, an Engine runs one command/response exchange at a time, and a
// Programmer offers the SPI operations built on top of it.
//
// # Basic Usage
//
// Open the programmer, enable its output drivers and talk to the flash:
//
//	ch, err := serprog.Open(serprog.DetectDevice(), serprog.WithBaudRate(115200))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prog := serprog.NewProgrammer(ch)
//	defer prog.Close()
//
//	actual := prog.SetSPIClock(6_000_000)
//	if err := prog.EnableProg(); err != nil {
//	    log.Printf("enable: %v", err)
//	}
//	id, err := prog.SPITransaction([]byte{0x9F}, 3)
//
// # Transfers and Timeouts
//
// Read and Write keep going through partial transfers. A run of zero-byte
// results is bounded by a RetryPolicy; when it runs out the call fails with
// ErrUnresponsive, while a failing read or write primitive fails at once
// with ErrIO:
//
//	ch, err := serprog.Open("/dev/ttyACM0",
//	    serprog.WithReadRetry(20, 0),
//	    serprog.WithWriteRetry(250, 500*time.Microsecond),
//	)
//
// # Device Selection
//
// DefaultDevice returns the conventional device name. On Windows it scores
// COM0..COM255 by the kernel device each resolves to and returns the best
// match. ListCandidates exposes the scored list on every platform.
//
// # Error Handling
//
// Use errors.Is to tell failures apart:
//
//	switch {
//	case errors.Is(err, serprog.ErrCommandRejected):   // device answered NAK
//	case errors.Is(err, serprog.ErrProtocolViolation): // status neither ACK nor NAK
//	case errors.Is(err, serprog.ErrUnresponsive):      // device stalled
//	case errors.Is(err, serprog.ErrIO):                // link broken
//	}
//
// # periph.io
//
// Programmer.SPIPort adapts the programmer to periph.io/x/conn/v3/spi so
// existing SPI flash code can run over serprog.
package serprog
