//go:build !linux && !windows

package serprog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tarm/serial"
)

var (
	defaultReadTimeout = 500 * time.Millisecond
	defaultReadRetry   = RetryPolicy{MaxEmpty: 10}
	defaultWriteRetry  = RetryPolicy{MaxEmpty: 250, Delay: 500 * time.Microsecond}
)

// tarmPort adapts tarm/serial to the raw port contract
type tarmPort struct {
	port *serial.Port
}

func openPort(device string, config Config) (port, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        config.BaudRate,
		ReadTimeout: config.ReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to open %s: %w", device, ErrDeviceNotFound)
		}
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("failed to open %s: %w", device, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, device, err)
	}
	return &tarmPort{port: p}, nil
}

func (p *tarmPort) Read(buf []byte) (int, error) {
	n, err := p.port.Read(buf)
	if errors.Is(err, io.EOF) {
		// timed out without data
		return n, nil
	}
	return n, err
}

func (p *tarmPort) Write(data []byte) (int, error) {
	return p.port.Write(data)
}

func (p *tarmPort) Close() error {
	return p.port.Close()
}
