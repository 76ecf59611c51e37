//go:build windows

package serprog

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	defaultReadTimeout = 400 * time.Millisecond
	defaultReadRetry   = RetryPolicy{MaxEmpty: 10, Delay: 100 * time.Millisecond}
	defaultWriteRetry  = RetryPolicy{MaxEmpty: 10, Delay: 100 * time.Millisecond}
)

// DCB.Flags bits
const (
	dcbBinary = 1 << 0
)

const (
	noParity   = 0
	oneStopBit = 0
)

// windowsPort is a comm handle opened for synchronous I/O
type windowsPort struct {
	handle windows.Handle
}

func openPort(device string, config Config) (port, error) {
	// COM10 and above are only reachable through the device namespace
	name := device
	if !strings.HasPrefix(name, `\\.\`) {
		name = `\\.\` + name
	}
	path, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", device, err)
	}

	handle, err := windows.CreateFile(path,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, // exclusive access
		nil,
		windows.OPEN_EXISTING,
		0,
		0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", device, mapOpenError(err))
	}

	if err := configurePort(handle, config); err != nil {
		windows.CloseHandle(handle)
		return nil, err
	}

	return &windowsPort{handle: handle}, nil
}

func mapOpenError(err error) error {
	switch {
	case errors.Is(err, windows.ERROR_FILE_NOT_FOUND), errors.Is(err, windows.ERROR_PATH_NOT_FOUND):
		return ErrDeviceNotFound
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		// the comm driver reports a port held by another process this way
		return ErrDeviceInUse
	default:
		return err
	}
}

func configurePort(handle windows.Handle, config Config) error {
	dcb := windows.DCB{
		BaudRate: uint32(config.BaudRate),
		Flags:    dcbBinary, // DTR/RTS control disabled, no XON/XOFF, no CTS/DSR flow
		ByteSize: 8,
		Parity:   noParity,
		StopBits: oneStopBit,
	}
	dcb.DCBlength = uint32(unsafe.Sizeof(dcb))

	if err := windows.SetCommState(handle, &dcb); err != nil {
		return fmt.Errorf("%w: can't set serial port parameters: %v", ErrInvalidConfig, err)
	}

	timeouts := windows.CommTimeouts{
		ReadIntervalTimeout:         10,
		ReadTotalTimeoutMultiplier:  1,
		ReadTotalTimeoutConstant:    uint32(config.ReadTimeout / time.Millisecond),
		WriteTotalTimeoutMultiplier: 1,
		WriteTotalTimeoutConstant:   100,
	}
	if err := windows.SetCommTimeouts(handle, &timeouts); err != nil {
		return fmt.Errorf("%w: can't set serial port timeouts: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (p *windowsPort) Read(buf []byte) (int, error) {
	var done uint32
	if err := windows.ReadFile(p.handle, buf, &done, nil); err != nil {
		return 0, err
	}
	return int(done), nil
}

func (p *windowsPort) Write(data []byte) (int, error) {
	var done uint32
	if err := windows.WriteFile(p.handle, data, &done, nil); err != nil {
		return 0, err
	}
	return int(done), nil
}

// Flush pushes buffered output to the device
func (p *windowsPort) Flush() error {
	return windows.FlushFileBuffers(p.handle)
}

func (p *windowsPort) Close() error {
	return windows.CloseHandle(p.handle)
}
