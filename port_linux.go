//go:build linux

package serprog

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

var (
	defaultReadTimeout = 500 * time.Millisecond

	// 10 × VTIME ≈ 5s
	defaultReadRetry = RetryPolicy{MaxEmpty: 10}

	// ≈125ms
	defaultWriteRetry = RetryPolicy{MaxEmpty: 250, Delay: 500 * time.Microsecond}
)

// unixPort is a termios-configured tty
type unixPort struct {
	fd int
}

// standardBaudRates maps rates the termios CBAUD field can express directly
var standardBaudRates = map[int]uint32{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

func openPort(device string, config Config) (port, error) {
	// O_NDELAY so open does not wait for DCD
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NDELAY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", device, mapOpenError(err))
	}

	if err := configurePort(fd, config); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &unixPort{fd: fd}, nil
}

func mapOpenError(err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENXIO), errors.Is(err, unix.ENODEV):
		return ErrDeviceNotFound
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return ErrPermissionDenied
	case errors.Is(err, unix.EBUSY):
		return ErrDeviceInUse
	default:
		return err
	}
}

// configurePort switches the descriptor to blocking I/O and applies raw 8N1
// through termios2 so that rates missing from the CBAUD table still work.
func configurePort(fd int, config Config) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return fmt.Errorf("%w: cannot get port mode: %v", ErrInvalidConfig, err)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags&^unix.O_NONBLOCK); err != nil {
		return fmt.Errorf("%w: cannot set port to blocking: %v", ErrInvalidConfig, err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err != nil {
		return fmt.Errorf("%w: failed to get termios: %v", ErrInvalidConfig, err)
	}

	applyRawMode(termios, config)

	if err := unix.IoctlSetTermios(fd, unix.TCSETS2, termios); err != nil {
		return fmt.Errorf("%w: failed to set termios for %d baud: %v", ErrInvalidConfig, config.BaudRate, err)
	}
	return nil
}

// applyRawMode rewrites termios for raw 8N1 with no flow control
func applyRawMode(termios *unix.Termios, config Config) {
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	termios.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = uint8(config.ReadTimeout / (100 * time.Millisecond))

	if speed, ok := standardBaudRates[config.BaudRate]; ok {
		termios.Cflag |= speed
	} else {
		termios.Cflag |= unix.BOTHER
	}
	termios.Ispeed = uint32(config.BaudRate)
	termios.Ospeed = uint32(config.BaudRate)
}

func (p *unixPort) Read(buf []byte) (int, error) {
	return unix.Read(p.fd, buf)
}

func (p *unixPort) Write(data []byte) (int, error) {
	return unix.Write(p.fd, data)
}

func (p *unixPort) Close() error {
	return unix.Close(p.fd)
}
