package serprog

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrPortClosed       = errors.New("serial port is closed")
	ErrIO               = errors.New("serial I/O error")
	ErrUnresponsive     = errors.New("serial device is unresponsive")
	ErrUnsupported      = errors.New("operation not supported on this platform")

	// Protocol errors
	ErrCommandRejected   = errors.New("command rejected by programmer (NAK)")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrLengthOutOfRange  = errors.New("length does not fit in 24 bits")
	ErrSyncFailed        = errors.New("failed to synchronize with programmer")

	// USB-related errors
	ErrUSBInfoNotAvailable  = errors.New("USB device information not available")
	ErrUSBResetNotAvailable = errors.New("usbreset utility not available")
)

// CommandError reports which stage of a command exchange failed.
type CommandError struct {
	Opcode Opcode
	Stage  string
	Count  int // bytes the failed stage tried to transfer
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s: %s (%d bytes): %v", e.Opcode, e.Stage, e.Count, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates a status byte that is neither ACK nor NAK.
type ProtocolError struct {
	Opcode Opcode
	Status byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid response 0x%02X from device (to command 0x%02X)", e.Status, byte(e.Opcode))
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocolViolation
}
