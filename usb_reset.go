package serprog

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"
)

// GetUSBInfo returns the USB location of a tty device. Only Linux exposes it,
// through sysfs; elsewhere it fails with ErrUnsupported.
func GetUSBInfo(portPath string) (*USBInfo, error) {
	if runtime.GOOS != "linux" {
		return nil, ErrUnsupported
	}
	return lookupUSBInfo(portPath)
}

// ResetUSBDevice performs a USB-level reset of the programmer behind portPath.
// This can recover a programmer that stopped answering without unplugging it.
//
// Requirements:
// - usbreset utility must be installed (from usbutils package)
// - Requires appropriate permissions (typically root/sudo)
//
// Returns:
// - nil if reset successful
// - ErrUSBResetNotAvailable if usbreset utility not found
// - ErrUSBInfoNotAvailable if device is not USB or metadata unavailable
// - ErrUnsupported off Linux
// - error if reset fails
func ResetUSBDevice(portPath string) error {
	info, err := GetUSBInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get USB info for %s: %w", portPath, err)
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	// usbreset expects zero-padded 3-digit bus and device numbers
	usbPath := fmt.Sprintf("%03s/%03s", info.BusNumber, info.DeviceNumber)

	cmd := exec.Command("usbreset", usbPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	// USB devices typically take 1-2 seconds to become available again
	time.Sleep(2 * time.Second)

	return nil
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}
