package serprog

import (
	"os"
	"path/filepath"
	"strings"
)

// sysfsRoot is overridden in tests
var sysfsRoot = "/sys"

// USBInfo is the USB location of a tty, read from sysfs
type USBInfo struct {
	BusNumber    string
	DeviceNumber string
	VendorID     string
	ProductID    string
	SerialNumber string
	Product      string
}

// readSysfsFile reads a sysfs attribute, returning "" when it is missing
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// linkBase returns the last element of a symlink target, or ""
func linkBase(path string) string {
	target, err := os.Readlink(path)
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

// resolveTTY resolves a tty device to "subsystem/driver" of the hardware
// behind it, e.g. "usb-serial/ftdi_sio" or "usb/cdc_acm".
func resolveTTY(device string) (string, bool) {
	deviceDir := filepath.Join(sysfsRoot, "class", "tty", filepath.Base(device), "device")
	if _, err := os.Stat(deviceDir); err != nil {
		return "", false
	}

	subsystem := linkBase(filepath.Join(deviceDir, "subsystem"))
	driver := linkBase(filepath.Join(deviceDir, "driver"))
	if subsystem == "" && driver == "" {
		return "", false
	}
	return subsystem + "/" + driver, true
}

// lookupUSBInfo walks up from the tty's device directory to the USB device
// node carrying busnum/devnum.
func lookupUSBInfo(device string) (*USBInfo, error) {
	deviceDir := filepath.Join(sysfsRoot, "class", "tty", filepath.Base(device), "device")
	dir, err := filepath.EvalSymlinks(deviceDir)
	if err != nil {
		return nil, ErrUSBInfoNotAvailable
	}

	root := filepath.Clean(sysfsRoot)
	for dir != root && dir != "/" && dir != "." {
		busnum := readSysfsFile(filepath.Join(dir, "busnum"))
		devnum := readSysfsFile(filepath.Join(dir, "devnum"))
		if busnum != "" && devnum != "" {
			return &USBInfo{
				BusNumber:    busnum,
				DeviceNumber: devnum,
				VendorID:     readSysfsFile(filepath.Join(dir, "idVendor")),
				ProductID:    readSysfsFile(filepath.Join(dir, "idProduct")),
				SerialNumber: readSysfsFile(filepath.Join(dir, "serial")),
				Product:      readSysfsFile(filepath.Join(dir, "product")),
			}, nil
		}
		dir = filepath.Dir(dir)
	}
	return nil, ErrUSBInfoNotAvailable
}
