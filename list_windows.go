//go:build windows

package serprog

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// DefaultDeviceName is used when no COM port resolves
const DefaultDeviceName = "COM1"

const maxCOMPorts = 256

// DefaultDevice returns the most likely programmer port
func DefaultDevice() string {
	return DetectDevice()
}

// DetectDevice scores COM0..COM255 by their kernel device and returns the best
func DetectDevice() string {
	candidates, _ := ListCandidates()
	return SelectDevice(candidates, DefaultDeviceName)
}

// ListPorts returns the COM port names that resolve to a device
func ListPorts() ([]string, error) {
	candidates, err := ListCandidates()
	if err != nil {
		return nil, err
	}
	ports := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ports = append(ports, c.Name)
	}
	return ports, nil
}

// ListCandidates resolves every numbered COM port through QueryDosDevice
func ListCandidates() ([]Candidate, error) {
	names := make([]string, 0, maxCOMPorts)
	for i := 0; i < maxCOMPorts; i++ {
		names = append(names, fmt.Sprintf("COM%d", i))
	}
	return ScoreCandidates(names, queryDosDevice, WindowsScoreRules), nil
}

func queryDosDevice(name string) (string, bool) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return "", false
	}
	buf := make([]uint16, 4096)
	n, err := windows.QueryDosDevice(namePtr, &buf[0], uint32(len(buf)))
	if err != nil || n == 0 {
		return "", false
	}
	return windows.UTF16ToString(buf[:n]), true
}
