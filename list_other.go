//go:build !linux && !windows

package serprog

import (
	"path/filepath"
	"sort"
)

// DefaultDeviceName is the conventional device of a USB CDC programmer
const DefaultDeviceName = "/dev/ttyACM0"

// otherScoreRules rank callout device names directly
var otherScoreRules = []ScoreRule{
	{Prefix: "/dev/cu.usbserial", Score: 4},
	{Prefix: "/dev/cu.usbmodem", Score: 3},
	{Prefix: "/dev/cu.bluetooth", Score: 1},
}

// DefaultDevice returns the conventional programmer device without probing
func DefaultDevice() string {
	return DefaultDeviceName
}

// ListPorts returns the callout devices under /dev, sorted
func ListPorts() ([]string, error) {
	ports, err := filepath.Glob("/dev/cu.*")
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}

// ListCandidates scores callout devices by name
func ListCandidates() ([]Candidate, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	return ScoreCandidates(ports, func(name string) (string, bool) { return name, true }, otherScoreRules), nil
}

// DetectDevice picks the best scoring port, falling back to DefaultDevice
func DetectDevice() string {
	candidates, err := ListCandidates()
	if err != nil {
		return DefaultDevice()
	}
	return SelectDevice(candidates, DefaultDevice())
}
