//go:build linux

package serprog

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// DefaultDeviceName is the conventional device of a USB CDC programmer
const DefaultDeviceName = "/dev/ttyACM0"

var (
	// Regular expressions for different types of serial devices
	portPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
		regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
		regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
		regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
		regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
		regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
		regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
		regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
	}

	portNumber = regexp.MustCompile(`^(.*?)(\d+)$`)

	devDir = "/dev"
)

// DefaultDevice returns the conventional programmer device without probing
func DefaultDevice() string {
	return DefaultDeviceName
}

// ListPorts returns the serial-capable character devices under /dev, sorted
// by name and then by port number
func ListPorts() ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		if !matchesPortPattern(entry.Name()) {
			continue
		}
		fullPath := filepath.Join(devDir, entry.Name())
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}

	sortPorts(ports)
	return ports, nil
}

// sortPorts orders ttyUSB2 before ttyUSB10 so ties go to the lowest number
func sortPorts(ports []string) {
	sort.Slice(ports, func(i, j int) bool {
		pi, ni := splitPortNumber(ports[i])
		pj, nj := splitPortNumber(ports[j])
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})
}

func splitPortNumber(port string) (string, int) {
	m := portNumber.FindStringSubmatch(port)
	if m == nil {
		return port, -1
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return port, -1
	}
	return m[1], n
}

// ListCandidates scores every serial port by the driver behind it
func ListCandidates() ([]Candidate, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	return ScoreCandidates(ports, resolveTTY, LinuxScoreRules), nil
}

// DetectDevice picks the best scoring serial port, falling back to DefaultDevice
func DetectDevice() string {
	candidates, err := ListCandidates()
	if err != nil {
		return DefaultDevice()
	}
	return SelectDevice(candidates, DefaultDevice())
}

func matchesPortPattern(name string) bool {
	for _, pattern := range portPatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
