package components

import (
	"fmt"

	"github.com/allbin/go-serprog/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// ConnectionInfo is the programmer state shown on the right of the status bar
type ConnectionInfo struct {
	BaudRate int
	Name     string // programmer name from Q_PGMNAME, if probed
	ClockHz  uint32 // last clock the programmer applied, 0 if never set
	ProgOn   bool
}

type StatusBar struct {
	device         string
	status         styles.StatusType
	err            error
	width          int
	connectionInfo *ConnectionInfo
}

func NewStatusBar(device string) *StatusBar {
	return &StatusBar{
		device: device,
		status: styles.StatusConnecting,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetConnectionInfo(info *ConnectionInfo) {
	sb.connectionInfo = info
}

func (sb *StatusBar) ConnectionInfo() *ConnectionInfo {
	return sb.connectionInfo
}

func (sb *StatusBar) SetDevice(device string) {
	sb.device = device
}

func (sb *StatusBar) SetConnecting() {
	sb.status = styles.StatusConnecting
	sb.err = nil
}

func (sb *StatusBar) SetConnected() {
	sb.status = styles.StatusConnected
	sb.err = nil
}

func (sb *StatusBar) SetBusy(busy bool) {
	if sb.err != nil {
		return
	}
	if busy {
		sb.status = styles.StatusBusy
	} else {
		sb.status = styles.StatusConnected
	}
}

func (sb *StatusBar) SetDisconnected(err error) {
	sb.status = styles.StatusDisconnected
	sb.err = err
}

func (sb *StatusBar) Err() error {
	return sb.err
}

// FormatClock renders hz with the largest whole unit
func FormatClock(hz uint32) string {
	switch {
	case hz == 0:
		return "clock ?"
	case hz%1000000 == 0:
		return fmt.Sprintf("%d MHz", hz/1000000)
	case hz%1000 == 0:
		return fmt.Sprintf("%d kHz", hz/1000)
	default:
		return fmt.Sprintf("%d Hz", hz)
	}
}

// Render draws mode, device and connection indicator on the left and the
// programmer state with the time on the right.
func (sb *StatusBar) Render(inputMode string, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	modeStyle := lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(styles.Blue).
		Bold(true).
		Padding(0, 1)
	if inputMode == "INSERT" {
		modeStyle = modeStyle.Background(styles.Green)
	}
	mode := modeStyle.Render(inputMode)

	device := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.device)

	indicator := styles.Indicator(sb.status)

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	info := "⚡ serprog"
	if sb.connectionInfo != nil {
		prog := "prog off"
		if sb.connectionInfo.ProgOn {
			prog = "prog on"
		}
		info = fmt.Sprintf("⚡ %d baud │ %s │ %s", sb.connectionInfo.BaudRate, FormatClock(sb.connectionInfo.ClockHz), prog)
		if sb.connectionInfo.Name != "" {
			info = sb.connectionInfo.Name + " " + info
		}
	}
	details := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Padding(0, 1).
		Render(info)

	clock := lipgloss.NewStyle().
		Foreground(styles.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, mode, device, indicator, divider)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
