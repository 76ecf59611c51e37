package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-serprog/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// TransactionMsg is the outcome of one console command
type TransactionMsg struct {
	Timestamp time.Time
	Command   string
	TX        []byte // bytes clocked out, for spi
	RX        []byte // bytes clocked in, for spi
	Info      string
	Err       error
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

// FormatMessage renders the command line followed by a TX and an RX line when
// bytes moved, and the result or error.
func (df *DataFormatter) FormatMessage(msg TransactionMsg) string {
	timestamp := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Render(fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05.000")))

	prompt := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Render("$ " + msg.Command)

	lines := []string{fmt.Sprintf("%s %s", timestamp, prompt)}
	indent := strings.Repeat(" ", lipgloss.Width(timestamp)+1)

	if len(msg.TX) > 0 {
		tx := lipgloss.NewStyle().Foreground(styles.Peach).Bold(true).Render("↗ TX")
		lines = append(lines, fmt.Sprintf("%s%s: %s", indent, tx, df.formatData(msg.TX)))
	}
	if len(msg.RX) > 0 {
		rx := lipgloss.NewStyle().Foreground(styles.Sky).Bold(true).Render("↙ RX")
		lines = append(lines, fmt.Sprintf("%s%s: %s", indent, rx, df.formatData(msg.RX)))
	}

	if msg.Err != nil {
		status := lipgloss.NewStyle().Foreground(styles.Red).Bold(true).Render("✗ " + msg.Err.Error())
		lines = append(lines, indent+status)
	} else if msg.Info != "" {
		for _, line := range strings.Split(msg.Info, "\n") {
			lines = append(lines, indent+lipgloss.NewStyle().Foreground(styles.Green).Render(line))
		}
	}

	return strings.Join(lines, "\n")
}

func (df *DataFormatter) formatData(data []byte) string {
	var parts []string

	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", data))
	}
	if df.mode.ShowASCII {
		parts = append(parts, "ASCII: "+printable(data))
	}
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(data)))
	}

	return strings.Join(parts, "  ")
}

// printable replaces bytes outside printable ASCII with dots
func printable(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b >= 32 && b <= 126 {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func (df *DataFormatter) FormatMessages(messages []TransactionMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}
