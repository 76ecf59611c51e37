package components

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatMessageSPI(t *testing.T) {
	df := NewDataFormatter(true, true)
	out := df.FormatMessage(TransactionMsg{
		Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Command:   "spi 9f 3",
		TX:        []byte{0x9F},
		RX:        []byte{0xEF, 0x40, 0x18},
	})

	for _, want := range []string{"12:00:00.000", "$ spi 9f 3", "TX", "HEX: 9F", "RX", "HEX: EF 40 18", "ASCII: .@."} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted message missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines != 3 {
		t.Errorf("Expected 3 lines, got %d", lines)
	}
}

func TestFormatMessageDisplayModes(t *testing.T) {
	msg := TransactionMsg{Timestamp: time.Now(), Command: "spi 41 0", TX: []byte("A")}

	df := NewDataFormatter(true, true)
	df.ToggleHex()
	out := df.FormatMessage(msg)
	if strings.Contains(out, "HEX:") || !strings.Contains(out, "ASCII: A") {
		t.Errorf("ascii only mode: %s", out)
	}

	df.ToggleASCII()
	if out := df.FormatMessage(msg); !strings.Contains(out, "BYTES: 1") {
		t.Errorf("no data mode: %s", out)
	}
}

func TestFormatMessageError(t *testing.T) {
	df := NewDataFormatter(true, false)
	out := df.FormatMessage(TransactionMsg{
		Timestamp: time.Now(),
		Command:   "sync",
		Info:      "synchronized",
		Err:       errors.New("sync failed"),
	})
	if !strings.Contains(out, "sync failed") || strings.Contains(out, "synchronized") {
		t.Errorf("error should replace info: %s", out)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		hz       uint32
		expected string
	}{
		{0, "clock ?"},
		{8000000, "8 MHz"},
		{500000, "500 kHz"},
		{1234, "1234 Hz"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.hz); got != tt.expected {
			t.Errorf("FormatClock(%d) = %q, expected %q", tt.hz, got, tt.expected)
		}
	}
}

func TestInputHistory(t *testing.T) {
	in := NewInput("")
	in.AddToHistory("sync")
	in.AddToHistory("spi 9f 3")
	in.AddToHistory("spi 9f 3")
	in.AddToHistory("   ")

	if got := len(in.History()); got != 2 {
		t.Fatalf("Expected 2 history entries, got %d", got)
	}

	in.SetValue("clock 1")
	in.NavigateHistoryUp()
	if in.Value() != "spi 9f 3" {
		t.Errorf("Up: got %q", in.Value())
	}
	in.NavigateHistoryUp()
	in.NavigateHistoryUp()
	if in.Value() != "sync" {
		t.Errorf("Up at oldest: got %q", in.Value())
	}
	in.NavigateHistoryDown()
	in.NavigateHistoryDown()
	if in.Value() != "clock 1" {
		t.Errorf("Down past newest should restore edited line, got %q", in.Value())
	}
}

func TestInputHistoryBounded(t *testing.T) {
	in := NewInput("")
	for i := 0; i < maxHistory+10; i++ {
		in.AddToHistory(strings.Repeat("x", i+1))
	}
	if got := len(in.History()); got != maxHistory {
		t.Errorf("Expected %d entries, got %d", maxHistory, got)
	}
}

func TestStatusBarRender(t *testing.T) {
	sb := NewStatusBar("/dev/ttyACM0")
	sb.SetWidth(120)
	sb.SetConnectionInfo(&ConnectionInfo{BaudRate: 115200, ClockHz: 8000000, ProgOn: true})
	sb.SetConnected()

	out := sb.Render("NORMAL", "12:00:00")
	for _, want := range []string{"NORMAL", "/dev/ttyACM0", "115200 baud", "8 MHz", "prog on"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q: %s", want, out)
		}
	}

	sb.SetDisconnected(errors.New("no device"))
	sb.SetBusy(true)
	if sb.Err() == nil {
		t.Error("SetBusy must not clear a connection error")
	}
}
