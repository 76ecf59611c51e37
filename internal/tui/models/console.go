package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/allbin/go-serprog"
	"github.com/allbin/go-serprog/internal/tui/components"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

var errNotConnected = errors.New("programmer not connected")

// Programmer is what the console drives; *serprog.Programmer satisfies it
type Programmer interface {
	SPITransaction(write []byte, readCount int) ([]byte, error)
	SetSPIClock(hz uint32) uint32
	EnableProg() error
	DisableProg() error
	Synchronize() error
	Probe() (*serprog.ProbeInfo, error)
	Close() error
}

// ConnectionStatusMsg reports the result of opening the programmer
type ConnectionStatusMsg struct {
	Connected bool
	Device    string
	Name      string
	Error     error
}

// CommandResultMsg is produced by Execute and applied in Update
type CommandResultMsg struct {
	Transaction components.TransactionMsg
	ClockHz     uint32 // applied clock, clock command only
	Prog        *bool  // new pin state, prog command only
	Probe       *serprog.ProbeInfo
}

type ConsoleModel struct {
	prog   Programmer
	device string

	// State, touched from Update only
	connected    bool
	transactions []components.TransactionMsg
	err          error
	ready        bool
	busy         bool
	inputMode    InputMode

	cancel context.CancelFunc
	ctx    context.Context
	mu     sync.RWMutex // guards prog
	execMu sync.Mutex   // one serprog exchange at a time
}

func NewConsoleModel(device string) *ConsoleModel {
	ctx, cancel := context.WithCancel(context.Background())

	return &ConsoleModel{
		device:    device,
		inputMode: InputModeNormal,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (m *ConsoleModel) GetProgrammer() Programmer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prog
}

// SetProgrammer hands prog to the console. Once the console is cancelled it
// refuses with the context error and prog stays with the caller.
func (m *ConsoleModel) SetProgrammer(prog Programmer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ctx.Err(); err != nil {
		return err
	}
	m.prog = prog
	return nil
}

func (m *ConsoleModel) GetDevice() string {
	return m.device
}

func (m *ConsoleModel) SetDevice(device string) {
	m.device = device
}

func (m *ConsoleModel) IsConnected() bool {
	return m.connected
}

func (m *ConsoleModel) SetConnected(connected bool) {
	m.connected = connected
}

func (m *ConsoleModel) GetError() error {
	return m.err
}

func (m *ConsoleModel) SetError(err error) {
	m.err = err
}

func (m *ConsoleModel) IsReady() bool {
	return m.ready
}

func (m *ConsoleModel) SetReady(ready bool) {
	m.ready = ready
}

func (m *ConsoleModel) IsBusy() bool {
	return m.busy
}

func (m *ConsoleModel) SetBusy(busy bool) {
	m.busy = busy
}

func (m *ConsoleModel) GetTransactions() []components.TransactionMsg {
	return m.transactions
}

func (m *ConsoleModel) AddTransaction(msg components.TransactionMsg) {
	m.transactions = append(m.transactions, msg)
}

func (m *ConsoleModel) ClearData() {
	m.transactions = nil
}

func (m *ConsoleModel) GetInputMode() InputMode {
	return m.inputMode
}

func (m *ConsoleModel) SetInputMode(mode InputMode) {
	m.inputMode = mode
}

func (m *ConsoleModel) IsInInsertMode() bool {
	return m.inputMode == InputModeInsert
}

func (m *ConsoleModel) GetContext() context.Context {
	return m.ctx
}

// Execute parses and runs one console line against the programmer. It is
// safe to call from a tea.Cmd; exchanges are serialized.
func (m *ConsoleModel) Execute(line string) CommandResultMsg {
	res := CommandResultMsg{Transaction: components.TransactionMsg{
		Timestamp: time.Now(),
		Command:   strings.TrimSpace(line),
	}}
	tx := &res.Transaction

	cmd, err := ParseCommand(line)
	if err != nil {
		tx.Err = err
		return res
	}
	if cmd.Name == "help" {
		tx.Info = commandHelp
		return res
	}

	prog := m.GetProgrammer()
	if prog == nil {
		tx.Err = errNotConnected
		return res
	}

	m.execMu.Lock()
	defer m.execMu.Unlock()

	switch cmd.Name {
	case "spi":
		tx.TX = cmd.Write
		tx.RX, tx.Err = prog.SPITransaction(cmd.Write, cmd.ReadLen)
		if tx.Err == nil {
			tx.Info = fmt.Sprintf("wrote %d, read %d bytes", len(cmd.Write), len(tx.RX))
		}

	case "clock":
		actual := prog.SetSPIClock(cmd.ClockHz)
		if actual == 0 {
			tx.Err = fmt.Errorf("programmer did not accept %s", components.FormatClock(cmd.ClockHz))
			break
		}
		res.ClockHz = actual
		tx.Info = fmt.Sprintf("requested %s, programmer applied %s",
			components.FormatClock(cmd.ClockHz), components.FormatClock(actual))

	case "prog":
		if cmd.On {
			tx.Err = prog.EnableProg()
		} else {
			tx.Err = prog.DisableProg()
		}
		if tx.Err == nil {
			on := cmd.On
			res.Prog = &on
			tx.Info = "prog disabled"
			if on {
				tx.Info = "prog enabled"
			}
		}

	case "sync":
		if tx.Err = prog.Synchronize(); tx.Err == nil {
			tx.Info = "synchronized"
		}

	case "probe":
		info, err := prog.Probe()
		if err != nil {
			tx.Err = err
			break
		}
		res.Probe = info
		tx.Info = FormatProbe(info)
	}

	return res
}

// Apply folds a command result into the console state
func (m *ConsoleModel) Apply(res CommandResultMsg) {
	m.busy = false
	m.AddTransaction(res.Transaction)
}

// FormatProbe renders ProbeInfo as a few aligned lines
func FormatProbe(info *serprog.ProbeInfo) string {
	var names []string
	for _, op := range info.Commands() {
		names = append(names, op.String())
	}

	lines := []string{
		fmt.Sprintf("interface:     %d", info.Interface),
		fmt.Sprintf("name:          %s", info.Name),
		fmt.Sprintf("serial buffer: %d", info.SerialBuffer),
		fmt.Sprintf("bus types:     %s", info.BusTypes),
		fmt.Sprintf("commands:      %s", strings.Join(names, " ")),
	}
	return strings.Join(lines, "\n")
}

func (m *ConsoleModel) Cancel() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Cleanup cancels the background open and closes the programmer, leaving
// its outputs disabled.
func (m *ConsoleModel) Cleanup() {
	m.Cancel()

	m.mu.Lock()
	prog := m.prog
	m.prog = nil
	m.mu.Unlock()

	if prog == nil {
		return
	}
	m.execMu.Lock()
	defer m.execMu.Unlock()
	prog.DisableProg()
	prog.Close()
}
