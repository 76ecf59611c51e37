/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"strings"
	"time"

	"github.com/allbin/go-serprog"
	"github.com/allbin/go-serprog/internal/tui/components"
	"github.com/allbin/go-serprog/internal/tui/keys"
	"github.com/allbin/go-serprog/internal/tui/models"
	"github.com/allbin/go-serprog/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive serprog console",
	Long: `Open the programmer and run serprog commands interactively, with a
scrolling log of every exchange.

Console commands:
  spi <hex> [readlen]   clock out <hex>, then clock in readlen bytes
  clock <freq>          set the SPI clock, e.g. 8MHz or 500000
  prog on|off           enable or disable the programmer outputs
  sync                  resynchronize with SYNCNOP
  probe                 query interface, name, command map and bus types
  help                  list commands

Keys: i to type, esc to leave insert mode, h/a toggle hex/ascii, c clears
the log, q quits. Outputs are disabled on exit.

Example usage:
  serprog console
  serprog console --device /dev/ttyACM1 --baud 4000000`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConsoleTUI(deviceName(), portOptions()...); err != nil {
			fail("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

// consoleModel represents the Bubble Tea model for the console command
type consoleModel struct {
	*models.ConsoleModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.ConsoleKeys
}

func runConsoleTUI(device string, opts ...serprog.Option) error {
	m := consoleModel{
		ConsoleModel: models.NewConsoleModel(device),
		terminal:     components.NewTerminal(0, 0), // sized by WindowSizeMsg
		statusBar:    components.NewStatusBar(device),
		input:        components.NewInput("spi 9f 3, clock 8MHz, prog on, probe, help..."),
		help:         help.New(),
		keys:         keys.NewConsoleKeys(),
	}
	m.statusBar.SetConnecting()
	m.statusBar.SetConnectionInfo(&components.ConnectionInfo{BaudRate: viper.GetInt("baud")})

	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Open in the background so the UI comes up while the programmer syncs
	go func() {
		ch, err := serprog.Open(device, opts...)
		if err != nil {
			p.Send(models.ConnectionStatusMsg{Device: device, Error: err})
			return
		}
		prog := serprog.NewProgrammer(ch)

		// Probe synchronizes first
		info, err := prog.Probe()
		if err != nil {
			prog.Close()
			p.Send(models.ConnectionStatusMsg{Device: device, Error: err})
			return
		}
		msg := models.ConnectionStatusMsg{Connected: true, Device: device, Name: info.Name}

		// Cleanup may already have run if the user quit while syncing
		if err := m.SetProgrammer(prog); err != nil {
			prog.Close()
			return
		}
		p.Send(msg)
	}()

	_, err := p.Run()

	m.Cleanup()
	return err
}

func (m *consoleModel) Init() tea.Cmd {
	return nil
}

// execute runs line off the UI goroutine
func (m *consoleModel) execute(line string) tea.Cmd {
	m.SetBusy(true)
	m.statusBar.SetBusy(true)
	return func() tea.Msg {
		return m.Execute(line)
	}
}

func (m *consoleModel) applyResult(res models.CommandResultMsg) {
	m.Apply(res)
	m.statusBar.SetBusy(false)

	info := m.statusBar.ConnectionInfo()
	if res.ClockHz != 0 {
		info.ClockHz = res.ClockHz
	}
	if res.Prog != nil {
		info.ProgOn = *res.Prog
	}
	if res.Probe != nil && res.Probe.Name != "" {
		info.Name = res.Probe.Name
	}

	if m.IsReady() {
		m.terminal.AddMessage(res.Transaction)
	}
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// input box (3) + status bar (1) + content border (1)
		verticalMarginHeight := 5
		m.terminal.SetSize(msg.Width, msg.Height-verticalMarginHeight)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		if !m.IsReady() {
			m.SetReady(true)
			m.terminal.Refresh(m.GetTransactions())
		}

	case models.ConnectionStatusMsg:
		m.SetConnected(msg.Connected)
		if msg.Error != nil {
			m.SetError(msg.Error)
			m.statusBar.SetDisconnected(msg.Error)
			m.applyResult(models.CommandResultMsg{Transaction: components.TransactionMsg{
				Timestamp: time.Now(),
				Command:   "open " + msg.Device,
				Err:       msg.Error,
			}})
		} else {
			m.statusBar.SetConnected()
			m.statusBar.ConnectionInfo().Name = msg.Name
			m.SetInputMode(models.InputModeInsert)
			m.input.Focus()
		}

	case models.CommandResultMsg:
		m.applyResult(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.IsInInsertMode() {
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
				return m, nil

			case key.Matches(msg, m.keys.Enter):
				line := strings.TrimSpace(m.input.Value())
				if line == "" || m.IsBusy() {
					return m, nil
				}
				m.input.AddToHistory(line)
				m.input.SetValue("")
				return m, m.execute(line)

			case key.Matches(msg, m.keys.Up):
				m.input.NavigateHistoryUp()
				return m, nil

			case key.Matches(msg, m.keys.Down):
				m.input.NavigateHistoryDown()
				return m, nil
			}
		} else {
			switch {
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit

			case key.Matches(msg, m.keys.InsertMode):
				m.SetInputMode(models.InputModeInsert)
				m.input.Focus()
				return m, nil

			case key.Matches(msg, m.keys.Clear):
				m.ClearData()
				m.terminal.Clear()

			case key.Matches(msg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll

			case key.Matches(msg, m.keys.ToggleHex):
				m.terminal.ToggleHex()
				m.terminal.Refresh(m.GetTransactions())

			case key.Matches(msg, m.keys.ToggleASCII):
				m.terminal.ToggleASCII()
				m.terminal.Refresh(m.GetTransactions())

			case key.Matches(msg, m.keys.GotoTop):
				m.terminal.GotoTop()

			case key.Matches(msg, m.keys.GotoBottom):
				m.terminal.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.IsInInsertMode() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	_, cmd = m.terminal.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *consoleModel) View() string {
	content := "Initializing..."
	switch {
	case !m.IsReady():
	case !m.IsConnected() && m.GetError() == nil:
		content = "Connecting to " + m.GetDevice() + "..."
	default:
		content = m.terminal.View()
	}

	input := m.input.ViewWithMode(m.IsInInsertMode())
	statusBar := m.statusBar.Render(m.GetInputMode().String(), time.Now().Format("15:04:05"))

	views := []string{
		styles.ContentBorderStyle.Render(content),
		input,
		statusBar,
	}
	if m.help.ShowAll {
		views = append(views, m.help.View(m.keys))
	}

	return lipgloss.JoinVertical(lipgloss.Left, views...)
}
