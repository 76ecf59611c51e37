package models

import (
	"context"
	"errors"
	"testing"

	"github.com/allbin/go-serprog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProgrammer records calls and answers from canned values
type fakeProgrammer struct {
	calls    []string
	spiReply []byte
	spiErr   error
	clock    uint32
	progErr  error
	syncErr  error
	info     *serprog.ProbeInfo
	closed   bool
}

func (f *fakeProgrammer) SPITransaction(write []byte, readCount int) ([]byte, error) {
	f.calls = append(f.calls, "spi")
	if f.spiErr != nil {
		return nil, f.spiErr
	}
	return f.spiReply[:readCount], nil
}

func (f *fakeProgrammer) SetSPIClock(hz uint32) uint32 {
	f.calls = append(f.calls, "clock")
	return f.clock
}

func (f *fakeProgrammer) EnableProg() error {
	f.calls = append(f.calls, "enable")
	return f.progErr
}

func (f *fakeProgrammer) DisableProg() error {
	f.calls = append(f.calls, "disable")
	return f.progErr
}

func (f *fakeProgrammer) Synchronize() error {
	f.calls = append(f.calls, "sync")
	return f.syncErr
}

func (f *fakeProgrammer) Probe() (*serprog.ProbeInfo, error) {
	f.calls = append(f.calls, "probe")
	return f.info, nil
}

func (f *fakeProgrammer) Close() error {
	f.closed = true
	return nil
}

func TestExecuteSPI(t *testing.T) {
	prog := &fakeProgrammer{spiReply: []byte{0xEF, 0x40, 0x18}}
	m := NewConsoleModel("/dev/ttyACM0")
	m.SetProgrammer(prog)

	res := m.Execute("spi 9f 3")
	require.NoError(t, res.Transaction.Err)
	assert.Equal(t, "spi 9f 3", res.Transaction.Command)
	assert.Equal(t, []byte{0x9F}, res.Transaction.TX)
	assert.Equal(t, []byte{0xEF, 0x40, 0x18}, res.Transaction.RX)
	assert.Equal(t, []string{"spi"}, prog.calls)
}

func TestExecuteSPIError(t *testing.T) {
	prog := &fakeProgrammer{spiErr: serprog.ErrCommandRejected}
	m := NewConsoleModel("fake0")
	m.SetProgrammer(prog)

	res := m.Execute("spi 9f 3")
	require.ErrorIs(t, res.Transaction.Err, serprog.ErrCommandRejected)
	assert.Empty(t, res.Transaction.RX)
}

func TestExecuteClock(t *testing.T) {
	prog := &fakeProgrammer{clock: 500000}
	m := NewConsoleModel("fake0")
	m.SetProgrammer(prog)

	res := m.Execute("clock 1MHz")
	require.NoError(t, res.Transaction.Err)
	assert.Equal(t, uint32(500000), res.ClockHz)
	assert.Contains(t, res.Transaction.Info, "500 kHz")

	prog.clock = 0
	res = m.Execute("clock 1MHz")
	require.Error(t, res.Transaction.Err)
	assert.Zero(t, res.ClockHz)
}

func TestExecuteProg(t *testing.T) {
	prog := &fakeProgrammer{}
	m := NewConsoleModel("fake0")
	m.SetProgrammer(prog)

	res := m.Execute("prog on")
	require.NoError(t, res.Transaction.Err)
	require.NotNil(t, res.Prog)
	assert.True(t, *res.Prog)

	prog.progErr = serprog.ErrCommandRejected
	res = m.Execute("prog off")
	require.ErrorIs(t, res.Transaction.Err, serprog.ErrCommandRejected)
	assert.Nil(t, res.Prog)
	assert.Equal(t, []string{"enable", "disable"}, prog.calls)
}

func TestExecuteSyncAndProbe(t *testing.T) {
	prog := &fakeProgrammer{info: &serprog.ProbeInfo{Interface: 1, Name: "pico-serprog", BusTypes: serprog.BusSPI}}
	m := NewConsoleModel("fake0")
	m.SetProgrammer(prog)

	res := m.Execute("sync")
	require.NoError(t, res.Transaction.Err)

	res = m.Execute("probe")
	require.NoError(t, res.Transaction.Err)
	require.NotNil(t, res.Probe)
	assert.Contains(t, res.Transaction.Info, "pico-serprog")
	assert.Contains(t, res.Transaction.Info, "SPI")

	prog.syncErr = serprog.ErrSyncFailed
	res = m.Execute("sync")
	require.ErrorIs(t, res.Transaction.Err, serprog.ErrSyncFailed)
}

func TestExecuteWithoutProgrammer(t *testing.T) {
	m := NewConsoleModel("fake0")

	res := m.Execute("sync")
	require.True(t, errors.Is(res.Transaction.Err, errNotConnected))

	res = m.Execute("help")
	require.NoError(t, res.Transaction.Err)
	assert.Contains(t, res.Transaction.Info, "spi <hex> [readlen]")
}

func TestExecuteParseErrorSkipsProgrammer(t *testing.T) {
	prog := &fakeProgrammer{}
	m := NewConsoleModel("fake0")
	m.SetProgrammer(prog)

	res := m.Execute("spi xyz")
	require.Error(t, res.Transaction.Err)
	assert.Empty(t, prog.calls)
}

func TestApplyAndClear(t *testing.T) {
	m := NewConsoleModel("fake0")
	m.SetBusy(true)

	m.Apply(m.Execute("help"))
	assert.False(t, m.IsBusy())
	assert.Len(t, m.GetTransactions(), 1)

	m.ClearData()
	assert.Empty(t, m.GetTransactions())
}

func TestCleanupDisablesAndCloses(t *testing.T) {
	prog := &fakeProgrammer{}
	m := NewConsoleModel("fake0")
	m.SetProgrammer(prog)

	m.Cleanup()
	assert.Equal(t, []string{"disable"}, prog.calls)
	assert.True(t, prog.closed)
	assert.Nil(t, m.GetProgrammer())
	assert.Error(t, m.GetContext().Err())

	// second cleanup is a no-op
	m.Cleanup()
	assert.Len(t, prog.calls, 1)
}

func TestSetProgrammerAfterCleanup(t *testing.T) {
	m := NewConsoleModel("fake0")
	m.Cleanup()

	prog := &fakeProgrammer{}
	err := m.SetProgrammer(prog)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, m.GetProgrammer())
	assert.False(t, prog.closed, "refused programmer stays with the caller")
}

func TestSetProgrammerRacesCleanup(t *testing.T) {
	for i := 0; i < 100; i++ {
		m := NewConsoleModel("fake0")
		prog := &fakeProgrammer{}

		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := m.SetProgrammer(prog); err != nil {
				prog.Close()
			}
		}()
		m.Cleanup()
		<-done

		// whichever side won, the programmer ends up closed
		assert.True(t, prog.closed)
		assert.Nil(t, m.GetProgrammer())
	}
}

func TestInputModeString(t *testing.T) {
	assert.Equal(t, "NORMAL", InputModeNormal.String())
	assert.Equal(t, "INSERT", InputModeInsert.String())
}
