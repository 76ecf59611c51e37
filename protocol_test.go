package serprog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendCommandACKWithReply(t *testing.T) {
	dev := newFakeDevice(ACK, 0x01, 0x00)
	e := NewEngine(dev)

	reply, err := e.SendCommand(CmdQIface, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00}, reply)
	assert.Equal(t, []byte{0x01}, dev.tx)
	assert.Equal(t, []int{1, 2}, dev.reads)
}

func TestSendCommandWritesOpcodeThenParams(t *testing.T) {
	dev := newFakeDevice(ACK)
	e := NewEngine(dev)

	reply, err := e.SendCommand(CmdSBusType, []byte{byte(BusSPI)}, 0)
	require.NoError(t, err)
	assert.NotNil(t, reply)
	assert.Empty(t, reply)
	assert.Equal(t, []byte{0x12, 0x08}, dev.tx)
	assert.Equal(t, []int{1}, dev.reads)
}

func TestSendCommandNAKReadsNoReply(t *testing.T) {
	dev := newFakeDevice(NAK, 0xAA, 0xBB)
	e := NewEngine(dev)

	_, err := e.SendCommand(CmdOSPIOp, make([]byte, 6), 2)
	require.ErrorIs(t, err, ErrCommandRejected)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, CmdOSPIOp, cmdErr.Opcode)
	assert.Equal(t, []int{1}, dev.reads)
	assert.Len(t, dev.rx, 2, "reply bytes must stay unread")
}

func TestSendCommandInvalidStatus(t *testing.T) {
	dev := newFakeDevice(0x42, 0x00, 0x00, 0x00, 0x00)
	e := NewEngine(dev)

	_, err := e.SendCommand(CmdSSPIFreq, encodeClock(1000000), 4)
	require.ErrorIs(t, err, ErrProtocolViolation)
	assert.NotErrorIs(t, err, ErrCommandRejected)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, CmdSSPIFreq, protoErr.Opcode)
	assert.Equal(t, byte(0x42), protoErr.Status)
	assert.Equal(t, "invalid response 0x42 from device (to command 0x14)", err.Error())
	assert.Equal(t, []int{1}, dev.reads)
}

func TestSendCommandWriteFailure(t *testing.T) {
	dev := newFakeDevice(ACK)
	dev.writeErr = errUnplugged
	e := NewEngine(dev)

	_, err := e.SendCommand(CmdSyncNOP, nil, 0)
	require.ErrorIs(t, err, errUnplugged)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "write opcode", cmdErr.Stage)
	assert.Empty(t, dev.reads)
}

func TestSendCommandStatusTimeout(t *testing.T) {
	dev := newFakeDevice()
	e := NewEngine(dev)

	_, err := e.SendCommand(CmdNOP, nil, 0)
	require.ErrorIs(t, err, ErrUnresponsive)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "read status", cmdErr.Stage)
}

func TestSendCommandShortReply(t *testing.T) {
	dev := newFakeDevice(ACK, 0x01)
	e := NewEngine(dev)

	_, err := e.SendCommand(CmdQIface, nil, 2)
	require.ErrorIs(t, err, ErrUnresponsive)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "read reply", cmdErr.Stage)
	assert.Equal(t, 2, cmdErr.Count)
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "O_SPIOP(0x13)", CmdOSPIOp.String())
	assert.Equal(t, "SYNCNOP(0x10)", CmdSyncNOP.String())
	assert.Equal(t, "0x7F", Opcode(0x7F).String())
}
