package serprog

import (
	"fmt"

	"github.com/golang/glog"
)

// Status bytes
const (
	ACK byte = 0x06
	NAK byte = 0x15
)

// Opcode selects a serprog command
type Opcode byte

// serprog command set, protocol version 1
const (
	CmdNOP        Opcode = 0x00 // No operation
	CmdQIface     Opcode = 0x01 // Query interface version
	CmdQCmdMap    Opcode = 0x02 // Query supported commands bitmap
	CmdQPgmName   Opcode = 0x03 // Query programmer name
	CmdQSerBuf    Opcode = 0x04 // Query serial buffer size
	CmdQBusType   Opcode = 0x05 // Query supported bustypes
	CmdQChipSize  Opcode = 0x06 // Query supported chipsize (2^n format)
	CmdQOpBuf     Opcode = 0x07 // Query operation buffer size
	CmdQWrNMaxLen Opcode = 0x08 // Query Write to opbuf: Write-N maximum length
	CmdRByte      Opcode = 0x09 // Read a single byte
	CmdRNBytes    Opcode = 0x0A // Read n bytes
	CmdOInit      Opcode = 0x0B // Initialize operation buffer
	CmdOWriteB    Opcode = 0x0C // Write opbuf: Write byte with address
	CmdOWriteN    Opcode = 0x0D // Write to opbuf: Write-N
	CmdODelay     Opcode = 0x0E // Write opbuf: udelay
	CmdOExec      Opcode = 0x0F // Execute operation buffer
	CmdSyncNOP    Opcode = 0x10 // Special no-operation that returns NAK+ACK
	CmdQRdNMaxLen Opcode = 0x11 // Query read-n maximum length
	CmdSBusType   Opcode = 0x12 // Set used bustype(s)
	CmdOSPIOp     Opcode = 0x13 // Perform SPI operation
	CmdSSPIFreq   Opcode = 0x14 // Set SPI clock frequency
	CmdSPinState  Opcode = 0x15 // Enable/disable output drivers
)

var opcodeNames = map[Opcode]string{
	CmdNOP:        "NOP",
	CmdQIface:     "Q_IFACE",
	CmdQCmdMap:    "Q_CMDMAP",
	CmdQPgmName:   "Q_PGMNAME",
	CmdQSerBuf:    "Q_SERBUF",
	CmdQBusType:   "Q_BUSTYPE",
	CmdQChipSize:  "Q_CHIPSIZE",
	CmdQOpBuf:     "Q_OPBUF",
	CmdQWrNMaxLen: "Q_WRNMAXLEN",
	CmdRByte:      "R_BYTE",
	CmdRNBytes:    "R_NBYTES",
	CmdOInit:      "O_INIT",
	CmdOWriteB:    "O_WRITEB",
	CmdOWriteN:    "O_WRITEN",
	CmdODelay:     "O_DELAY",
	CmdOExec:      "O_EXEC",
	CmdSyncNOP:    "SYNCNOP",
	CmdQRdNMaxLen: "Q_RDNMAXLEN",
	CmdSBusType:   "S_BUSTYPE",
	CmdOSPIOp:     "O_SPIOP",
	CmdSSPIFreq:   "S_SPI_FREQ",
	CmdSPinState:  "S_PIN_STATE",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return fmt.Sprintf("%s(0x%02X)", name, byte(o))
	}
	return fmt.Sprintf("0x%02X", byte(o))
}

// Engine drives one command/response exchange at a time over a Channel.
// It keeps no state between commands.
type Engine struct {
	ch Channel
}

// NewEngine returns an Engine using ch
func NewEngine(ch Channel) *Engine {
	return &Engine{ch: ch}
}

// SendCommand writes the opcode and params, reads the status byte and, only
// after an ACK, reads replyLen reply bytes.
func (e *Engine) SendCommand(op Opcode, params []byte, replyLen int) ([]byte, error) {
	glog.V(2).Infof("-> %s params=%d reply=%d", op, len(params), replyLen)

	if err := e.ch.Write([]byte{byte(op)}); err != nil {
		return nil, &CommandError{Opcode: op, Stage: "write opcode", Count: 1, Err: err}
	}
	if err := e.ch.Write(params); err != nil {
		return nil, &CommandError{Opcode: op, Stage: "write parameters", Count: len(params), Err: err}
	}

	status, err := e.ch.Read(1)
	if err != nil {
		return nil, &CommandError{Opcode: op, Stage: "read status", Count: 1, Err: err}
	}

	switch status[0] {
	case ACK:
	case NAK:
		glog.V(2).Infof("<- %s NAK", op)
		return nil, &CommandError{Opcode: op, Stage: "status", Err: ErrCommandRejected}
	default:
		return nil, &ProtocolError{Opcode: op, Status: status[0]}
	}

	if replyLen <= 0 {
		return []byte{}, nil
	}
	reply, err := e.ch.Read(replyLen)
	if err != nil {
		return nil, &CommandError{Opcode: op, Stage: "read reply", Count: replyLen, Err: err}
	}
	glog.V(2).Infof("<- %s ACK reply=%d", op, len(reply))
	return reply, nil
}
