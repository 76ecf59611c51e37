package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/allbin/go-serprog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

// fakeFlash answers Read ID and Read Data from an in-memory image
type fakeFlash struct {
	id    [3]byte
	image []byte
	txs   [][]byte
	err   error
}

func (f *fakeFlash) String() string { return "fakeFlash" }
func (f *fakeFlash) Halt() error { return nil }
func (f *fakeFlash) Duplex() conn.Duplex { return conn.Half }
func (f *fakeFlash) TxPackets([]spi.Packet) error {
	return errors.New("not implemented")
}

func (f *fakeFlash) Tx(w, r []byte) error {
	f.txs = append(f.txs, append([]byte(nil), w...))
	if f.err != nil {
		return f.err
	}
	switch w[0] {
	case flashCmdReadID:
		copy(r, f.id[:])
	case flashCmdRead:
		addr := int(w[1])<<16 | int(w[2])<<8 | int(w[3])
		copy(r, f.image[addr:])
	}
	return nil
}

func TestReadFlashID(t *testing.T) {
	f := &fakeFlash{id: [3]byte{0xEF, 0x40, 0x18}}

	id, err := readFlashID(f)
	require.NoError(t, err)
	assert.Equal(t, [3]byte{0xEF, 0x40, 0x18}, id)
	assert.Equal(t, [][]byte{{0x9F}}, f.txs)
	assert.Contains(t, knownFlashIDs, id)
}

func TestReadFlashSingleChunk(t *testing.T) {
	image := make([]byte, 0x200)
	for i := range image {
		image[i] = byte(i)
	}
	f := &fakeFlash{image: image}

	data, err := readFlash(f, 0x100, 16)
	require.NoError(t, err)
	assert.Equal(t, image[0x100:0x110], data)
	assert.Equal(t, [][]byte{{0x03, 0x00, 0x01, 0x00}}, f.txs)
}

func TestReadFlashChunks(t *testing.T) {
	image := bytes.Repeat([]byte{0xA5}, 3*maxReadChunk)
	image[maxReadChunk] = 0x5A
	f := &fakeFlash{image: image}

	n := 2*maxReadChunk + 10
	data, err := readFlash(f, 0, n)
	require.NoError(t, err)
	require.Len(t, data, n)
	assert.Equal(t, byte(0x5A), data[maxReadChunk])

	require.Len(t, f.txs, 3)
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x00}, f.txs[0])
	assert.Equal(t, []byte{0x03, 0x01, 0x00, 0x00}, f.txs[1])
	assert.Equal(t, []byte{0x03, 0x02, 0x00, 0x00}, f.txs[2])
}

func TestReadFlashError(t *testing.T) {
	f := &fakeFlash{err: serprog.ErrUnresponsive}

	_, err := readFlash(f, 0x123456, 4)
	require.ErrorIs(t, err, serprog.ErrUnresponsive)
	assert.Contains(t, err.Error(), "0x123456")
}

func TestReadFlashZeroLength(t *testing.T) {
	f := &fakeFlash{}
	data, err := readFlash(f, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Empty(t, f.txs)
}

func TestHexDump(t *testing.T) {
	data := append([]byte("serprog!"), 0x00, 0x01, 0x7F, 0xFF, 'a', 'b', 'c', 'd', 'e')
	lines := strings.Split(strings.TrimSuffix(hexDump(data), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.True(t, strings.HasPrefix(lines[0], "00000000  73 65 72 70 72 6f 67 21 00 01 7f ff 61 62 63 64"))
	assert.True(t, strings.HasSuffix(lines[0], "serprog!....abcd"))
	assert.True(t, strings.HasPrefix(lines[1], "00000010  65"))
	assert.True(t, strings.HasSuffix(lines[1], "  e"))

	assert.Empty(t, hexDump(nil))
}

func TestDeviceName(t *testing.T) {
	t.Cleanup(func() { viper.Set("device", "") })

	viper.Set("device", "/dev/ttyACM3")
	assert.Equal(t, "/dev/ttyACM3", deviceName())

	viper.Set("device", "")
	assert.Equal(t, serprog.DefaultDevice(), deviceName())

	viper.Set("device", "auto")
	assert.NotEmpty(t, deviceName())
	assert.NotEqual(t, "auto", deviceName())
}

func TestOpcodeNames(t *testing.T) {
	names := opcodeNames([]serprog.Opcode{serprog.CmdNOP, serprog.CmdOSPIOp})
	assert.Equal(t, []string{"NOP(0x00)", "O_SPIOP(0x13)"}, names)
	assert.Empty(t, opcodeNames(nil))
}

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	viper.Set("device", "/dev/nonexistent-serprog")
	t.Cleanup(func() {
		viper.Set("device", "")
		rootCmd.SetArgs(nil)
	})
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestCommandsReturnOpenErrors(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("device paths are COM names on Windows")
	}

	tests := [][]string{
		{"spi", "9f", "--read", "3"},
		{"clock", "8MHz"},
		{"prog", "on"},
		{"probe"},
		{"flash", "id"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			err := runRoot(t, args...)
			require.ErrorIs(t, err, serprog.ErrDeviceNotFound)
		})
	}
}

func TestFlashReadLeavesNoFileOnFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("device paths are COM names on Windows")
	}
	out := filepath.Join(t.TempDir(), "image.bin")

	err := runRoot(t, "flash", "read", out, "--addr", "0", "--length", "16")
	require.ErrorIs(t, err, serprog.ErrDeviceNotFound)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "expected no output file, got %v", statErr)
}

func TestFlashReadRejectsRangeBeforeOpening(t *testing.T) {
	err := runRoot(t, "flash", "read", "-", "--addr", "16777215", "--length", "2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, serprog.ErrDeviceNotFound)
	assert.Contains(t, err.Error(), "16 MiB")
}
