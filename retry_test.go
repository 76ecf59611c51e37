package serprog

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTransferAccumulatesPartialReads(t *testing.T) {
	want := []byte("serprog partial transfer")
	p := &fakePort{readFn: oneByteAtATime(want)}

	buf := make([]byte, len(want))
	err := RetryPolicy{MaxEmpty: 1}.transfer("read", buf, p.Read)
	require.NoError(t, err)
	require.Equal(t, want, buf)
	require.Equal(t, len(want), p.readCalls)
}

func TestTransferAlwaysEmptyIsBounded(t *testing.T) {
	for _, maxEmpty := range []int{1, 3, 10, 250} {
		t.Run(fmt.Sprintf("max=%d", maxEmpty), func(t *testing.T) {
			p := &fakePort{readFn: alwaysEmpty}
			s := &recordingSleep{}
			policy := RetryPolicy{MaxEmpty: maxEmpty, Delay: time.Millisecond, sleep: s.sleep}

			err := policy.transfer("read", make([]byte, 4), p.Read)
			require.ErrorIs(t, err, ErrUnresponsive)
			require.NotErrorIs(t, err, ErrIO)
			require.Equal(t, maxEmpty, p.readCalls)
			require.Len(t, s.calls, maxEmpty-1)
		})
	}
}

func TestTransferHardErrorFailsImmediately(t *testing.T) {
	p := &fakePort{readFn: func([]byte) (int, error) { return 0, errUnplugged }}
	s := &recordingSleep{}

	err := RetryPolicy{MaxEmpty: 10, Delay: time.Second, sleep: s.sleep}.transfer("read", make([]byte, 8), p.Read)
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, errUnplugged)
	require.NotErrorIs(t, err, ErrUnresponsive)
	require.Equal(t, 1, p.readCalls)
	require.Empty(t, s.calls)
}

func TestTransferProgressResetsEmptyCount(t *testing.T) {
	// two empties between every byte never reach MaxEmpty=3
	var calls int
	data := []byte{1, 2, 3, 4}
	read := func(buf []byte) (int, error) {
		calls++
		if calls%3 != 0 {
			return 0, nil
		}
		buf[0] = data[0]
		data = data[1:]
		return 1, nil
	}

	buf := make([]byte, 4)
	err := RetryPolicy{MaxEmpty: 3, sleep: func(time.Duration) {}}.transfer("read", buf, read)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestTransferRetriesEINTR(t *testing.T) {
	first := true
	read := func(buf []byte) (int, error) {
		if first {
			first = false
			return 0, syscall.EINTR
		}
		buf[0] = 0x06
		return 1, nil
	}

	buf := make([]byte, 1)
	require.NoError(t, RetryPolicy{MaxEmpty: 1}.transfer("read", buf, read))
	require.Equal(t, byte(0x06), buf[0])
}

func TestTransferRejectsBogusCount(t *testing.T) {
	read := func(buf []byte) (int, error) { return len(buf) + 1, nil }
	err := RetryPolicy{MaxEmpty: 1}.transfer("read", make([]byte, 2), read)
	require.True(t, errors.Is(err, ErrIO))
}

func TestTransferEmptyBuffer(t *testing.T) {
	p := &fakePort{readFn: alwaysEmpty}
	require.NoError(t, RetryPolicy{MaxEmpty: 1}.transfer("read", nil, p.Read))
	require.Zero(t, p.readCalls)
}
