package serprog

import (
	"errors"
	"fmt"
	"time"
)

var errUnplugged = errors.New("device unplugged")

// fakePort is a scripted raw port
type fakePort struct {
	readFn  func(buf []byte) (int, error)
	writeFn func(data []byte) (int, error)

	written    []byte
	readCalls  int
	writeCalls int
	flushes    int
	closed     bool
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.readCalls++
	return p.readFn(buf)
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.writeCalls++
	n, err := p.writeFn(data)
	if n > 0 {
		p.written = append(p.written, data[:n]...)
	}
	return n, err
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

// flushingPort additionally implements flusher
type flushingPort struct {
	*fakePort
	flushErr error
}

func (p *flushingPort) Flush() error {
	p.flushes++
	return p.flushErr
}

// oneByteAtATime serves data one byte per call
func oneByteAtATime(data []byte) func([]byte) (int, error) {
	return func(buf []byte) (int, error) {
		if len(data) == 0 {
			return 0, nil
		}
		buf[0] = data[0]
		data = data[1:]
		return 1, nil
	}
}

func alwaysEmpty([]byte) (int, error) { return 0, nil }

func acceptAll(data []byte) (int, error) { return len(data), nil }

// recordingSleep counts sleeps instead of sleeping
type recordingSleep struct {
	calls []time.Duration
}

func (s *recordingSleep) sleep(d time.Duration) {
	s.calls = append(s.calls, d)
}

// fakeDevice is a Channel whose replies are queued up front
type fakeDevice struct {
	rx       []byte
	tx       []byte
	reads    []int
	writeErr error
	closed   bool
}

func newFakeDevice(replies ...byte) *fakeDevice {
	return &fakeDevice{rx: replies}
}

func (d *fakeDevice) Read(n int) ([]byte, error) {
	if d.closed {
		return nil, ErrPortClosed
	}
	d.reads = append(d.reads, n)
	if len(d.rx) < n {
		return nil, fmt.Errorf("%w: read stalled after %d of %d bytes", ErrUnresponsive, len(d.rx), n)
	}
	out := make([]byte, n)
	copy(out, d.rx[:n])
	d.rx = d.rx[n:]
	return out, nil
}

func (d *fakeDevice) Write(data []byte) error {
	if d.closed {
		return ErrPortClosed
	}
	if d.writeErr != nil {
		return d.writeErr
	}
	d.tx = append(d.tx, data...)
	return nil
}

func (d *fakeDevice) Close() error {
	if d.closed {
		return ErrPortClosed
	}
	d.closed = true
	return nil
}

func (d *fakeDevice) Device() string {
	return "fake0"
}
