package serprog

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Channel is an open, configured connection to a programmer.
// Read and Write block until every byte is transferred or the configured
// RetryPolicy gives up.
type Channel interface {
	Read(n int) ([]byte, error)
	Write(data []byte) error
	Close() error
	Device() string
}

// port is the raw platform primitive underneath a channel. A zero count with
// a nil error means the call timed out without transferring anything.
type port interface {
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	Close() error
}

// flusher is implemented by backends that buffer writes in the OS
type flusher interface {
	Flush() error
}

// channel is the concrete implementation of the Channel interface
type channel struct {
	mu     sync.Mutex
	port   port
	device string
	config Config
	closed bool
}

// Ensure channel implements Channel interface at compile time
var _ Channel = (*channel)(nil)

// Open opens device and configures it for raw 8N1 operation without flow
// control at the configured baud rate.
func Open(device string, opts ...Option) (Channel, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	p, err := openPort(device, config)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("opened %s at %d baud", device, config.BaudRate)

	return newChannel(device, p, config), nil
}

func newChannel(device string, p port, config Config) *channel {
	return &channel{
		port:   p,
		device: device,
		config: config,
	}
}

// Device returns the device name the channel was opened with
func (c *channel) Device() string {
	return c.device
}

// Read reads exactly n bytes
func (c *channel) Read(n int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrPortClosed
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", ErrInvalidConfig, n)
	}

	buf := make([]byte, n)
	if err := c.config.ReadRetry.transfer("read", buf, c.port.Read); err != nil {
		return nil, err
	}
	return buf, nil
}

// Write writes all of data
func (c *channel) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrPortClosed
	}
	if len(data) == 0 {
		return nil
	}

	if err := c.config.WriteRetry.transfer("write", data, c.port.Write); err != nil {
		return err
	}

	if f, ok := c.port.(flusher); ok {
		if err := f.Flush(); err != nil {
			glog.Warningf("serial port flush error on %s: %v", c.device, err)
		}
	}
	return nil
}

// Close closes the channel. A second Close returns ErrPortClosed.
func (c *channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrPortClosed
	}
	c.closed = true
	return c.port.Close()
}
