package serprog

import "time"

// Config holds the configuration for a programmer channel
type Config struct {
	BaudRate    int
	ReadTimeout time.Duration // per-call wait before a read reports zero bytes
	ReadRetry   RetryPolicy
	WriteRetry  RetryPolicy
}

// Option is a functional option for configuring a channel
type Option func(*Config) error

// DefaultConfig returns a configuration with the platform defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		ReadTimeout: defaultReadTimeout,
		ReadRetry:   defaultReadRetry,
		WriteRetry:  defaultWriteRetry,
	}
}

// WithBaudRate sets the baud rate. Rates outside the standard table are
// accepted; backends that cannot program them fail at open time.
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithReadTimeout sets how long a single read call waits for data.
// On Linux this becomes VTIME and must be a multiple of 100ms up to 25.5s.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > 25500*time.Millisecond {
			return ErrInvalidConfig
		}
		if timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithReadRetry sets the zero-byte read policy
func WithReadRetry(maxEmpty int, delay time.Duration) Option {
	return func(c *Config) error {
		if maxEmpty < 1 || delay < 0 {
			return ErrInvalidConfig
		}
		c.ReadRetry = RetryPolicy{MaxEmpty: maxEmpty, Delay: delay}
		return nil
	}
}

// WithWriteRetry sets the zero-byte write policy
func WithWriteRetry(maxEmpty int, delay time.Duration) Option {
	return func(c *Config) error {
		if maxEmpty < 1 || delay < 0 {
			return ErrInvalidConfig
		}
		c.WriteRetry = RetryPolicy{MaxEmpty: maxEmpty, Delay: delay}
		return nil
	}
}
