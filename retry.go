package serprog

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/golang/glog"
)

// RetryPolicy bounds how long a transfer may stall on zero-byte results.
// Partial transfers are not stalls: the remainder is retried immediately
// and the empty count starts over.
type RetryPolicy struct {
	MaxEmpty int           // consecutive zero-byte results before giving up
	Delay    time.Duration // pause after each zero-byte result

	sleep func(time.Duration)
}

// transferFunc is a single read or write primitive call
type transferFunc func(buf []byte) (int, error)

// transfer calls fn until buf is fully consumed. It fails with ErrUnresponsive
// after MaxEmpty consecutive zero-byte results and with ErrIO on the first hard
// error.
func (r RetryPolicy) transfer(op string, buf []byte, fn transferFunc) error {
	maxEmpty := r.MaxEmpty
	if maxEmpty < 1 {
		maxEmpty = 1
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	done := 0
	empty := 0
	for done < len(buf) {
		n, err := fn(buf[done:])
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("%w: %s after %d of %d bytes: %w", ErrIO, op, done, len(buf), err)
		}
		if n < 0 || n > len(buf)-done {
			return fmt.Errorf("%w: %s returned invalid count %d", ErrIO, op, n)
		}
		if n > 0 {
			done += n
			empty = 0
			continue
		}

		empty++
		glog.V(2).Infof("empty %s (%d/%d)", op, empty, maxEmpty)
		if empty >= maxEmpty {
			return fmt.Errorf("%w: %s stalled after %d of %d bytes", ErrUnresponsive, op, done, len(buf))
		}
		if r.Delay > 0 {
			sleep(r.Delay)
		}
	}
	return nil
}
