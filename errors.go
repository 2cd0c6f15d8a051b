package crosslink

import (
	"errors"
	"fmt"
)

// ErrNotSupported is returned when shared-memory channels are requested on
// a platform without a primitive-layer implementation.
var ErrNotSupported = errors.New("crosslink: shared memory channels are not supported on this platform")

// ChannelError reports a protocol-level failure in the channel layer: the
// underlying OS calls succeeded (or were never made) but the bundle or
// channel state is not usable. A ChannelError aborts the single operation
// that raised it; the caller may retry with a fresh launch.
type ChannelError struct {
	// Op is the operation that failed (e.g., "send", "parse token").
	Op string

	// Reason describes what was wrong.
	Reason string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("crosslink: %s: %s", e.Op, e.Reason)
}

// SysError reports a failed OS call, carrying the OS-reported cause
// verbatim. It is not classified further.
type SysError struct {
	// Op is the OS operation that failed (e.g., "eventfd", "start process").
	Op string

	// Err is the underlying OS error.
	Err error
}

func (e *SysError) Error() string {
	return fmt.Sprintf("crosslink: %s: %v", e.Op, e.Err)
}

func (e *SysError) Unwrap() error {
	return e.Err
}

func chanErr(op, reason string) error {
	return &ChannelError{Op: op, Reason: reason}
}

func sysErr(op string, err error) error {
	return &SysError{Op: op, Err: err}
}
