package crosslink

import "context"

// Memory is a fixed-size shared memory region mapped into this process.
// The region is backed by anonymous kernel memory, not a real file, and is
// destroyed once every referencing handle in every process is closed.
type Memory interface {
	// Bytes returns the mapped view of the region. The slice is valid
	// until Close.
	Bytes() []byte

	// Size returns the size of the region in bytes.
	Size() int

	// Close unmaps the view and releases the local handle.
	Close() error
}

// Lock is a cross-process mutual-exclusion primitive.
//
// A lock created with initial ownership is held by the creator until it
// calls Release; a peer's Acquire blocks until then.
type Lock interface {
	// Acquire blocks until the lock can be taken.
	Acquire() error

	// AcquireContext is Acquire honoring context cancellation.
	AcquireContext(ctx context.Context) error

	// Release gives up the lock, unblocking one waiter.
	Release() error

	// Close releases the local handle.
	Close() error
}

// Event is a cross-process binary signaling primitive.
//
// Wait blocks until the event is signaled and consumes the signal, so a
// woken waiter never needs a separate reset step. Signals set before a
// waiter arrives are not lost.
type Event interface {
	// Set signals the event, waking a waiter.
	Set() error

	// Wait blocks until the event is signaled, then resets it.
	Wait() error

	// WaitContext is Wait honoring context cancellation.
	WaitContext(ctx context.Context) error

	// Close releases the local handle.
	Close() error
}

// System creates and opens the OS primitives a channel is built from.
//
// Create* is the parent side: primitives come into existence here, marked
// inheritable or not per the caller's configuration. Open* is the child
// side: it attaches to primitives the parent created, identified by the
// numeric identities received on the command line.
//
// NewSystem returns the implementation for the current platform.
type System interface {
	// CreateMemory allocates a shared memory region of size bytes.
	CreateMemory(size int, inheritable bool) (Memory, error)

	// CreateLock creates a lock, optionally already held by the caller.
	CreateLock(initiallyOwned, inheritable bool) (Lock, error)

	// CreateEvent creates an unsignaled event.
	CreateEvent(inheritable bool) (Event, error)

	// OpenMemory attaches to an inherited memory region by identity.
	OpenMemory(id, size int) (Memory, error)

	// OpenLock attaches to an inherited lock by identity.
	OpenLock(id int) (Lock, error)

	// OpenEvent attaches to an inherited event by identity.
	OpenEvent(id int) (Event, error)
}
