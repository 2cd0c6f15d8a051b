//go:build linux

package crosslink

import (
	"context"
	"encoding/binary"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// linuxSystem implements System with memfd-backed shared memory and
// eventfd synchronization primitives. Everything is a file descriptor, so
// inheritance is ordinary fd inheritance and an identity is the fd number
// the primitive occupies in the child.
type linuxSystem struct{}

// NewSystem returns the primitive layer for this platform.
func NewSystem() System {
	return linuxSystem{}
}

// mappedMemory is a memfd segment mapped into the process. The backing
// pages live in kernel memory (tmpfs), not in a filesystem, and are freed
// once the last referencing descriptor in any process is closed.
type mappedMemory struct {
	f    *os.File
	view []byte
}

func (linuxSystem) CreateMemory(size int, inheritable bool) (Memory, error) {
	if size <= 0 {
		return nil, chanErr("create memory", "non-positive region size")
	}
	flags := unix.MFD_CLOEXEC
	if inheritable {
		flags = 0
	}
	fd, err := unix.MemfdCreate("crosslink-slot", flags)
	if err != nil {
		return nil, sysErr("memfd_create", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, sysErr("ftruncate", err)
	}
	return mapMemory(fd, size)
}

func (linuxSystem) OpenMemory(id, size int) (Memory, error) {
	if size <= 0 {
		return nil, chanErr("open memory", "non-positive region size")
	}
	return mapMemory(id, size)
}

func mapMemory(fd, size int) (Memory, error) {
	view, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, sysErr("mmap", err)
	}
	return &mappedMemory{
		f:    os.NewFile(uintptr(fd), "crosslink-slot"),
		view: view,
	}, nil
}

func (m *mappedMemory) Bytes() []byte { return m.view }

func (m *mappedMemory) Size() int { return len(m.view) }

func (m *mappedMemory) Close() error {
	if m.view == nil {
		return nil
	}
	err := unix.Munmap(m.view)
	m.view = nil
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// File returns the descriptor backing the region, for inheritance.
func (m *mappedMemory) File() *os.File { return m.f }

// eventFD is an eventfd wrapped in an *os.File so blocking waits park the
// goroutine on the runtime poller instead of pinning an OS thread.
//
// The counter gives exactly the semantics the handshake needs: a write
// adds to the counter (Set), a read blocks until it is non-zero and
// atomically zeroes it (Wait plus reset in one step).
//
// Cancellation works by landing a past read deadline on the descriptor,
// which unblocks a pending read. The deadline is file-wide, so waiters
// are admitted one at a time through waitSlot: only the canceled call is
// ever blocked on the descriptor when its deadline lands, and the next
// waiter enters after the deadline has been cleared again.
type eventFD struct {
	f        *os.File
	waitSlot chan struct{}
}

func newEventFD(initval uint, inheritable bool) (*eventFD, error) {
	flags := unix.EFD_NONBLOCK
	if !inheritable {
		flags |= unix.EFD_CLOEXEC
	}
	fd, err := unix.Eventfd(initval, flags)
	if err != nil {
		return nil, sysErr("eventfd", err)
	}
	return &eventFD{
		f:        os.NewFile(uintptr(fd), "crosslink-event"),
		waitSlot: make(chan struct{}, 1),
	}, nil
}

func openEventFD(id int) (*eventFD, error) {
	if id < 0 {
		return nil, chanErr("open event", "negative descriptor identity")
	}
	// Inherited descriptors share the parent's open file description,
	// which is already in non-blocking mode.
	return &eventFD{
		f:        os.NewFile(uintptr(id), "crosslink-event"),
		waitSlot: make(chan struct{}, 1),
	}, nil
}

func (e *eventFD) Set() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	if _, err := e.f.Write(buf[:]); err != nil {
		return sysErr("eventfd write", err)
	}
	return nil
}

func (e *eventFD) read() error {
	var buf [8]byte
	if _, err := e.f.Read(buf[:]); err != nil {
		return sysErr("eventfd read", err)
	}
	return nil
}

func (e *eventFD) Wait() error {
	e.waitSlot <- struct{}{}
	defer func() { <-e.waitSlot }()
	return e.read()
}

func (e *eventFD) WaitContext(ctx context.Context) error {
	if ctx.Done() == nil {
		return e.Wait()
	}
	select {
	case e.waitSlot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.waitSlot }()

	stopc := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		// A deadline in the past forces the blocked read to return.
		e.f.SetReadDeadline(time.Unix(0, 0))
		close(stopc)
	})
	err := e.read()
	if !stop() {
		// The context fired. Wait for the callback to finish landing its
		// deadline before clearing it, so the event stays usable.
		<-stopc
		e.f.SetReadDeadline(time.Time{})
		if err != nil {
			return ctx.Err()
		}
	}
	return err
}

func (e *eventFD) Close() error { return e.f.Close() }

// File returns the descriptor backing the event, for inheritance.
func (e *eventFD) File() *os.File { return e.f }

func (linuxSystem) CreateEvent(inheritable bool) (Event, error) {
	return newEventFD(0, inheritable)
}

func (linuxSystem) OpenEvent(id int) (Event, error) {
	return openEventFD(id)
}

// fdLock is a binary semaphore built on an eventfd: counter 1 means
// unlocked, 0 means held. Acquire consumes the token, Release restores it.
// Creating the lock with counter 0 hands initial ownership to the creator.
type fdLock struct {
	*eventFD
}

func (l *fdLock) Acquire() error { return l.Wait() }

func (l *fdLock) AcquireContext(ctx context.Context) error { return l.WaitContext(ctx) }

func (l *fdLock) Release() error { return l.Set() }

func (linuxSystem) CreateLock(initiallyOwned, inheritable bool) (Lock, error) {
	initval := uint(1)
	if initiallyOwned {
		initval = 0
	}
	e, err := newEventFD(initval, inheritable)
	if err != nil {
		return nil, err
	}
	return &fdLock{eventFD: e}, nil
}

func (linuxSystem) OpenLock(id int) (Lock, error) {
	e, err := openEventFD(id)
	if err != nil {
		return nil, err
	}
	return &fdLock{eventFD: e}, nil
}
