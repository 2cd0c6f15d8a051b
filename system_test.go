package crosslink

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// errInjected is the failure injected by fakeSystem.failAt.
var errInjected = errors.New("injected create failure")

// fakeSystem is an in-process primitive layer for tests. It counts every
// successful creation and every close so leak properties can be asserted,
// and can be told to fail the nth creation call.
type fakeSystem struct {
	mu      sync.Mutex
	calls   int
	created int
	closed  int
	failAt  int // 1-based creation call to fail; 0 = never fail
}

func (s *fakeSystem) beginCreate(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failAt != 0 && s.calls == s.failAt {
		return sysErr(op, errInjected)
	}
	s.created++
	return nil
}

func (s *fakeSystem) noteClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *fakeSystem) counts() (created, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created, s.closed
}

func (s *fakeSystem) CreateMemory(size int, inheritable bool) (Memory, error) {
	if err := s.beginCreate("create memory"); err != nil {
		return nil, err
	}
	return &fakeMemory{sys: s, buf: make([]byte, size)}, nil
}

func (s *fakeSystem) CreateLock(initiallyOwned, inheritable bool) (Lock, error) {
	if err := s.beginCreate("create lock"); err != nil {
		return nil, err
	}
	l := &fakeLock{sys: s, ch: make(chan struct{}, 1)}
	if initiallyOwned {
		// The creator counts as the current holder.
		l.holders.Store(1)
	} else {
		l.ch <- struct{}{}
	}
	return l, nil
}

func (s *fakeSystem) CreateEvent(inheritable bool) (Event, error) {
	if err := s.beginCreate("create event"); err != nil {
		return nil, err
	}
	return &fakeEvent{sys: s, ch: make(chan struct{}, 1)}, nil
}

// The fake has no cross-process identity space; channel pairs in tests
// share a bundle directly instead of attaching by identity.

func (s *fakeSystem) OpenMemory(id, size int) (Memory, error) {
	return nil, chanErr("open memory", "fake system has no identity space")
}

func (s *fakeSystem) OpenLock(id int) (Lock, error) {
	return nil, chanErr("open lock", "fake system has no identity space")
}

func (s *fakeSystem) OpenEvent(id int) (Event, error) {
	return nil, chanErr("open event", "fake system has no identity space")
}

type fakeMemory struct {
	sys    *fakeSystem
	buf    []byte
	closed bool
}

func (m *fakeMemory) Bytes() []byte { return m.buf }

func (m *fakeMemory) Size() int { return len(m.buf) }

func (m *fakeMemory) Close() error {
	if !m.closed {
		m.closed = true
		m.sys.noteClose()
	}
	return nil
}

// fakeLock is a binary semaphore: a token in the channel means unlocked.
// It records the maximum number of simultaneous holders ever observed so
// mutual-exclusion tests can assert it stayed at one.
type fakeLock struct {
	sys        *fakeSystem
	ch         chan struct{}
	holders    atomic.Int32
	maxHolders atomic.Int32
	closed     bool
}

func (l *fakeLock) noteHeld() {
	h := l.holders.Add(1)
	for {
		max := l.maxHolders.Load()
		if h <= max || l.maxHolders.CompareAndSwap(max, h) {
			return
		}
	}
}

func (l *fakeLock) Acquire() error {
	<-l.ch
	l.noteHeld()
	return nil
}

func (l *fakeLock) AcquireContext(ctx context.Context) error {
	select {
	case <-l.ch:
		l.noteHeld()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *fakeLock) Release() error {
	l.holders.Add(-1)
	l.ch <- struct{}{}
	return nil
}

func (l *fakeLock) Close() error {
	if !l.closed {
		l.closed = true
		l.sys.noteClose()
	}
	return nil
}

// fakeEvent coalesces signals like an eventfd counter: Set on an already
// signaled event is a no-op, Wait consumes the signal.
type fakeEvent struct {
	sys    *fakeSystem
	ch     chan struct{}
	closed bool
}

func (e *fakeEvent) Set() error {
	select {
	case e.ch <- struct{}{}:
	default:
	}
	return nil
}

func (e *fakeEvent) Wait() error {
	<-e.ch
	return nil
}

func (e *fakeEvent) WaitContext(ctx context.Context) error {
	select {
	case <-e.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *fakeEvent) Close() error {
	if !e.closed {
		e.closed = true
		e.sys.noteClose()
	}
	return nil
}
