package crosslink

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
)

// slot framing: a 4-byte big-endian length prefix followed by the payload.
const slotHeaderSize = 4

var _ Transport = (*Channel)(nil)

// Channel is a single-slot, half-duplex message channel over one bundle.
//
// Both sides run the same two state machines. The write path: acquire the
// lock, frame the payload into the slot, release the lock, signal ready,
// block on ack. The read path: block on ready, acquire the lock, read the
// frame, release the lock, signal ack. The lock fully serializes slot
// access, so a reader never observes a partial payload; the event pair
// wakes each side exactly once per round trip, so no signal is lost and
// nobody busy-waits.
//
// Exactly one message is in flight per round trip: a second Send issued
// before the first is acknowledged blocks instead of overwriting the slot.
// Send and Receive are individually safe for concurrent use; concurrent
// calls on the same side serialize in arrival order.
//
// The creator side starts out holding the lock and must call Unlock after
// any parent-side slot initialization, before either side can exchange
// messages.
type Channel struct {
	bundle *Bundle
	slot   []byte
	pool   *BufferPool

	creator bool
	unlock  sync.Once

	sendMu sync.Mutex
	recvMu sync.Mutex
}

func newChannel(b *Bundle, creator bool) *Channel {
	slot := b.Memory.Bytes()
	capacity := len(slot) - slotHeaderSize
	if capacity < 0 {
		capacity = 0
	}
	return &Channel{
		bundle:  b,
		slot:    slot,
		pool:    NewBufferPool(capacity, 4),
		creator: creator,
	}
}

// NewChannel wraps an existing bundle created by CreateBundle. The caller
// is the creator side and holds the lock until Unlock. The channel owns
// the bundle from this point; Close releases it.
func NewChannel(b *Bundle) *Channel {
	return newChannel(b, true)
}

// OpenChannel attaches to the bundle a parent created, using the
// identities it passed on the command line. The returned channel is the
// non-creator side and does not hold the lock.
func OpenChannel(sys System, args ChannelArgs) (*Channel, error) {
	mem, err := sys.OpenMemory(args.MemoryID, args.Size)
	if err != nil {
		return nil, err
	}
	lock, err := sys.OpenLock(args.LockID)
	if err != nil {
		mem.Close()
		return nil, err
	}
	ready, err := sys.OpenEvent(args.ReadyID)
	if err != nil {
		lock.Close()
		mem.Close()
		return nil, err
	}
	ack, err := sys.OpenEvent(args.AckID)
	if err != nil {
		ready.Close()
		lock.Close()
		mem.Close()
		return nil, err
	}
	b := &Bundle{Memory: mem, Lock: lock, Ready: ready, Ack: ack}
	return newChannel(b, false), nil
}

// MaxPayload returns the largest payload the slot can frame.
func (c *Channel) MaxPayload() int {
	return len(c.slot) - slotHeaderSize
}

// Unlock releases the creator's initial hold on the bundle lock, letting
// the peer at the shared slot. It must be called exactly once on the
// creator side before the first exchange; extra calls are no-ops, and
// calling it on the non-creator side is an error.
func (c *Channel) Unlock() error {
	if !c.creator {
		return chanErr("unlock", "only the creator side holds the initial lock")
	}
	var err error
	c.unlock.Do(func() {
		err = c.bundle.Lock.Release()
	})
	return err
}

// Send runs the write path: it copies the payload into the shared slot
// under the lock, signals the peer, and blocks until the peer acknowledges
// the read. It blocks with no timeout; use SendContext to bound the wait.
func (c *Channel) Send(p []byte) error {
	return c.SendContext(context.Background(), p)
}

// SendContext is Send honoring context cancellation while blocked on the
// lock or on the acknowledgment.
func (c *Channel) SendContext(ctx context.Context, p []byte) error {
	if len(p) > c.MaxPayload() {
		return chanErr("send", fmt.Sprintf("payload of %d bytes exceeds slot capacity %d", len(p), c.MaxPayload()))
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := c.bundle.Lock.AcquireContext(ctx); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(c.slot[:slotHeaderSize], uint32(len(p)))
	copy(c.slot[slotHeaderSize:], p)
	if err := c.bundle.Lock.Release(); err != nil {
		return err
	}
	if err := c.bundle.Ready.Set(); err != nil {
		return err
	}
	return c.bundle.Ack.WaitContext(ctx)
}

// Receive runs the read path: it blocks until the peer signals a message,
// copies the payload out of the slot under the lock, and acknowledges. The
// returned buffer comes from an internal pool; hand it back with Recycle
// when done to reduce allocation churn.
func (c *Channel) Receive() ([]byte, error) {
	return c.ReceiveContext(context.Background())
}

// ReceiveContext is Receive honoring context cancellation while blocked
// waiting for a message or for the lock.
func (c *Channel) ReceiveContext(ctx context.Context) ([]byte, error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	if err := c.bundle.Ready.WaitContext(ctx); err != nil {
		return nil, err
	}
	if err := c.bundle.Lock.AcquireContext(ctx); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(c.slot[:slotHeaderSize])
	if int(n) > c.MaxPayload() {
		c.bundle.Lock.Release()
		return nil, chanErr("receive", fmt.Sprintf("frame length %d exceeds slot capacity %d", n, c.MaxPayload()))
	}
	payload := c.pool.Get(int(n))
	copy(payload, c.slot[slotHeaderSize:slotHeaderSize+n])
	if err := c.bundle.Lock.Release(); err != nil {
		return nil, err
	}
	if err := c.bundle.Ack.Set(); err != nil {
		return nil, err
	}
	return payload, nil
}

// Recycle returns a buffer obtained from Receive to the channel's pool.
// The buffer must not be used afterwards.
func (c *Channel) Recycle(p []byte) {
	c.pool.Put(p)
}

// Flush implements Transport. Slot writes are visible to the peer as soon
// as the ready event fires, so there is nothing to flush.
func (c *Channel) Flush() error { return nil }

// Close releases the channel's bundle. The kernel objects disappear once
// the peer closes its handles too.
func (c *Channel) Close() error {
	return c.bundle.Close()
}
