package crosslink

// BufferPool recycles payload buffers for a channel's receive path. Every
// pooled buffer carries the slot's full payload capacity, so any recycled
// buffer can hold any frame the slot can deliver regardless of the length
// it was last handed out at. It is channel-based and safe for concurrent
// use without locks.
type BufferPool struct {
	free     chan []byte
	capacity int
}

// NewBufferPool creates a pool of count buffers, each able to hold
// capacity bytes.
func NewBufferPool(capacity, count int) *BufferPool {
	bp := &BufferPool{
		free:     make(chan []byte, count),
		capacity: capacity,
	}
	for i := 0; i < count; i++ {
		bp.free <- make([]byte, capacity)
	}
	return bp
}

// Get returns a buffer of length n, allocating a fresh one if the pool is
// empty. A request beyond the pool's capacity is satisfied with a one-off
// allocation that Put will later discard.
func (bp *BufferPool) Get(n int) []byte {
	if n > bp.capacity {
		return make([]byte, n)
	}
	select {
	case buf := <-bp.free:
		return buf[:n]
	default:
		return make([]byte, n, bp.capacity)
	}
}

// Put returns a buffer for reuse. Buffers that do not carry the pool's
// capacity, or arriving when the pool is full, are left to the garbage
// collector.
func (bp *BufferPool) Put(buf []byte) {
	if cap(buf) != bp.capacity {
		return
	}
	select {
	case bp.free <- buf[:bp.capacity]:
	default:
	}
}
