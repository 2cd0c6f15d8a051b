package crosslink

import "os"

// DefaultChannelSize is the slot size used when BundleConfig.Size is zero.
const DefaultChannelSize = 4096

// BundleConfig configures bundle creation. Inheritability is an explicit
// per-bundle setting rather than ambient process state.
type BundleConfig struct {
	// Size is the shared memory region size in bytes. Zero selects
	// DefaultChannelSize.
	Size int

	// Inheritable marks every created primitive as inheritable by a child
	// process spawned afterwards. The launcher always sets this.
	Inheritable bool
}

func (c BundleConfig) size() int {
	if c.Size == 0 {
		return DefaultChannelSize
	}
	return c.Size
}

// Bundle is the per-child set of primitives a channel is built on: one
// shared memory region, one lock, and the ready/ack event pair. All four
// are created together so they can be handed to a child as a unit.
type Bundle struct {
	Memory Memory
	Lock   Lock
	Ready  Event
	Ack    Event
}

// CreateBundle creates the four primitives of a channel bundle. The lock
// is created already held by the caller, so a child attaching later cannot
// touch the shared region until the creator releases it.
//
// Creation is transactional: if any primitive fails, everything created
// before it is closed and the error is returned. No partial bundle ever
// escapes.
func CreateBundle(sys System, cfg BundleConfig) (*Bundle, error) {
	if cfg.Size < 0 {
		return nil, chanErr("create bundle", "negative region size")
	}
	mem, err := sys.CreateMemory(cfg.size(), cfg.Inheritable)
	if err != nil {
		return nil, err
	}
	lock, err := sys.CreateLock(true, cfg.Inheritable)
	if err != nil {
		mem.Close()
		return nil, err
	}
	ready, err := sys.CreateEvent(cfg.Inheritable)
	if err != nil {
		lock.Close()
		mem.Close()
		return nil, err
	}
	ack, err := sys.CreateEvent(cfg.Inheritable)
	if err != nil {
		ready.Close()
		lock.Close()
		mem.Close()
		return nil, err
	}
	return &Bundle{Memory: mem, Lock: lock, Ready: ready, Ack: ack}, nil
}

// Close releases all four primitive handles. The underlying kernel objects
// are destroyed by the OS once every referencing handle, in every process,
// is closed; neither side coordinates destruction explicitly.
func (b *Bundle) Close() error {
	var first error
	for _, c := range []interface{ Close() error }{b.Ack, b.Ready, b.Lock, b.Memory} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	b.Ack, b.Ready, b.Lock, b.Memory = nil, nil, nil, nil
	return first
}

// fileBacked is implemented by primitives that live in a file descriptor
// and can therefore be inherited by a child process.
type fileBacked interface {
	File() *os.File
}

// inheritFiles returns the bundle's descriptors in the fixed order the
// command-line token encodes them: memory, lock, ready, ack.
func (b *Bundle) inheritFiles() ([]*os.File, error) {
	prims := []interface{}{b.Memory, b.Lock, b.Ready, b.Ack}
	files := make([]*os.File, 0, len(prims))
	for _, p := range prims {
		fb, ok := p.(fileBacked)
		if !ok {
			return nil, chanErr("inherit", "primitive is not file-backed on this platform")
		}
		files = append(files, fb.File())
	}
	return files, nil
}
