//go:build !linux

package crosslink

// stubSystem is the primitive layer for platforms without an
// implementation. Every operation fails with ErrNotSupported.
type stubSystem struct{}

// NewSystem returns the primitive layer for this platform.
func NewSystem() System {
	return stubSystem{}
}

func (stubSystem) CreateMemory(size int, inheritable bool) (Memory, error) {
	return nil, ErrNotSupported
}

func (stubSystem) CreateLock(initiallyOwned, inheritable bool) (Lock, error) {
	return nil, ErrNotSupported
}

func (stubSystem) CreateEvent(inheritable bool) (Event, error) {
	return nil, ErrNotSupported
}

func (stubSystem) OpenMemory(id, size int) (Memory, error) {
	return nil, ErrNotSupported
}

func (stubSystem) OpenLock(id int) (Lock, error) {
	return nil, ErrNotSupported
}

func (stubSystem) OpenEvent(id int) (Event, error) {
	return nil, ErrNotSupported
}
