package crosslink

import "github.com/vmihailenco/msgpack/v5"

// Serializer converts between Go values and byte slices for transport.
// The default implementation uses MessagePack.
type Serializer interface {
	// Marshal encodes a Go value to bytes.
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal decodes bytes into a Go value.
	Unmarshal(data []byte, v interface{}) error
}

// Transport sends and receives whole byte messages. Channel is the
// shared-memory implementation; anything with the same framing discipline
// (one complete message per Send/Receive) can stand in for it.
type Transport interface {
	// Send transmits one complete message to the peer.
	Send(data []byte) error

	// Receive reads one complete message from the peer.
	Receive() ([]byte, error)

	// Close releases transport resources.
	Close() error

	// Flush pushes out any buffered data.
	Flush() error
}

// MsgpackSerializer is the default Serializer, using MessagePack for
// compact binary encoding.
type MsgpackSerializer struct{}

func (MsgpackSerializer) Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackSerializer) Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}
