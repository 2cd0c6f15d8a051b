package crosslink

import (
	"github.com/google/uuid"
)

// Envelope is the typed message unit exchanged over a Conn. Kind names the
// message, ID correlates it with a reply, and Body carries the payload.
type Envelope struct {
	Kind string                 `msgpack:"kind"`
	ID   string                 `msgpack:"id"`
	Body map[string]interface{} `msgpack:"body"`
}

// Conn layers a Serializer over a Transport for typed envelope exchange.
// The zero Serializer is MessagePack. Conn inherits the transport's
// half-duplex discipline: one envelope per round trip.
type Conn struct {
	transport  Transport
	serializer Serializer
}

// NewConn wraps a transport with the default MessagePack serializer.
func NewConn(t Transport) *Conn {
	return &Conn{transport: t, serializer: MsgpackSerializer{}}
}

// NewConnWithSerializer wraps a transport with a custom serializer.
func NewConnWithSerializer(t Transport, s Serializer) *Conn {
	return &Conn{transport: t, serializer: s}
}

// Send marshals and transmits one envelope, assigning it a fresh ID, and
// returns that ID so the caller can correlate a later reply.
func (c *Conn) Send(kind string, body map[string]interface{}) (string, error) {
	env := Envelope{Kind: kind, ID: uuid.NewString(), Body: body}
	data, err := c.serializer.Marshal(env)
	if err != nil {
		return "", chanErr("send envelope", err.Error())
	}
	if err := c.transport.Send(data); err != nil {
		return "", err
	}
	return env.ID, nil
}

// Reply transmits an envelope carrying the ID of the message it answers.
func (c *Conn) Reply(kind, id string, body map[string]interface{}) error {
	env := Envelope{Kind: kind, ID: id, Body: body}
	data, err := c.serializer.Marshal(env)
	if err != nil {
		return chanErr("reply envelope", err.Error())
	}
	return c.transport.Send(data)
}

// Receive blocks for the next envelope and decodes it.
func (c *Conn) Receive() (*Envelope, error) {
	data, err := c.transport.Receive()
	if err != nil {
		return nil, err
	}
	var env Envelope
	err = c.serializer.Unmarshal(data, &env)
	if r, ok := c.transport.(interface{ Recycle([]byte) }); ok {
		r.Recycle(data)
	}
	if err != nil {
		return nil, chanErr("receive envelope", err.Error())
	}
	return &env, nil
}

// Close closes the underlying transport.
func (c *Conn) Close() error {
	return c.transport.Close()
}
