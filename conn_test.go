package crosslink

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnEnvelopeExchange(t *testing.T) {
	parentCh, childCh, _ := newFakePair(t, 4096)
	require.NoError(t, parentCh.Unlock())

	parent := NewConn(parentCh)
	child := NewConn(childCh)

	type received struct {
		env *Envelope
		err error
	}
	got := make(chan received, 1)
	go func() {
		env, err := child.Receive()
		got <- received{env, err}
		if err == nil {
			got <- received{nil, child.Reply("ack", env.ID, map[string]interface{}{"ok": true})}
		}
	}()

	id, err := parent.Send("status", map[string]interface{}{"stage": "boot"})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "envelope IDs must be UUIDs")

	r := <-got
	require.NoError(t, r.err)
	assert.Equal(t, "status", r.env.Kind)
	assert.Equal(t, id, r.env.ID)
	assert.Equal(t, "boot", r.env.Body["stage"])

	reply, err := parent.Receive()
	require.NoError(t, err)
	require.NoError(t, (<-got).err)
	assert.Equal(t, "ack", reply.Kind)
	assert.Equal(t, id, reply.ID, "reply must correlate with the request")
	assert.Equal(t, true, reply.Body["ok"])
}

func TestConnRejectsGarbageFrames(t *testing.T) {
	parentCh, childCh, _ := newFakePair(t, 256)
	require.NoError(t, parentCh.Unlock())

	go parentCh.Send([]byte{0xc1, 0xff, 0x00}) // never valid msgpack

	child := NewConn(childCh)
	_, err := child.Receive()
	var cerr *ChannelError
	require.ErrorAs(t, err, &cerr)
}
