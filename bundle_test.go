package crosslink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBundleCreatesFourPrimitives(t *testing.T) {
	sys := &fakeSystem{}
	b, err := CreateBundle(sys, BundleConfig{Size: 4096})
	require.NoError(t, err)
	require.NotNil(t, b.Memory)
	require.NotNil(t, b.Lock)
	require.NotNil(t, b.Ready)
	require.NotNil(t, b.Ack)

	created, closed := sys.counts()
	assert.Equal(t, 4, created)
	assert.Equal(t, 0, closed)

	require.NoError(t, b.Close())
	created, closed = sys.counts()
	assert.Equal(t, 4, created)
	assert.Equal(t, 4, closed)
}

func TestCreateBundleDefaultSize(t *testing.T) {
	sys := &fakeSystem{}
	b, err := CreateBundle(sys, BundleConfig{})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, DefaultChannelSize, b.Memory.Size())
}

func TestCreateBundleNegativeSize(t *testing.T) {
	sys := &fakeSystem{}
	_, err := CreateBundle(sys, BundleConfig{Size: -1})

	var cerr *ChannelError
	require.ErrorAs(t, err, &cerr)
}

// Any single creation failure must close everything created before it; a
// partial bundle never escapes.
func TestCreateBundlePartialFailureClosesEarlierPrimitives(t *testing.T) {
	for failAt := 1; failAt <= 4; failAt++ {
		sys := &fakeSystem{failAt: failAt}
		b, err := CreateBundle(sys, BundleConfig{Size: 4096})
		require.Error(t, err, "failAt=%d", failAt)
		require.Nil(t, b, "failAt=%d", failAt)

		var serr *SysError
		require.ErrorAs(t, err, &serr, "failAt=%d", failAt)
		assert.True(t, errors.Is(err, errInjected), "failAt=%d", failAt)

		created, closed := sys.counts()
		assert.Equal(t, failAt-1, created, "failAt=%d", failAt)
		assert.Equal(t, created, closed, "failAt=%d: leaked primitives", failAt)
	}
}

func TestBundleCloseIsIdempotent(t *testing.T) {
	sys := &fakeSystem{}
	b, err := CreateBundle(sys, BundleConfig{Size: 64})
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, closed := sys.counts()
	assert.Equal(t, 4, closed)
}

// The creator constructs the bundle already holding the lock, so a peer
// cannot enter the slot until the creator releases it.
func TestBundleLockInitiallyOwned(t *testing.T) {
	sys := &fakeSystem{}
	b, err := CreateBundle(sys, BundleConfig{Size: 64})
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = b.Lock.AcquireContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, b.Lock.Release())
	require.NoError(t, b.Lock.Acquire())
	require.NoError(t, b.Lock.Release())
}
