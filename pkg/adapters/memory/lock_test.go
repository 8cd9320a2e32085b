package memory

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lathe/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Contract(t *testing.T) {
	tests.LockerContractTest(t, NewLocker())
}

func TestLocker_TTLExpiry(t *testing.T) {
	l := NewLocker()

	_, err := l.Lock(context.Background(), "k", 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	unlock, err := l.Lock(ctx, "k", time.Minute)
	require.NoError(t, err, "expired lock should be reclaimable")
	assert.NoError(t, unlock(context.Background()))
}

func TestLocker_DoubleUnlock(t *testing.T) {
	l := NewLocker()

	unlock, err := l.Lock(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(context.Background()))
	require.NoError(t, unlock(context.Background()))

	// A second unlock must not release a lock taken by someone else.
	other, err := l.Lock(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	defer func() { _ = other(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
