package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitGuard_Exclusive(t *testing.T) {
	mr, client := newTestClient(t)
	guard := NewSubmitGuard(client)
	ctx := context.Background()

	token, ok, err := guard.Acquire(ctx, "uid-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)
	assert.Equal(t, submitGuardTTL, mr.TTL("onboarding:submit:uid-1"))

	_, ok, err = guard.Acquire(ctx, "uid-1")
	require.NoError(t, err)
	assert.False(t, ok, "second submit must not get the guard")

	_, ok, err = guard.Acquire(ctx, "uid-2")
	require.NoError(t, err)
	assert.True(t, ok, "guards are per user")

	require.NoError(t, guard.Release(ctx, "uid-1", token))
	assert.False(t, mr.Exists("onboarding:submit:uid-1"))

	_, ok, err = guard.Acquire(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitGuard_ReleaseKeepsForeignHolder(t *testing.T) {
	mr, client := newTestClient(t)
	guard := NewSubmitGuard(client)
	ctx := context.Background()

	stale, ok, err := guard.Acquire(ctx, "uid-1")
	require.NoError(t, err)
	require.True(t, ok)

	// The first submit outlives its guard and a second one takes over.
	mr.FastForward(submitGuardTTL + time.Second)
	current, ok, err := guard.Acquire(ctx, "uid-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, stale, current)

	require.NoError(t, guard.Release(ctx, "uid-1", stale))
	held, err := mr.Get("onboarding:submit:uid-1")
	require.NoError(t, err)
	assert.Equal(t, current, held, "late release must not free the new holder")

	require.NoError(t, guard.Release(ctx, "uid-1", current))
	assert.False(t, mr.Exists("onboarding:submit:uid-1"))
}
