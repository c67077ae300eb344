package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

func TestFlowStore_SaveAndGet(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewFlowStore(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "uid-1")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	flow := domain.NewFlow("uid-1")
	flow.Step = domain.StepIdentityVerification
	flow.Form.FirstName = "Ana"
	flow.Staged = []domain.DocumentKind{domain.DocumentIDFront}
	require.NoError(t, store.Save(ctx, flow))
	assert.Equal(t, FlowTTL, mr.TTL("onboarding:flow:uid-1"))

	got, err := store.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepIdentityVerification, got.Step)
	assert.Equal(t, "Ana", got.Form.FirstName)
	assert.Equal(t, []domain.DocumentKind{domain.DocumentIDFront}, got.Staged)
}

func TestFlowStore_CorruptValue(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewFlowStore(client)

	require.NoError(t, mr.Set("onboarding:flow:uid-1", "{"))
	_, err := store.Get(context.Background(), "uid-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode flow")
}

func TestStagingStore_PutGetClear(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewStagingStore(client)
	ctx := context.Background()

	got, err := store.Get(ctx, "uid-1", domain.DocumentIDFront)
	require.NoError(t, err)
	assert.Nil(t, got)

	front := &domain.StagedFile{Kind: domain.DocumentIDFront, Filename: "front.jpg", ContentType: "image/jpeg", Data: []byte{1, 2, 3}}
	back := &domain.StagedFile{Kind: domain.DocumentIDBack, Filename: "back.jpg", ContentType: "image/jpeg", Data: []byte{4}}
	require.NoError(t, store.Put(ctx, "uid-1", front))
	require.NoError(t, store.Put(ctx, "uid-1", back))
	assert.Equal(t, FlowTTL, mr.TTL("onboarding:staged:uid-1"))

	got, err = store.Get(ctx, "uid-1", domain.DocumentIDFront)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "front.jpg", got.Filename)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)

	require.NoError(t, store.Clear(ctx, "uid-1"))
	assert.False(t, mr.Exists("onboarding:staged:uid-1"))
	got, err = store.Get(ctx, "uid-1", domain.DocumentIDBack)
	require.NoError(t, err)
	assert.Nil(t, got)
}
