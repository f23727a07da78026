package session

import (
	"context"
	"testing"
	"time"

	"condoPortal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingStorage holds every Get until release is closed
type blockingStorage struct {
	*MemoryStorage
	release chan struct{}
}

func (b *blockingStorage) Get(key string) (string, bool) {
	<-b.release
	return b.MemoryStorage.Get(key)
}

func TestAccessorLoadingUntilRead(t *testing.T) {
	storage := &blockingStorage{MemoryStorage: NewMemoryStorage(), release: make(chan struct{})}
	require.NoError(t, NewStore(storage.MemoryStorage).SetToken("tok"))
	require.NoError(t, NewStore(storage.MemoryStorage).SetUser(testUser()))

	accessor := Load(NewStore(storage))

	snap := accessor.Snapshot()
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)

	close(storage.release)

	select {
	case <-accessor.Done():
	case <-time.After(time.Second):
		t.Fatal("accessor never finished loading")
	}

	snap = accessor.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "tok", snap.Token)
	require.NotNil(t, snap.User)
	assert.Equal(t, models.ID("u-1"), snap.User.ID)
	snapSess := snap.Session()
	assert.True(t, snapSess.IsValid())
}

func TestAccessorWaitTimesOutWhileLoading(t *testing.T) {
	storage := &blockingStorage{MemoryStorage: NewMemoryStorage(), release: make(chan struct{})}
	defer close(storage.release)

	accessor := Load(NewStore(storage))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	snap := accessor.Wait(ctx)
	assert.True(t, snap.Loading)
}

func TestAccessorEmptyStorageResolvesAbsent(t *testing.T) {
	accessor := Load(NewStore(NewMemoryStorage()))

	snap := accessor.Wait(context.Background())
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
}
