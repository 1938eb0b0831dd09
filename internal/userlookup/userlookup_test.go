package userlookup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/pkg/cache"
)

type stubStore struct {
	calls atomic.Int32
	user  store.User
	err   error
}

func (s *stubStore) FindByAddress(ctx context.Context, channel, address string) (store.User, error) {
	s.calls.Add(1)
	return s.user, s.err
}

func TestCache_FindByAddress_CachesOnHit(t *testing.T) {
	t.Parallel()

	backing := cache.NewMemory[store.User]()
	defer backing.Close()

	s := &stubStore{user: store.User{UserID: "user-1"}}
	c := New(s, backing)

	u1, err := c.FindByAddress(context.Background(), "email", "alex@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u1.UserID)

	u2, err := c.FindByAddress(context.Background(), "email", "alex@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u2.UserID)

	assert.EqualValues(t, 1, s.calls.Load(), "second lookup should be served from cache")
}

func TestCache_FindByAddress_DifferentChannelsDoNotCollide(t *testing.T) {
	t.Parallel()

	backing := cache.NewMemory[store.User]()
	defer backing.Close()

	s := &stubStore{user: store.User{UserID: "user-1"}}
	c := New(s, backing)

	_, err := c.FindByAddress(context.Background(), "email", "same-address")
	require.NoError(t, err)
	_, err = c.FindByAddress(context.Background(), "chat", "same-address")
	require.NoError(t, err)

	assert.EqualValues(t, 2, s.calls.Load())
}

func TestCache_FindByAddress_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	backing := cache.NewMemory[store.User](cache.WithCleanupInterval(0))
	defer backing.Close()

	s := &stubStore{user: store.User{UserID: "user-1"}}
	c := &Cache{store: s, cache: backing, ttl: 10 * time.Millisecond}

	_, err := c.FindByAddress(context.Background(), "email", "alex@example.com")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = c.FindByAddress(context.Background(), "email", "alex@example.com")
	require.NoError(t, err)

	assert.EqualValues(t, 2, s.calls.Load(), "expired entry should trigger a fresh lookup")
}
