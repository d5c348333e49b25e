package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySharesFeedPerUser(t *testing.T) {
	reg := NewRegistry(NewMemoryStore())
	ctx := context.Background()

	a, err := reg.Open(ctx, "jane@example.com")
	require.NoError(t, err)
	b, err := reg.Open(ctx, "Jane@Example.com")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, reg.Live())

	reg.Release("jane@example.com")
	assert.Equal(t, 1, reg.Live())
	reg.Release("jane@example.com")
	assert.Equal(t, 0, reg.Live())
	reg.Release("jane@example.com")
}

func TestNotifyReachesLiveFeed(t *testing.T) {
	reg := NewRegistry(NewMemoryStore())
	ctx := context.Background()

	feed, err := reg.Open(ctx, "jane@example.com")
	require.NoError(t, err)
	defer reg.Release("jane@example.com")

	_, err = reg.Notify(ctx, "jane@example.com", TypeStatusUpdate, Payload{Title: "Leak", Status: "Resolved"})
	require.NoError(t, err)

	assert.Equal(t, 1, feed.UnreadCount())
	assert.Equal(t, 1, reg.Live())
}

func TestNotifyPersistsForOfflineUser(t *testing.T) {
	store := NewMemoryStore()
	reg := NewRegistry(store)
	ctx := context.Background()

	_, err := reg.Notify(ctx, "bob@example.com", TypeReassignment, Payload{Title: "Leak", Department: "Utilities"})
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Live())

	feed, err := reg.Open(ctx, "bob@example.com")
	require.NoError(t, err)
	defer reg.Release("bob@example.com")

	items := feed.Items()
	require.Len(t, items, 1)
	assert.Equal(t, TypeReassignment, items[0].Type)
}

func TestOpenFailsWhenStoreFails(t *testing.T) {
	reg := NewRegistry(failingStore{})

	_, err := reg.Open(context.Background(), "jane@example.com")
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Live())
}
