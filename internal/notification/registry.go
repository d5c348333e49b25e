package notification

import (
	"context"
	"strings"
	"sync"
)

// Registry shares one Feed per user between that user's sessions and lets
// other users' actions notify them whether they are logged in or not.
type Registry struct {
	mu    sync.Mutex
	store Store
	opts  []Option
	feeds map[string]*registryEntry
}

type registryEntry struct {
	feed *Feed
	refs int
}

func NewRegistry(store Store, opts ...Option) *Registry {
	return &Registry{
		store: store,
		opts:  opts,
		feeds: make(map[string]*registryEntry),
	}
}

// Open returns the live feed for email, loading it from the store the first
// time. Every Open must be paired with a Release.
func (r *Registry) Open(ctx context.Context, email string) (*Feed, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	r.mu.Lock()
	entry, ok := r.feeds[key]
	if !ok {
		entry = &registryEntry{feed: NewFeed(key, r.store, r.opts...)}
		r.feeds[key] = entry
	}
	entry.refs++
	r.mu.Unlock()

	if err := entry.feed.ensureLoaded(ctx); err != nil {
		r.Release(email)
		return nil, err
	}
	return entry.feed, nil
}

func (r *Registry) Release(email string) {
	key := strings.ToLower(strings.TrimSpace(email))

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.feeds[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.feeds, key)
	}
}

// Notify adds a notification to the feed of email.
func (r *Registry) Notify(ctx context.Context, email string, t Type, p Payload) (Notification, error) {
	feed, err := r.Open(ctx, email)
	if err != nil {
		return Notification{}, err
	}
	defer r.Release(email)
	return feed.Add(ctx, t, p)
}

// Live reports how many users currently have an open feed.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}
