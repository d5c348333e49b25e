package notification

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Feed is the notification list of one user. All methods are safe for
// concurrent use; every mutation is persisted as a whole document.
type Feed struct {
	mu     sync.Mutex
	owner  string
	store  Store
	now    func() time.Time
	items  []Notification
	lastID int64
	loaded bool

	subs    map[int]chan View
	nextSub int
}

type Option func(*Feed)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

func NewFeed(owner string, store Store, opts ...Option) *Feed {
	f := &Feed{
		owner: owner,
		store: store,
		now:   time.Now,
		items: []Notification{},
		subs:  make(map[int]chan View),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Feed) Owner() string {
	return f.owner
}

// Load replaces the in-memory list with the persisted one.
func (f *Feed) Load(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked(ctx)
}

func (f *Feed) ensureLoaded(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return nil
	}
	return f.loadLocked(ctx)
}

func (f *Feed) loadLocked(ctx context.Context) error {
	items, err := f.store.Load(ctx, f.owner)
	if err != nil {
		return err
	}
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}

	f.items = items
	f.lastID = 0
	for _, n := range items {
		if n.ID > f.lastID {
			f.lastID = n.ID
		}
	}
	f.loaded = true
	f.publishLocked()
	return nil
}

// Add prepends a notification built from t and p and evicts the oldest entry
// once the list holds more than MaxItems. The in-memory list is updated even
// when persisting fails; the error is returned.
func (f *Feed) Add(ctx context.Context, t Type, p Payload) (Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	id := now.UnixMilli()
	if id <= f.lastID {
		id = f.lastID + 1
	}
	f.lastID = id
	if len(f.items) > 0 && now.Before(f.items[0].Timestamp) {
		now = f.items[0].Timestamp
	}

	n := Notification{
		ID:        id,
		Type:      t,
		Message:   Message(t, p),
		Icon:      IconFor(t),
		Timestamp: now.UTC(),
		Read:      false,
		ReportID:  p.ReportID,
	}

	f.items = append([]Notification{n}, f.items...)
	if len(f.items) > MaxItems {
		f.items = f.items[:len(f.items)-1]
	}

	err := f.saveLocked(ctx)
	f.publishLocked()
	return n, err
}

// MarkAllRead sets every read flag. Calling it again changes nothing.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		f.items[i].Read = true
	}
	err := f.saveLocked(ctx)
	f.publishLocked()
	return err
}

// Items returns a copy of the list, newest first.
func (f *Feed) Items() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneItems(f.items)
}

func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, item := range f.items {
		if !item.Read {
			n++
		}
	}
	return n
}

func (f *Feed) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Project(f.items, f.now())
}

// Subscribe returns a channel that receives the current view and then a
// fresh view after every change. Slow readers only see the latest view.
func (f *Feed) Subscribe() (<-chan View, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	ch := make(chan View, 1)
	ch <- Project(f.items, f.now())
	f.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (f *Feed) saveLocked(ctx context.Context) error {
	if err := f.store.Save(ctx, f.owner, f.items); err != nil {
		return fmt.Errorf("persist notifications for %s: %w", f.owner, err)
	}
	return nil
}

func (f *Feed) publishLocked() {
	if len(f.subs) == 0 {
		return
	}
	v := Project(f.items, f.now())
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
