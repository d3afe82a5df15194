package edit

import (
	"errors"
	"sync"

	"pedit/internal/model"
)

// RestoreEvent asks the UI layer to repaint records from their original values.
//
// A scoped event lists the affected entries (with their original snapshots).
// A global event (All set) means "restore everything currently rendered".
type RestoreEvent struct {
	All      bool
	Category Category
	Entries  []Entry
}

// IDs returns the IDs carried by a scoped event.
func (e RestoreEvent) IDs() []model.ID {
	ids := make([]model.ID, len(e.Entries))
	for i, entry := range e.Entries {
		ids[i] = entry.ID
	}
	return ids
}

// RestoreListener repaints UI state for an event. Returning is the
// acknowledgment: the tracker purges the affected entries only after every
// listener has returned.
type RestoreListener func(RestoreEvent) error

// RestoreBroadcast fans restore events out to its listeners synchronously,
// in subscription order.
type RestoreBroadcast struct {
	mu        sync.Mutex
	nextID    int
	listeners []restoreSubscription
}

type restoreSubscription struct {
	id int
	fn RestoreListener
}

func NewRestoreBroadcast() *RestoreBroadcast {
	return &RestoreBroadcast{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *RestoreBroadcast) Subscribe(fn RestoreListener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, restoreSubscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every listener and returns once all have acknowledged.
// Listener errors are joined; delivery continues past a failing listener.
func (b *RestoreBroadcast) Publish(ev RestoreEvent) error {
	b.mu.Lock()
	listeners := make([]restoreSubscription, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	var errs []error
	for _, l := range listeners {
		if err := l.fn(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of subscribed listeners.
func (b *RestoreBroadcast) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
