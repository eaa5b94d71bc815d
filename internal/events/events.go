// Package events delivers cart change notifications to interested consumers
// (UI layers, badges, external systems) so they can update without polling.
package events

import (
	"context"
	"sort"
	"sync"

	"github.com/gupfee/greenhaus/internal/domain"
)

// Notifier publishes cart change events.
// Implementations: Fanout (in-process), NATSNotifier.
type Notifier interface {
	// CartUpdated publishes the change event for a successful mutation.
	CartUpdated(ctx context.Context, update domain.CartUpdate) error
}

// Subscriber receives in-process cart change events.
type Subscriber func(update domain.CartUpdate)

// Fanout delivers events synchronously to in-process subscribers and,
// optionally, forwards them to additional notifiers (e.g. NATS).
type Fanout struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]Subscriber
	forwards    []Notifier
}

// NewFanout creates an empty fanout, optionally forwarding to downstream
// notifiers.
func NewFanout(forwards ...Notifier) *Fanout {
	return &Fanout{
		subscribers: make(map[int]Subscriber),
		forwards:    forwards,
	}
}

// Subscribe registers an in-process subscriber and returns a function that
// removes it again.
func (f *Fanout) Subscribe(fn Subscriber) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.subscribers[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subscribers, id)
	}
}

// Forward adds a downstream notifier.
func (f *Fanout) Forward(n Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwards = append(f.forwards, n)
}

// CartUpdated implements Notifier. In-process subscribers always run;
// the first downstream delivery error is returned after all deliveries are
// attempted.
func (f *Fanout) CartUpdated(ctx context.Context, update domain.CartUpdate) error {
	f.mu.RLock()
	ids := make([]int, 0, len(f.subscribers))
	for id := range f.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subscribers := make([]Subscriber, 0, len(ids))
	for _, id := range ids {
		subscribers = append(subscribers, f.subscribers[id])
	}
	forwards := make([]Notifier, len(f.forwards))
	copy(forwards, f.forwards)
	f.mu.RUnlock()

	for _, fn := range subscribers {
		fn(update)
	}

	var firstErr error
	for _, n := range forwards {
		if err := n.CartUpdated(ctx, update); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
