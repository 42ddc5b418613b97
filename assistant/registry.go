package assistant

import (
	"cmp"
	"maps"
	"slices"
	"sync"
)

// Unsubscribe removes one registration. Calls after the first are no-ops.
type Unsubscribe func()

type subscription struct {
	id     uint64
	once   sync.Once
	remove func()
}

// registry holds the cleanup callbacks of one scope. Each callback runs at
// most once, whether released by its token or by drain.
type registry struct {
	subs map[uint64]*subscription
	next uint64
	mu   sync.Mutex
}

func (r *registry) add(remove func()) Unsubscribe {
	r.mu.Lock()
	if r.subs == nil {
		r.subs = make(map[uint64]*subscription)
	}
	r.next++
	sub := &subscription{id: r.next, remove: remove}
	r.subs[sub.id] = sub
	r.mu.Unlock()

	return func() { r.release(sub) }
}

func (r *registry) release(sub *subscription) {
	sub.once.Do(sub.remove)

	r.mu.Lock()
	delete(r.subs, sub.id)
	r.mu.Unlock()
}

// drain releases every remaining registration in registration order.
func (r *registry) drain() {
	r.mu.Lock()
	subs := slices.SortedFunc(maps.Values(r.subs), func(a, b *subscription) int {
		return cmp.Compare(a.id, b.id)
	})
	r.mu.Unlock()

	for _, sub := range subs {
		r.release(sub)
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
