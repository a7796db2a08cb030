package storage

import (
	"sort"
	"sync"

	"github.com/julianstephens/trackly/internal/models"
)

type Entity string

const (
	EntityCategory    Entity = "category"
	EntityTracker     Entity = "tracker"
	EntityRecord      Entity = "record"
	EntityPreferences Entity = "preferences"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one committed mutation. For records ID is the tracker
// ID and Day is set.
type Change struct {
	Entity Entity
	Op     Op
	ID     string
	Day    models.Day
}

// Hub fans changes out to subscribers. Backends embed it and publish after
// a mutation is durable and their own locks are released, so subscribers
// may read from the store.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Change)
}

func (h *Hub) Subscribe(fn func(Change)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]func(Change))
	}
	id := h.next
	h.next++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers changes in order to every subscriber registered at the
// time of the call.
func (h *Hub) Publish(changes ...Change) {
	if len(changes) == 0 {
		return
	}

	h.mu.Lock()
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Change), 0, len(ids))
	// subscription order
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, h.subs[id])
	}
	h.mu.Unlock()

	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}
