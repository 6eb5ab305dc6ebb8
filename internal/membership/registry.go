package membership

import (
	"sync"

	"github.com/desertthunder/moviemate/internal/models"
)

// Ticket is an outstanding optimistic add. It must be settled exactly once through
// [Registry.Promote] or [Registry.Rollback].
type Ticket struct {
	Item  models.CatalogItem
	Epoch uint64
	key   Key
}

// Registry is the session-wide owner of the membership index.
type Registry struct {
	mu       sync.Mutex
	index    Index
	epoch    uint64
	inflight map[Key]*Ticket
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{inflight: map[Key]*Ticket{}}
}

// Snapshot returns the current index.
func (r *Registry) Snapshot() Index {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Lookup resolves c against the current index.
func (r *Registry) Lookup(c models.CatalogItem) State {
	return r.Snapshot().Lookup(c)
}

// Epoch identifies the current session. Capture it before listing the collection and
// pass it to [Registry.Replace].
func (r *Registry) Epoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

// Begin starts an optimistic add of c.
//
// A confirmed lookup is returned with a nil ticket. So is a pending state when another
// add of the same key is outstanding. Otherwise c is marked pending and a ticket returned.
func (r *Registry) Begin(c models.CatalogItem) (State, *Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := r.index.Lookup(c); s.Status == Confirmed {
		return s, nil
	}

	key := CatalogKey(c)
	if _, busy := r.inflight[key]; busy {
		return State{Status: Pending}, nil
	}

	t := &Ticket{Item: c, Epoch: r.epoch, key: key}
	r.inflight[key] = t
	r.index = r.index.MarkPending(c)
	return State{Status: Pending}, t
}

// Promote settles t with the created record. It reports false, leaving the index alone,
// when t was already settled or the session changed since it was issued.
func (r *Registry) Promote(t *Ticket, created models.CollectionItem) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.release(t) {
		return false
	}
	r.index = r.index.Promote(t.Item, created)
	return true
}

// Rollback settles t as failed. It reports false when t was already settled or the session
// changed since it was issued.
func (r *Registry) Rollback(t *Ticket) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.release(t) {
		return false
	}
	r.index = r.index.Rollback(t.Item)
	return true
}

// Replace rebuilds the index from a full listing taken during epoch. A listing from an
// older session is discarded and false returned. Outstanding adds stay pending.
func (r *Registry) Replace(epoch uint64, items []models.CollectionItem) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if epoch != r.epoch {
		return false
	}

	next := Rebuild(items)
	for _, t := range r.inflight {
		if next.Lookup(t.Item).Status == Absent {
			next = next.MarkPending(t.Item)
		}
	}
	r.index = next
	return true
}

// Reset empties the index and starts a new session. Tickets and listings from the previous
// session no longer apply.
func (r *Registry) Reset() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.epoch++
	r.index = Index{}
	r.inflight = map[Key]*Ticket{}
	return r.epoch
}

// InFlight reports the number of outstanding adds.
func (r *Registry) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// release removes t from the in-flight set. Only the ticket currently held for its key may
// settle; Reset drops every ticket of the old session.
func (r *Registry) release(t *Ticket) bool {
	if t == nil || r.inflight[t.key] != t {
		return false
	}
	delete(r.inflight, t.key)
	return t.Epoch == r.epoch
}
