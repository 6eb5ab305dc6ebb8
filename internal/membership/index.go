package membership

import (
	"maps"

	"github.com/desertthunder/moviemate/internal/models"
)

// Status is the membership state of a key.
type Status int

const (
	Absent Status = iota
	Pending
	Confirmed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	default:
		return "absent"
	}
}

// State is a lookup result. ID is the collection id and is only set when confirmed.
type State struct {
	Status Status
	ID     int64
}

// Index is an immutable membership snapshot. The zero value is empty.
type Index struct {
	entries map[Key]State
}

// Rebuild returns a fresh index with one confirmed entry per collection record.
func Rebuild(items []models.CollectionItem) Index {
	entries := make(map[Key]State, len(items))
	for _, item := range items {
		entries[ItemKey(item)] = State{Status: Confirmed, ID: item.ID}
	}
	return Index{entries: entries}
}

// Get returns the state stored under k.
func (ix Index) Get(k Key) State {
	return ix.entries[k]
}

// Len reports the number of keys.
func (ix Index) Len() int {
	return len(ix.entries)
}

// Lookup checks the primary key, then the fallback key.
func (ix Index) Lookup(c models.CatalogItem) State {
	if s, ok := ix.entries[CatalogKey(c)]; ok {
		return s
	}
	if s, ok := ix.entries[CatalogFallbackKey(c)]; ok {
		return s
	}
	return State{}
}

// MarkPending records c as awaiting a server-assigned id under both of its keys.
func (ix Index) MarkPending(c models.CatalogItem) Index {
	return ix.with(func(m map[Key]State) {
		m[CatalogKey(c)] = State{Status: Pending}
		m[CatalogFallbackKey(c)] = State{Status: Pending}
	})
}

// Promote confirms c under its primary and fallback keys and under the key of the created record.
func (ix Index) Promote(c models.CatalogItem, created models.CollectionItem) Index {
	confirmed := State{Status: Confirmed, ID: created.ID}
	return ix.with(func(m map[Key]State) {
		m[CatalogKey(c)] = confirmed
		m[CatalogFallbackKey(c)] = confirmed
		m[ItemKey(created)] = confirmed
	})
}

// Rollback removes the primary and fallback keys of c. Other keys are untouched.
func (ix Index) Rollback(c models.CatalogItem) Index {
	return ix.with(func(m map[Key]State) {
		delete(m, CatalogKey(c))
		delete(m, CatalogFallbackKey(c))
	})
}

func (ix Index) with(mutate func(map[Key]State)) Index {
	entries := make(map[Key]State, len(ix.entries)+3)
	maps.Copy(entries, ix.entries)
	mutate(entries)
	return Index{entries: entries}
}
