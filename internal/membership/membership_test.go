package membership

import (
	"sync"
	"testing"

	"github.com/desertthunder/moviemate/internal/models"
)

func ref(id int64) *int64 { return &id }

var foo = models.CatalogItem{ID: 42, Title: "Foo", Platform: "Netflix"}

func TestKeys(t *testing.T) {
	t.Run("Catalog Keys", func(t *testing.T) {
		if got := CatalogKey(foo); got != "admin:42" {
			t.Errorf("CatalogKey = %q", got)
		}
		if got := CatalogFallbackKey(foo); got != "title:foo||platform:netflix" {
			t.Errorf("CatalogFallbackKey = %q", got)
		}
	})

	t.Run("Item Keys", func(t *testing.T) {
		tt := []struct {
			name string
			item models.CollectionItem
			want Key
		}{
			{name: "primary reference", item: models.CollectionItem{ID: 1, SourceAdminID: ref(42), AdminMovieID: ref(7)}, want: "admin:42"},
			{name: "alias reference", item: models.CollectionItem{ID: 1, AdminMovieID: ref(7)}, want: "admin:7"},
			{name: "second alias", item: models.CollectionItem{ID: 1, CatalogID: ref(9)}, want: "admin:9"},
			{name: "fallback", item: models.CollectionItem{ID: 1, Title: "  Foo ", Platform: "NETFLIX"}, want: "title:foo||platform:netflix"},
			{name: "empty fallback", item: models.CollectionItem{ID: 1}, want: "title:||platform:"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if got := ItemKey(tc.item); got != tc.want {
					t.Errorf("ItemKey = %q, want %q", got, tc.want)
				}
			})
		}
	})
}

func TestIndex(t *testing.T) {
	t.Run("Absent Until Marked Or Rebuilt", func(t *testing.T) {
		var ix Index
		if s := ix.Lookup(foo); s.Status != Absent {
			t.Errorf("expected absent, got %v", s.Status)
		}

		unrelated := Rebuild([]models.CollectionItem{{ID: 5, Title: "Bar", Platform: "Hulu"}})
		if s := unrelated.Lookup(foo); s.Status != Absent {
			t.Errorf("expected absent, got %v", s.Status)
		}
	})

	t.Run("Rebuild Matches Fallback", func(t *testing.T) {
		ix := Rebuild([]models.CollectionItem{{ID: 900, Title: "foo", Platform: "netflix "}})

		s := ix.Lookup(foo)
		if s.Status != Confirmed || s.ID != 900 {
			t.Errorf("expected confirmed(900), got %+v", s)
		}
	})

	t.Run("Shared Title And Platform", func(t *testing.T) {
		other := models.CatalogItem{ID: 77, Title: "Foo", Platform: "Netflix"}
		ix := Rebuild([]models.CollectionItem{{ID: 900, Title: "Foo", Platform: "Netflix"}})

		if s := ix.Lookup(other); s.Status != Confirmed || s.ID != 900 {
			t.Errorf("items sharing a fallback key should share membership, got %+v", s)
		}
	})

	t.Run("Rebuild Replaces", func(t *testing.T) {
		ix := Rebuild([]models.CollectionItem{{ID: 900, SourceAdminID: ref(42)}})
		ix = Rebuild(nil)

		if ix.Len() != 0 || ix.Lookup(foo).Status != Absent {
			t.Error("rebuild with no items should empty the index")
		}
	})

	t.Run("Mark Pending", func(t *testing.T) {
		ix := Index{}.MarkPending(foo)

		if ix.Get("admin:42").Status != Pending || ix.Get("title:foo||platform:netflix").Status != Pending {
			t.Error("both keys should be pending")
		}
	})

	t.Run("Snapshots Are Immutable", func(t *testing.T) {
		before := Rebuild(nil)
		after := before.MarkPending(foo)

		if before.Len() != 0 {
			t.Error("MarkPending mutated its receiver")
		}
		if after.Len() != 2 {
			t.Errorf("expected 2 keys, got %d", after.Len())
		}
	})

	t.Run("Promote Sets Every Path", func(t *testing.T) {
		created := models.CollectionItem{ID: 901, Title: "Foo", Platform: "Prime"}
		ix := Index{}.MarkPending(foo).Promote(foo, created)

		for _, k := range []Key{"admin:42", "title:foo||platform:netflix", "title:foo||platform:prime"} {
			if s := ix.Get(k); s.Status != Confirmed || s.ID != 901 {
				t.Errorf("%s = %+v, want confirmed(901)", k, s)
			}
		}
	})

	t.Run("Rollback Leaves Unrelated Keys", func(t *testing.T) {
		bar := models.CollectionItem{ID: 5, Title: "Bar"}
		ix := Rebuild([]models.CollectionItem{bar}).MarkPending(foo).Rollback(foo)

		if s := ix.Lookup(foo); s.Status != Absent {
			t.Errorf("expected absent after rollback, got %v", s.Status)
		}
		if s := ix.Get(ItemKey(bar)); s.Status != Confirmed {
			t.Error("rollback removed an unrelated key")
		}
	})

	t.Run("End To End", func(t *testing.T) {
		var ix Index
		if ix.Lookup(foo).Status != Absent {
			t.Fatal("expected absent")
		}

		ix = ix.MarkPending(foo)
		if ix.Get("admin:42") != (State{Status: Pending}) {
			t.Fatal("expected admin:42 pending")
		}

		ix = ix.Promote(foo, models.CollectionItem{ID: 901, Title: "Foo", Platform: "Netflix"})
		if s := ix.Lookup(foo); s.Status != Confirmed || s.ID != 901 {
			t.Errorf("expected confirmed(901), got %+v", s)
		}
	})
}

func TestRegistry(t *testing.T) {
	t.Run("Begin Marks Pending", func(t *testing.T) {
		r := NewRegistry()

		state, ticket := r.Begin(foo)
		if ticket == nil || state.Status != Pending {
			t.Fatalf("expected pending ticket, got %+v %v", state, ticket)
		}
		if r.Lookup(foo).Status != Pending {
			t.Error("lookup should see pending entry")
		}
	})

	t.Run("Begin Short Circuits Confirmed", func(t *testing.T) {
		r := NewRegistry()
		r.Replace(r.Epoch(), []models.CollectionItem{{ID: 901, SourceAdminID: ref(42)}})

		state, ticket := r.Begin(foo)
		if ticket != nil {
			t.Error("expected no ticket for confirmed item")
		}
		if state.Status != Confirmed || state.ID != 901 {
			t.Errorf("expected confirmed(901), got %+v", state)
		}
	})

	t.Run("Second Begin While In Flight", func(t *testing.T) {
		r := NewRegistry()
		_, first := r.Begin(foo)

		state, second := r.Begin(foo)
		if second != nil || state.Status != Pending {
			t.Errorf("expected pending without ticket, got %+v %v", state, second)
		}

		r.Rollback(first)
		if r.InFlight() != 0 {
			t.Error("rollback should release the in-flight guard")
		}
	})

	t.Run("Concurrent Begin Issues One Ticket", func(t *testing.T) {
		r := NewRegistry()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			tickets int
		)
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, tk := r.Begin(foo); tk != nil {
					mu.Lock()
					tickets++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if tickets != 1 {
			t.Errorf("expected exactly one ticket, got %d", tickets)
		}
	})

	t.Run("Promote And Rollback", func(t *testing.T) {
		r := NewRegistry()

		_, tk := r.Begin(foo)
		if !r.Promote(tk, models.CollectionItem{ID: 901}) {
			t.Fatal("expected promote to apply")
		}
		if s := r.Lookup(foo); s.Status != Confirmed || s.ID != 901 {
			t.Errorf("expected confirmed(901), got %+v", s)
		}

		other := models.CatalogItem{ID: 7, Title: "Bar"}
		_, tk = r.Begin(other)
		r.Rollback(tk)
		if r.Lookup(other).Status != Absent {
			t.Error("expected absent after rollback")
		}
	})

	t.Run("Settled Ticket Cannot Settle Again", func(t *testing.T) {
		r := NewRegistry()
		_, first := r.Begin(foo)
		r.Rollback(first)

		_, second := r.Begin(foo)
		if second == nil {
			t.Fatal("expected a fresh ticket")
		}

		if r.Rollback(first) || r.Promote(first, models.CollectionItem{ID: 900}) {
			t.Error("an already settled ticket should not apply")
		}
		if r.Lookup(foo).Status != Pending || r.InFlight() != 1 {
			t.Errorf("outstanding add should stay pending, got %v with %d in flight", r.Lookup(foo).Status, r.InFlight())
		}

		if !r.Promote(second, models.CollectionItem{ID: 901}) {
			t.Fatal("expected the live ticket to apply")
		}
		if r.Rollback(second) {
			t.Error("promoted ticket should not roll back")
		}
		if s := r.Lookup(foo); s.Status != Confirmed || s.ID != 901 {
			t.Errorf("expected confirmed(901), got %+v", s)
		}
	})

	t.Run("Replace Keeps Outstanding Adds Pending", func(t *testing.T) {
		r := NewRegistry()
		_, tk := r.Begin(foo)

		r.Replace(r.Epoch(), nil)
		if r.Lookup(foo).Status != Pending {
			t.Error("in-flight add should survive a rebuild")
		}

		r.Rollback(tk)
		if r.Lookup(foo).Status != Absent {
			t.Error("expected absent once settled")
		}
	})

	t.Run("Reset Discards Stale Work", func(t *testing.T) {
		r := NewRegistry()
		stale := r.Epoch()
		_, tk := r.Begin(foo)

		r.Reset()

		if r.Promote(tk, models.CollectionItem{ID: 901}) {
			t.Error("promote from a previous session should be discarded")
		}
		if r.Replace(stale, []models.CollectionItem{{ID: 901, SourceAdminID: ref(42)}}) {
			t.Error("listing from a previous session should be discarded")
		}
		if r.Lookup(foo).Status != Absent || r.Snapshot().Len() != 0 {
			t.Error("reset index should stay empty")
		}
	})

	t.Run("Stale Ticket Does Not Release New Guard", func(t *testing.T) {
		r := NewRegistry()
		_, old := r.Begin(foo)
		r.Reset()
		_, fresh := r.Begin(foo)

		r.Rollback(old)
		if r.InFlight() != 1 {
			t.Error("stale ticket released the new session's guard")
		}
		r.Rollback(fresh)
	})
}
