package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/shared"
)

// EditState is the state of an [Editor].
type EditState int

const (
	Viewing EditState = iota
	Submitting
	Conflict
	Writing
)

func (s EditState) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Submitting:
		return "submitting"
	case Conflict:
		return "conflict"
	case Writing:
		return "writing"
	default:
		return ""
	}
}

// Resolution answers a conflict.
type Resolution int

const (
	Overwrite Resolution = iota // write the form over the newer record
	Reload                      // discard the form and show the newer record
)

// SaveOutcome reports how a save or resolution ended.
type SaveOutcome int

const (
	Saved SaveOutcome = iota
	ConflictDetected
	Reloaded
)

func (o SaveOutcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case ConflictDetected:
		return "conflict"
	case Reloaded:
		return "reloaded"
	default:
		return ""
	}
}

// Editor edits one collection record with a concurrency check on save.
//
// The form is populated from the last fetched snapshot. Saving validates the form, then
// re-fetches the record; a changed updated_at stops in [Conflict] until [Editor.Resolve]
// is called. Nothing is written while in conflict.
type Editor struct {
	mu       sync.Mutex
	engine   *Engine
	state    EditState
	snapshot models.CollectionItem
	latest   *models.CollectionItem

	// Form holds the user's pending edits. It is read by Save and Resolve under the
	// editor's lock, so change it directly only while no save is running; use [Editor.Edit]
	// from other goroutines.
	Form models.CollectionForm
}

// OpenEditor fetches a record and starts editing it.
func (e *Engine) OpenEditor(ctx context.Context, id int64) (*Editor, error) {
	item, err := e.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.NewEditor(*item), nil
}

// NewEditor starts editing an already fetched record.
func (e *Engine) NewEditor(item models.CollectionItem) *Editor {
	return &Editor{
		engine:   e,
		state:    Viewing,
		snapshot: item,
		Form:     models.FormFromItem(item),
	}
}

// State returns the current state.
func (ed *Editor) State() EditState {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.state
}

// Snapshot returns the record the form was last populated from.
func (ed *Editor) Snapshot() models.CollectionItem {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.snapshot
}

// Latest returns the newer record found on save. It is only set in [Conflict].
func (ed *Editor) Latest() *models.CollectionItem {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.latest
}

// Edit applies fn to the form. It fails unless the editor is in [Viewing].
func (ed *Editor) Edit(fn func(*models.CollectionForm)) error {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	if ed.state != Viewing {
		return fmt.Errorf("%w: cannot edit while %s", shared.ErrInvalidArgument, ed.state)
	}
	fn(&ed.Form)
	return nil
}

// Save validates the form and writes it unless the record changed since it was loaded.
//
// A validation failure returns [*models.ValidationError] before any request. A changed
// record returns [ConflictDetected] with a nil error.
func (ed *Editor) Save(ctx context.Context) (SaveOutcome, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	if ed.state != Viewing {
		return 0, fmt.Errorf("%w: cannot save while %s", shared.ErrInvalidArgument, ed.state)
	}
	if err := ed.engine.validator.Collection(ed.Form); err != nil {
		return 0, err
	}

	ed.state = Submitting
	latest, err := ed.engine.api.GetCollection(ctx, ed.snapshot.ID)
	if err != nil {
		ed.state = Viewing
		return 0, ed.engine.expire(err)
	}

	if changed(ed.snapshot.UpdatedAt, latest.UpdatedAt) {
		ed.latest = latest
		ed.state = Conflict
		ed.engine.logger.Info("edit conflict", "id", ed.snapshot.ID, "loaded", ed.snapshot.UpdatedAt, "current", latest.UpdatedAt)
		return ConflictDetected, nil
	}

	return ed.write(ctx, latest.UpdatedAt)
}

// Resolve answers a conflict. Overwrite writes the form on top of the newer record;
// Reload replaces the form with the newer record and writes nothing.
func (ed *Editor) Resolve(ctx context.Context, r Resolution) (SaveOutcome, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	if ed.state != Conflict || ed.latest == nil {
		return 0, fmt.Errorf("%w: no conflict to resolve", shared.ErrInvalidArgument)
	}

	latest := *ed.latest
	ed.latest = nil

	switch r {
	case Overwrite:
		return ed.write(ctx, latest.UpdatedAt)
	case Reload:
		ed.snapshot = latest
		ed.Form = models.FormFromItem(latest)
		ed.state = Viewing
		return Reloaded, nil
	default:
		ed.latest = &latest
		return 0, fmt.Errorf("%w: unknown resolution %d", shared.ErrInvalidArgument, r)
	}
}

// write patches the record over base, the marker it was last checked against. The snapshot
// only changes once the server accepts the write.
func (ed *Editor) write(ctx context.Context, base string) (SaveOutcome, error) {
	ed.state = Writing
	defer func() { ed.state = Viewing }()

	updated, err := ed.engine.api.PatchCollection(ctx, ed.snapshot.ID, ed.Form.Payload())
	if err != nil {
		ed.engine.logger.Warn("save failed", "id", ed.snapshot.ID, "base", base, "error", err)
		return 0, ed.engine.expire(err)
	}

	ed.snapshot = *updated
	ed.Form = models.FormFromItem(*updated)
	ed.engine.logger.Info("saved collection item", "id", updated.ID, "base", base)
	return Saved, nil
}

// changed compares last-modified markers. A missing marker on either side cannot prove a
// concurrent edit.
func changed(loaded, current string) bool {
	return loaded != "" && current != "" && loaded != current
}
