package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/moviemate/internal/membership"
	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/shared"
)

// AddOutcome classifies a finished or short-circuited add.
type AddOutcome int

const (
	AddCreated      AddOutcome = iota // a new collection record was created
	AddAlreadyOwned                   // lookup was already confirmed; no request issued
	AddInFlight                       // another add of the same title is outstanding
)

func (o AddOutcome) String() string {
	switch o {
	case AddCreated:
		return "created"
	case AddAlreadyOwned:
		return "already_owned"
	case AddInFlight:
		return "in_flight"
	default:
		return ""
	}
}

// AddResult reports an add. ID is the collection id when known.
type AddResult struct {
	Outcome AddOutcome
	ID      int64
	Created *models.CollectionItem
}

// PendingAdd is an optimistic add awaiting [Engine.Commit]. It is used up by the first Commit.
type PendingAdd struct {
	item   models.CatalogItem
	mu     sync.Mutex
	ticket *membership.Ticket
}

// Item is the catalog entry being added.
func (p *PendingAdd) Item() models.CatalogItem {
	return p.item
}

func (p *PendingAdd) take() *membership.Ticket {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.ticket
	p.ticket = nil
	return t
}

// Begin performs the synchronous half of an add.
//
// Without a session it fails with [shared.ErrAuthRequired] and changes nothing. A title that
// is already owned, or already being added, yields a result and a nil PendingAdd. Otherwise
// the entry is marked pending and must be passed to [Engine.Commit].
func (e *Engine) Begin(c models.CatalogItem) (*PendingAdd, AddResult, error) {
	if err := e.requireSession(); err != nil {
		return nil, AddResult{}, err
	}

	state, ticket := e.registry.Begin(c)
	switch {
	case ticket != nil:
		e.logger.Debug("add pending", "catalog_id", c.ID, "title", c.Title)
		return &PendingAdd{item: c, ticket: ticket}, AddResult{}, nil
	case state.Status == membership.Confirmed:
		return nil, AddResult{Outcome: AddAlreadyOwned, ID: state.ID}, nil
	default:
		return nil, AddResult{Outcome: AddInFlight}, nil
	}
}

// Commit issues the create request for p and settles it: promoted on success, rolled back
// on any failure or panic. A confirmed add is followed by a full re-listing; a failed
// re-listing is logged and does not undo the add.
//
// An unauthorized response clears the session and returns [shared.ErrReauthenticate].
// Other failures are returned unmodified. Committing the same PendingAdd again fails with
// [shared.ErrInvalidArgument] and sends nothing.
func (e *Engine) Commit(ctx context.Context, p *PendingAdd) (AddResult, error) {
	t := p.take()
	if t == nil {
		return AddResult{}, fmt.Errorf("%w: no pending add", shared.ErrInvalidArgument)
	}

	settled := false
	defer func() {
		if !settled {
			e.registry.Rollback(t)
		}
	}()

	created, err := e.api.CreateFromCatalog(ctx, t.Item.ID)
	if err != nil {
		e.registry.Rollback(t)
		settled = true
		e.logger.Warn("add failed", "catalog_id", t.Item.ID, "error", err)
		return AddResult{}, e.expire(err)
	}

	e.registry.Promote(t, *created)
	settled = true
	e.logger.Info("added to collection", "catalog_id", t.Item.ID, "id", created.ID, "title", created.Title)

	if err := e.refresh(ctx, t.Epoch, nil); err != nil {
		e.logger.Warn("membership refresh after add failed", "error", err)
	}

	return AddResult{Outcome: AddCreated, ID: created.ID, Created: created}, nil
}

// Add runs [Engine.Begin] and, when needed, [Engine.Commit].
func (e *Engine) Add(ctx context.Context, c models.CatalogItem) (AddResult, error) {
	pending, result, err := e.Begin(c)
	if err != nil || pending == nil {
		return result, err
	}
	return e.Commit(ctx, pending)
}
