package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemate/internal/membership"
	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/repositories"
	"github.com/desertthunder/moviemate/internal/shared"
	"golang.org/x/oauth2"
)

// facetPageSize is large enough to cover a personal collection in one request.
const facetPageSize = 1000

// API is the subset of the backend client used by the workflows.
type API interface {
	ListCatalog(ctx context.Context, opts models.ListOptions) (*models.Page[models.CatalogItem], error)
	GetCatalog(ctx context.Context, id int64) (*models.CatalogItem, error)
	ListCollection(ctx context.Context, opts models.ListOptions) (*models.Page[models.CollectionItem], error)
	GetCollection(ctx context.Context, id int64) (*models.CollectionItem, error)
	CreateFromCatalog(ctx context.Context, catalogID int64) (*models.CollectionItem, error)
	CreateCollection(ctx context.Context, payload models.CollectionPayload) (*models.CollectionItem, error)
	PatchCollection(ctx context.Context, id int64, patch any) (*models.CollectionItem, error)
	DeleteCollection(ctx context.Context, id int64) error
	Login(ctx context.Context, creds models.Credentials) (*models.Tokens, error)
	Signup(ctx context.Context, form models.SignupForm) (*models.Tokens, error)
	Me(ctx context.Context) (*models.User, error)
}

// TokenStore holds the session credential.
type TokenStore interface {
	Token() (*oauth2.Token, error)
	LoggedIn() bool
	SaveTokens(t models.Tokens) error
	Clear() error
}

// EventLog records session transitions.
type EventLog interface {
	Record(kind repositories.EventKind, detail string) (*repositories.SessionEvent, error)
	List(limit int) ([]*repositories.SessionEvent, error)
}

// Deps wires an [Engine].
type Deps struct {
	API       API
	Tokens    TokenStore
	Events    EventLog
	Registry  *membership.Registry
	Validator *models.FormValidator
	Logger    *log.Logger
	PageSize  int    // default catalog page size
	Ordering  string // default catalog ordering
}

// Engine runs the client workflows. It is safe for concurrent use.
type Engine struct {
	api       API
	tokens    TokenStore
	events    EventLog
	registry  *membership.Registry
	validator *models.FormValidator
	logger    *log.Logger
	pageSize  int
	ordering  string
}

// NewEngine creates an Engine. A nil registry, validator or logger gets a default.
func NewEngine(d Deps) *Engine {
	e := &Engine{
		api:       d.API,
		tokens:    d.Tokens,
		events:    d.Events,
		registry:  d.Registry,
		validator: d.Validator,
		logger:    d.Logger,
		pageSize:  d.PageSize,
		ordering:  d.Ordering,
	}
	if e.registry == nil {
		e.registry = membership.NewRegistry()
	}
	if e.validator == nil {
		e.validator = models.NewFormValidator(models.DefaultRatingBounds)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// Registry exposes the membership registry for rendering.
func (e *Engine) Registry() *membership.Registry {
	return e.registry
}

// Validator exposes the form validator.
func (e *Engine) Validator() *models.FormValidator {
	return e.validator
}

// LoggedIn reports whether a session token is held.
func (e *Engine) LoggedIn() bool {
	return e.tokens.LoggedIn()
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// expire handles an unauthorized response: the token is cleared, membership starts over
// from empty and the caller is told to sign in again. Other errors pass through unchanged.
func (e *Engine) expire(err error) error {
	if !errors.Is(err, shared.ErrTokenExpired) {
		return err
	}

	if cerr := e.tokens.Clear(); cerr != nil {
		e.logger.Warn("failed to clear expired session", "error", cerr)
	}
	e.registry.Reset()
	e.record(repositories.EventExpired, "")
	e.logger.Info("session expired")

	return fmt.Errorf("%w: %w", shared.ErrReauthenticate, err)
}

func (e *Engine) record(kind repositories.EventKind, detail string) {
	if e.events == nil {
		return
	}
	if _, err := e.events.Record(kind, detail); err != nil {
		e.logger.Warn("failed to record session event", "kind", kind, "error", err)
	}
}

func (e *Engine) requireSession() error {
	if !e.tokens.LoggedIn() {
		return shared.ErrAuthRequired
	}
	return nil
}

// ListCatalog fetches a catalog page, applying the configured page size and ordering when unset.
func (e *Engine) ListCatalog(ctx context.Context, opts models.ListOptions) (*models.Page[models.CatalogItem], error) {
	if opts.PageSize == 0 {
		opts.PageSize = e.pageSize
	}
	if opts.Ordering == "" {
		opts.Ordering = e.ordering
	}
	return e.api.ListCatalog(ctx, opts)
}

// GetCatalog fetches a single catalog entry.
func (e *Engine) GetCatalog(ctx context.Context, id int64) (*models.CatalogItem, error) {
	return e.api.GetCatalog(ctx, id)
}

// ListCollection fetches a page of the user's collection. Without a session it returns an
// empty page and issues no request.
func (e *Engine) ListCollection(ctx context.Context, opts models.ListOptions) (*models.Page[models.CollectionItem], error) {
	if !e.tokens.LoggedIn() {
		return &models.Page[models.CollectionItem]{}, nil
	}

	page, err := e.api.ListCollection(ctx, opts)
	if err != nil {
		return nil, e.expire(err)
	}
	return page, nil
}

// GetCollection fetches a single collection record.
func (e *Engine) GetCollection(ctx context.Context, id int64) (*models.CollectionItem, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}

	item, err := e.api.GetCollection(ctx, id)
	if err != nil {
		return nil, e.expire(err)
	}
	return item, nil
}

// AllCollection walks every page of the collection matching opts.
func (e *Engine) AllCollection(ctx context.Context, opts models.ListOptions, progress chan<- ProgressUpdate) ([]models.CollectionItem, error) {
	if !e.tokens.LoggedIn() {
		return nil, nil
	}

	items, err := e.collectAll(ctx, opts, progress)
	if err != nil {
		return nil, e.expire(err)
	}
	return items, nil
}

func (e *Engine) collectAll(ctx context.Context, opts models.ListOptions, progress chan<- ProgressUpdate) ([]models.CollectionItem, error) {
	var items []models.CollectionItem

	for page := 1; ; page++ {
		opts.Page = page
		result, err := e.api.ListCollection(ctx, opts)
		if err != nil {
			return nil, err
		}

		items = append(items, result.Results...)
		e.sendProgress(progress, fetchPageUpdate(page, len(items), max(result.Count, len(items))))

		if !result.HasNext() || len(result.Results) == 0 {
			return items, nil
		}
	}
}

// RefreshMembership rebuilds the membership index from a full listing of the collection.
// Without a session the index is emptied.
func (e *Engine) RefreshMembership(ctx context.Context, progress chan<- ProgressUpdate) error {
	epoch := e.registry.Epoch()
	if !e.tokens.LoggedIn() {
		e.registry.Replace(epoch, nil)
		return nil
	}
	return e.refresh(ctx, epoch, progress)
}

func (e *Engine) refresh(ctx context.Context, epoch uint64, progress chan<- ProgressUpdate) error {
	items, err := e.collectAll(ctx, models.ListOptions{}, progress)
	if err != nil {
		return e.expire(err)
	}

	applied := e.registry.Replace(epoch, items)
	if !applied {
		e.logger.Debug("discarded stale membership listing", "epoch", epoch)
	}
	e.sendProgress(progress, rebuildUpdate(len(items), applied))
	return nil
}

// Facets lists the distinct genres and platforms in the collection.
type Facets struct {
	Genres    []string
	Platforms []string
}

// Facets collects filter values from the whole collection. Failures yield empty facets.
func (e *Engine) Facets(ctx context.Context) Facets {
	if !e.tokens.LoggedIn() {
		return Facets{}
	}

	page, err := e.api.ListCollection(ctx, models.ListOptions{PageSize: facetPageSize})
	if err != nil {
		e.logger.Debug("facet listing failed", "error", err)
		return Facets{}
	}

	return Facets{
		Genres:    distinct(page.Results, func(c models.CollectionItem) string { return c.Genre }),
		Platforms: distinct(page.Results, func(c models.CollectionItem) string { return c.Platform }),
	}
}

func distinct(items []models.CollectionItem, field func(models.CollectionItem) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range items {
		v := strings.TrimSpace(field(item))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// CreateCustom validates the form and creates a collection record that has no catalog origin.
func (e *Engine) CreateCustom(ctx context.Context, form models.CollectionForm) (*models.CollectionItem, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}
	if err := e.validator.Collection(form); err != nil {
		return nil, err
	}

	item, err := e.api.CreateCollection(ctx, form.Payload())
	if err != nil {
		return nil, e.expire(err)
	}
	e.logger.Info("created collection item", "id", item.ID, "title", item.Title)

	if err := e.RefreshMembership(ctx, nil); err != nil {
		e.logger.Warn("membership refresh after create failed", "error", err)
	}
	return item, nil
}

// Delete removes a collection record and rebuilds membership.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if err := e.requireSession(); err != nil {
		return err
	}

	if err := e.api.DeleteCollection(ctx, id); err != nil {
		return e.expire(err)
	}
	e.logger.Info("deleted collection item", "id", id)

	if err := e.RefreshMembership(ctx, nil); err != nil {
		e.logger.Warn("membership refresh after delete failed", "error", err)
	}
	return nil
}
