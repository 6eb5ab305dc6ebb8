package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/moviemate/internal/models"
)

// FakeToken is the access token accepted by [FakeBackend].
const FakeToken = "fake-access-token"

type injectedFailure struct {
	method string
	prefix string
	status int
	body   string
}

type hold struct {
	method  string
	prefix  string
	release chan struct{}
}

// FakeBackend is an in-memory MovieMate REST backend served over httptest.
//
// Collection ids start at 900 so they never collide with catalog ids in tests.
type FakeBackend struct {
	Server *httptest.Server

	// BareArrays switches list responses from the paginated envelope to a plain array.
	BareArrays bool
	// PageSize applies when a request has no page_size parameter.
	PageSize int

	mu         sync.Mutex
	catalog    map[int64]models.CatalogItem
	collection map[int64]models.CollectionItem
	nextID     int64
	tick       int
	token      string
	user       models.User
	requests   []string
	failures   []injectedFailure
	holds      []*hold
}

// NewFakeBackend starts a backend seeded with catalog items and closes it on test cleanup.
func NewFakeBackend(t *testing.T, catalog ...models.CatalogItem) *FakeBackend {
	t.Helper()

	f := &FakeBackend{
		PageSize:   10,
		catalog:    map[int64]models.CatalogItem{},
		collection: map[int64]models.CollectionItem{},
		nextID:     901,
		token:      FakeToken,
		user:       models.User{ID: 1, Email: "viewer@example.com", FirstName: "Viewer"},
	}
	for _, item := range catalog {
		f.catalog[item.ID] = item
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", f.login)
	mux.HandleFunc("POST /auth/signup", f.login)
	mux.HandleFunc("GET /auth/me", f.authed(f.me))
	mux.HandleFunc("GET /catalog", f.listCatalog)
	mux.HandleFunc("GET /catalog/{id}", f.getCatalog)
	mux.HandleFunc("GET /collection", f.authed(f.listCollection))
	mux.HandleFunc("POST /collection", f.authed(f.createCollection))
	mux.HandleFunc("GET /collection/{id}", f.authed(f.getCollection))
	mux.HandleFunc("PATCH /collection/{id}", f.authed(f.patchCollection))
	mux.HandleFunc("DELETE /collection/{id}", f.authed(f.deleteCollection))
	mux.HandleFunc("POST /collection/from-catalog/{id}", f.authed(f.createFromCatalog))

	f.Server = httptest.NewServer(f.intercept(mux))
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL to hand to the API client.
func (f *FakeBackend) URL() string { return f.Server.URL }

// Requests counts received requests matching method and path prefix. An empty method matches any.
func (f *FakeBackend) Requests(method, prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		m, p, _ := strings.Cut(r, " ")
		if (method == "" || m == method) && strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// TotalRequests counts every request received.
func (f *FakeBackend) TotalRequests() int {
	return f.Requests("", "")
}

// FailNext makes the next request matching method and prefix answer with status and body.
func (f *FakeBackend) FailNext(method, prefix string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, injectedFailure{method: method, prefix: prefix, status: status, body: body})
}

// Hold blocks the next request matching method and prefix until release is called.
func (f *FakeBackend) Hold(method, prefix string) (release func()) {
	h := &hold{method: method, prefix: prefix, release: make(chan struct{})}

	f.mu.Lock()
	f.holds = append(f.holds, h)
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(h.release) }) }
}

// ExpireToken makes the backend reject the current access token.
func (f *FakeBackend) ExpireToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = "rotated-" + strconv.Itoa(f.tick)
}

// SeedCollection stores a record as if it had been created earlier and returns it with its id.
func (f *FakeBackend) SeedCollection(item models.CollectionItem) models.CollectionItem {
	f.mu.Lock()
	defer f.mu.Unlock()

	if item.ID == 0 {
		item.ID = f.nextID
		f.nextID++
	}
	if item.UpdatedAt == "" {
		item.UpdatedAt = f.stamp()
	}
	if item.Status == "" {
		item.Status = models.StatusWishlist
	}
	f.collection[item.ID] = item
	return item
}

// Touch simulates a concurrent edit from another session by bumping updated_at.
func (f *FakeBackend) Touch(id int64, mutate func(*models.CollectionItem)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.collection[id]
	if !ok {
		return
	}
	if mutate != nil {
		mutate(&item)
	}
	item.UpdatedAt = f.stamp()
	f.collection[id] = item
}

// Collection returns a stored record.
func (f *FakeBackend) Collection(id int64) (models.CollectionItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.collection[id]
	return item, ok
}

// CollectionSize reports the number of stored records.
func (f *FakeBackend) CollectionSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.collection)
}

func (f *FakeBackend) stamp() string {
	f.tick++
	return time.Date(2025, 1, 1, 0, 0, f.tick, 0, time.UTC).Format(time.RFC3339)
}

func (f *FakeBackend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)

		var blocked *hold
		for i, h := range f.holds {
			if h.method == r.Method && strings.HasPrefix(r.URL.Path, h.prefix) {
				blocked = h
				f.holds = append(f.holds[:i], f.holds[i+1:]...)
				break
			}
		}

		var failure *injectedFailure
		for i, fl := range f.failures {
			if fl.method == r.Method && strings.HasPrefix(r.URL.Path, fl.prefix) {
				failure = &fl
				f.failures = append(f.failures[:i], f.failures[i+1:]...)
				break
			}
		}
		f.mu.Unlock()

		if blocked != nil {
			select {
			case <-blocked.release:
			case <-r.Context().Done():
				return
			}
		}

		if failure != nil {
			w.WriteHeader(failure.status)
			w.Write([]byte(failure.body))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		want := "Bearer " + f.token
		f.mu.Unlock()

		if r.Header.Get("Authorization") != want {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		next(w, r)
	}
}

func (f *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}
	if body["password"] == "wrong" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}

	f.mu.Lock()
	f.token = FakeToken
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, models.Tokens{Access: FakeToken, Refresh: "fake-refresh-token"})
}

func (f *FakeBackend) me(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, f.user)
}

func (f *FakeBackend) listCatalog(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	items := make([]models.CatalogItem, 0, len(f.catalog))
	search := strings.ToLower(r.URL.Query().Get("search"))
	for _, item := range f.catalog {
		if search == "" || strings.Contains(strings.ToLower(item.Title), search) {
			items = append(items, item)
		}
	}
	f.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	writePage(w, r, items, f.PageSize, f.BareArrays)
}

func (f *FakeBackend) getCatalog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	item, found := f.catalog[id]
	f.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (f *FakeBackend) listCollection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f.mu.Lock()
	items := make([]models.CollectionItem, 0, len(f.collection))
	for _, item := range f.collection {
		if s := strings.ToLower(q.Get("search")); s != "" && !strings.Contains(strings.ToLower(item.Title), s) {
			continue
		}
		if s := q.Get("status"); s != "" && string(item.Status) != s {
			continue
		}
		if g := q.Get("genre"); g != "" && item.Genre != g {
			continue
		}
		if p := q.Get("platform"); p != "" && item.Platform != p {
			continue
		}
		items = append(items, item)
	}
	f.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	writePage(w, r, items, f.PageSize, f.BareArrays)
}

func (f *FakeBackend) getCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, found := f.Collection(id)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (f *FakeBackend) createFromCatalog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	src, found := f.catalog[id]
	f.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	ref := src.ID
	item := models.CollectionItem{
		Title:         src.Title,
		MediaType:     src.MediaType,
		Genre:         src.Genre,
		Platform:      src.Platform,
		TotalEpisodes: src.TotalEpisodes,
		Rating:        src.Rating,
		SourceAdminID: &ref,
	}
	writeJSON(w, http.StatusCreated, f.SeedCollection(item))
}

func (f *FakeBackend) createCollection(w http.ResponseWriter, r *http.Request) {
	var item models.CollectionItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}
	if strings.TrimSpace(item.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field is required."}})
		return
	}
	item.ID = 0
	writeJSON(w, http.StatusCreated, f.SeedCollection(item))
}

func (f *FakeBackend) patchCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	item, found := f.collection[id]
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	current, _ := json.Marshal(item)
	var merged map[string]any
	json.Unmarshal(current, &merged)

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}
	for k, v := range patch {
		merged[k] = v
	}

	data, _ := json.Marshal(merged)
	var updated models.CollectionItem
	if err := json.Unmarshal(data, &updated); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	updated.ID = id
	updated.UpdatedAt = f.stamp()
	f.collection[id] = updated
	writeJSON(w, http.StatusOK, updated)
}

func (f *FakeBackend) deleteCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, found := f.collection[id]; !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	delete(f.collection, id)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return 0, false
	}
	return id, true
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T, defaultSize int, bare bool) {
	if bare {
		writeJSON(w, http.StatusOK, items)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if size < 1 {
		size = defaultSize
	}

	start := min((page-1)*size, len(items))
	end := min(start+size, len(items))

	var next *string
	if end < len(items) {
		u := *r.URL
		q := u.Query()
		q.Set("page", strconv.Itoa(page+1))
		u.RawQuery = q.Encode()
		s := fmt.Sprintf("http://%s%s", r.Host, u.RequestURI())
		next = &s
	}

	writeJSON(w, http.StatusOK, models.Page[T]{Count: len(items), Next: next, Results: items[start:end]})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
