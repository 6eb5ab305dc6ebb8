package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/desertthunder/moviemate/internal/shared"
)

func intPtr(v int) *int { return &v }
func int64Ptr(v int64) *int64 { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestPage(t *testing.T) {
	t.Run("Decodes Envelope", func(t *testing.T) {
		data := `{"count": 30, "next": "http://x/api/catalog?page=2", "previous": null, "results": [{"id": 1, "title": "Foo"}]}`

		var page Page[CatalogItem]
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if page.Count != 30 {
			t.Errorf("expected count 30, got %d", page.Count)
		}
		if !page.HasNext() {
			t.Error("expected next page")
		}
		if len(page.Results) != 1 || page.Results[0].Title != "Foo" {
			t.Errorf("unexpected results: %+v", page.Results)
		}
	})

	t.Run("Decodes Bare Array", func(t *testing.T) {
		data := ` [{"id": 1, "title": "Foo"}, {"id": 2, "title": "Bar"}]`

		var page Page[CollectionItem]
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if page.Count != 2 {
			t.Errorf("expected count 2, got %d", page.Count)
		}
		if page.HasNext() {
			t.Error("bare array should have no next page")
		}
	})

	t.Run("Envelope Without Count", func(t *testing.T) {
		var page Page[CollectionItem]
		if err := json.Unmarshal([]byte(`{"results": [{"id": 3}]}`), &page); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if page.Count != 1 {
			t.Errorf("expected count to fall back to result length, got %d", page.Count)
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		var page Page[CollectionItem]
		if err := json.Unmarshal([]byte(`{"results": 5}`), &page); err == nil {
			t.Error("expected error for malformed results")
		}
	})
}

func TestCollectionItem(t *testing.T) {
	t.Run("CatalogRef Priority", func(t *testing.T) {
		tt := []struct {
			name   string
			item   CollectionItem
			want   int64
			wantOK bool
		}{
			{name: "no reference", item: CollectionItem{ID: 1}},
			{name: "primary field", item: CollectionItem{SourceAdminID: int64Ptr(42), CatalogID: int64Ptr(7)}, want: 42, wantOK: true},
			{name: "first alias", item: CollectionItem{AdminMovieID: int64Ptr(8), CatalogID: int64Ptr(7)}, want: 8, wantOK: true},
			{name: "second alias", item: CollectionItem{CatalogID: int64Ptr(7)}, want: 7, wantOK: true},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				got, ok := tc.item.CatalogRef()
				if ok != tc.wantOK || got != tc.want {
					t.Errorf("CatalogRef() = (%d, %v), want (%d, %v)", got, ok, tc.want, tc.wantOK)
				}
			})
		}
	})

	t.Run("Decodes Backend JSON", func(t *testing.T) {
		data := `{"id": 901, "title": "Foo", "media_type": "tv", "total_episodes": 10, "episodes_watched": 3,
			"status": "watching", "updated_at": "2025-01-01T00:00:00Z", "user": 5, "source_admin_id": 42, "director": null}`

		var item CollectionItem
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if !item.IsTV() || item.Total() != 10 || item.EpisodesWatched != 3 {
			t.Errorf("unexpected episode fields: %+v", item)
		}
		if item.OwnerID != 5 {
			t.Errorf("expected owner 5, got %d", item.OwnerID)
		}
		if ref, ok := item.CatalogRef(); !ok || ref != 42 {
			t.Errorf("expected catalog ref 42, got %d", ref)
		}
	})
}

func TestListOptions(t *testing.T) {
	q := ListOptions{Search: "foo", Status: "watching", Page: 2, PageSize: 12}.Query()

	if q.Get("search") != "foo" || q.Get("status") != "watching" {
		t.Errorf("unexpected filters: %v", q)
	}
	if q.Get("page") != "2" || q.Get("page_size") != "12" {
		t.Errorf("unexpected pagination: %v", q)
	}
	if q.Has("genre") || q.Has("ordering") {
		t.Errorf("empty options should be omitted: %v", q)
	}
}

func TestFormValidator(t *testing.T) {
	fv := NewFormValidator(DefaultRatingBounds)

	tvForm := func(total *int, watched int) CollectionForm {
		f := NewCollectionForm()
		f.Title = "Show"
		f.MediaType = MediaTV
		f.TotalEpisodes = total
		f.EpisodesWatched = watched
		return f
	}

	tt := []struct {
		name    string
		form    CollectionForm
		wantMsg string
	}{
		{name: "valid movie", form: CollectionForm{Title: "Foo", MediaType: MediaMovie, Status: StatusWishlist}},
		{name: "valid tv", form: tvForm(intPtr(10), 10)},
		{name: "blank title", form: CollectionForm{Title: "   ", MediaType: MediaMovie, Status: StatusWishlist}, wantMsg: "Title is required."},
		{name: "bad media type", form: CollectionForm{Title: "Foo", MediaType: "book", Status: StatusWishlist}, wantMsg: "Type must be movie or tv."},
		{name: "tv without total", form: tvForm(nil, 0), wantMsg: "Total episodes is required for TV shows."},
		{name: "tv with zero total", form: tvForm(intPtr(0), 0), wantMsg: "Total episodes must be a number > 0."},
		{name: "negative watched", form: tvForm(intPtr(3), -1), wantMsg: "Episodes watched invalid."},
		{name: "watched exceeds total", form: tvForm(intPtr(3), 5), wantMsg: "Episodes watched cannot exceed total episodes."},
		{
			name:    "rating out of bounds",
			form:    CollectionForm{Title: "Foo", MediaType: MediaMovie, Status: StatusWishlist, Rating: floatPtr(7)},
			wantMsg: "Rating must be a number between 0 and 5.",
		},
		{name: "rating at bound", form: CollectionForm{Title: "Foo", MediaType: MediaMovie, Status: StatusWishlist, Rating: floatPtr(5)}},
		{name: "movie ignores episode rules", form: CollectionForm{Title: "Foo", MediaType: MediaMovie, Status: StatusWishlist, EpisodesWatched: 9}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := fv.Collection(tc.form)

			if tc.wantMsg == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Message != tc.wantMsg {
				t.Errorf("message = %q, want %q", verr.Message, tc.wantMsg)
			}
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Error("validation errors should wrap ErrInvalidInput")
			}
		})
	}

	t.Run("Signup", func(t *testing.T) {
		valid := SignupForm{Email: "a@b.co", Password: "longenough", ConfirmPassword: "longenough"}
		if err := fv.Signup(valid); err != nil {
			t.Errorf("expected valid signup, got %v", err)
		}

		cases := map[string]SignupForm{
			"Please enter a valid email.":             {Email: "nope", Password: "longenough", ConfirmPassword: "longenough"},
			"Password must be at least 8 characters.": {Email: "a@b.co", Password: "short", ConfirmPassword: "short"},
			"Passwords do not match.":                 {Email: "a@b.co", Password: "longenough", ConfirmPassword: "different1"},
		}
		for want, form := range cases {
			err := fv.Signup(form)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Message != want {
				t.Errorf("Signup(%+v) = %v, want %q", form, err, want)
			}
		}
	})

	t.Run("Credentials", func(t *testing.T) {
		if err := fv.Credentials(Credentials{Username: "a@b.co"}); err == nil {
			t.Error("expected missing password to fail")
		}
		if err := fv.Credentials(Credentials{Username: "a@b.co", Password: "x"}); err != nil {
			t.Errorf("expected valid credentials, got %v", err)
		}
	})
}

func TestPayload(t *testing.T) {
	t.Run("Movie Drops Episode Fields", func(t *testing.T) {
		f := CollectionForm{Title: " Foo ", MediaType: MediaMovie, Status: StatusWishlist, TotalEpisodes: intPtr(3), EpisodesWatched: 2}
		p := f.Payload()

		if p.Title != "Foo" {
			t.Errorf("expected trimmed title, got %q", p.Title)
		}
		if p.TotalEpisodes != nil || p.EpisodesWatched != 0 {
			t.Errorf("movie payload should not carry episodes: %+v", p)
		}
		if p.Director != nil || p.Genre != nil || p.Platform != nil {
			t.Error("empty optional strings should be null")
		}
	})

	t.Run("TV Keeps Episode Fields", func(t *testing.T) {
		f := CollectionForm{Title: "Show", MediaType: MediaTV, Status: StatusWatching, TotalEpisodes: intPtr(8), EpisodesWatched: 2, Platform: "Netflix"}
		data, err := json.Marshal(f.Payload())
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var decoded map[string]any
		json.Unmarshal(data, &decoded)
		if decoded["total_episodes"] != float64(8) || decoded["episodes_watched"] != float64(2) {
			t.Errorf("unexpected episode fields: %v", decoded)
		}
		if decoded["platform"] != "Netflix" {
			t.Errorf("expected platform, got %v", decoded["platform"])
		}
		if v, ok := decoded["rating"]; !ok || v != nil {
			t.Errorf("expected explicit null rating, got %v", v)
		}
	})

	t.Run("FormFromItem Defaults", func(t *testing.T) {
		f := FormFromItem(CollectionItem{Title: "Foo"})
		if f.MediaType != MediaMovie || f.Status != StatusWishlist {
			t.Errorf("expected defaults, got %+v", f)
		}
	})
}

func TestRatingScale(t *testing.T) {
	if got := RatingFromTenPoint(8); got != 4 {
		t.Errorf("RatingFromTenPoint(8) = %v, want 4", got)
	}
	if got := RatingToTenPoint(2.5); got != 5 {
		t.Errorf("RatingToTenPoint(2.5) = %v, want 5", got)
	}
}
