// package models defines the data model for the MovieMate client
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// MediaType distinguishes movies from TV shows.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// WatchStatus is the user's watch state for a collection item.
type WatchStatus string

const (
	StatusWatching  WatchStatus = "watching"
	StatusCompleted WatchStatus = "completed"
	StatusWishlist  WatchStatus = "wishlist"
)

// CatalogItem is an admin-curated entry. Its ID lives in catalog space.
type CatalogItem struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Genre           string    `json:"genre,omitempty"`
	Platform        string    `json:"platform,omitempty"`
	MediaType       MediaType `json:"media_type"`
	Status          string    `json:"status,omitempty"`
	TotalEpisodes   *int      `json:"total_episodes,omitempty"`
	EpisodesWatched *int      `json:"episodes_watched,omitempty"`
	Rating          *float64  `json:"rating,omitempty"`
}

// CollectionItem is a user-owned record. Its ID lives in collection space and is unrelated to [CatalogItem.ID].
//
// The catalog back-reference is optional: older records carry none, and some backends expose it
// under an alias field.
type CollectionItem struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	MediaType       MediaType   `json:"media_type"`
	Director        string      `json:"director,omitempty"`
	Genre           string      `json:"genre,omitempty"`
	Platform        string      `json:"platform,omitempty"`
	Status          WatchStatus `json:"status"`
	TotalEpisodes   *int        `json:"total_episodes,omitempty"`
	EpisodesWatched int         `json:"episodes_watched"`
	Rating          *float64    `json:"rating,omitempty"`
	Review          string      `json:"review,omitempty"`
	UpdatedAt       string      `json:"updated_at,omitempty"` // opaque last-modification marker
	OwnerID         int64       `json:"user,omitempty"`
	SourceAdminID   *int64      `json:"source_admin_id,omitempty"`
	AdminMovieID    *int64      `json:"admin_movie_id,omitempty"` // alias
	CatalogID       *int64      `json:"catalog_id,omitempty"`     // alias
}

// CatalogRef returns the catalog origin of the item, checking the primary field before the aliases.
func (c CollectionItem) CatalogRef() (int64, bool) {
	for _, ref := range []*int64{c.SourceAdminID, c.AdminMovieID, c.CatalogID} {
		if ref != nil {
			return *ref, true
		}
	}
	return 0, false
}

// IsTV reports whether the item is a TV show.
func (c CollectionItem) IsTV() bool {
	return c.MediaType == MediaTV
}

// Total returns the total episode count, or 0 when unknown.
func (c CollectionItem) Total() int {
	if c.TotalEpisodes == nil {
		return 0
	}
	return *c.TotalEpisodes
}

// Page is one page of a listing. The backend answers either with a
// {count,next,previous,results} envelope or with a bare JSON array.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// UnmarshalJSON accepts both the paginated envelope and a bare array.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}

	var envelope struct {
		Count    *int    `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []T     `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}

	*p = Page[T]{Next: envelope.Next, Previous: envelope.Previous, Results: envelope.Results}
	if envelope.Count != nil {
		p.Count = *envelope.Count
	} else {
		p.Count = len(envelope.Results)
	}
	return nil
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// ListOptions holds the filter, sort and pagination parameters of a listing.
type ListOptions struct {
	Search    string
	Genre     string
	Platform  string
	Status    string
	MediaType string
	Ordering  string
	Page      int
	PageSize  int
}

// Query encodes the non-empty options as URL query values.
func (o ListOptions) Query() url.Values {
	q := url.Values{}
	for key, value := range map[string]string{
		"search":     o.Search,
		"genre":      o.Genre,
		"platform":   o.Platform,
		"status":     o.Status,
		"media_type": o.MediaType,
		"ordering":   o.Ordering,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return q
}

// Credentials is the login request body. The backend treats the email as the username.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupForm is the signup request body.
type SignupForm struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// Tokens is the auth response carrying access and refresh tokens.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// User is the authenticated user's profile.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// DisplayName prefers the first name and falls back to the email.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

// ProgressPatch is the partial update sent by progress tracking.
type ProgressPatch struct {
	EpisodesWatched int          `json:"episodes_watched"`
	Status          *WatchStatus `json:"status,omitempty"`
}

// RatingFromTenPoint converts a 1-10 review score to the canonical 0-5 scale.
func RatingFromTenPoint(v float64) float64 {
	return v / 2
}

// RatingToTenPoint converts a canonical 0-5 rating to the 1-10 review scale.
func RatingToTenPoint(v float64) float64 {
	return v * 2
}

// String renders the item as "Title (platform)".
func (c CatalogItem) String() string {
	if c.Platform == "" {
		return c.Title
	}
	return fmt.Sprintf("%s (%s)", c.Title, c.Platform)
}
