package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/moviemate/internal/shared"
	"github.com/go-playground/validator/v10"
)

// ValidationError is a local form failure. No request is issued when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return shared.ErrInvalidInput }

// RatingBounds is the canonical rating scale.
type RatingBounds struct {
	Min float64
	Max float64
}

// DefaultRatingBounds is the 0-5 scale used by the create and edit forms.
var DefaultRatingBounds = RatingBounds{Min: 0, Max: 5}

// CollectionForm holds the editable fields of a collection item.
type CollectionForm struct {
	Title           string    `validate:"nonblank"`
	MediaType       MediaType `validate:"oneof=movie tv"`
	Director        string
	Genre           string
	Platform        string
	Status          WatchStatus `validate:"oneof=watching completed wishlist"`
	TotalEpisodes   *int
	EpisodesWatched int
	Rating          *float64
	Review          string
}

// NewCollectionForm returns an empty form with the defaults of the create flow.
func NewCollectionForm() CollectionForm {
	return CollectionForm{MediaType: MediaMovie, Status: StatusWishlist}
}

// FormFromItem populates a form from a fetched record.
func FormFromItem(item CollectionItem) CollectionForm {
	f := CollectionForm{
		Title:           item.Title,
		MediaType:       item.MediaType,
		Director:        item.Director,
		Genre:           item.Genre,
		Platform:        item.Platform,
		Status:          item.Status,
		TotalEpisodes:   item.TotalEpisodes,
		EpisodesWatched: item.EpisodesWatched,
		Rating:          item.Rating,
		Review:          item.Review,
	}
	if f.MediaType == "" {
		f.MediaType = MediaMovie
	}
	if f.Status == "" {
		f.Status = StatusWishlist
	}
	return f
}

// CollectionPayload is the JSON body for create and full-field PATCH requests.
//
// Empty optional strings are sent as null; episode fields only carry values for TV shows.
type CollectionPayload struct {
	Title           string      `json:"title"`
	MediaType       MediaType   `json:"media_type"`
	Director        *string     `json:"director"`
	Genre           *string     `json:"genre"`
	Platform        *string     `json:"platform"`
	Status          WatchStatus `json:"status"`
	TotalEpisodes   *int        `json:"total_episodes"`
	EpisodesWatched int         `json:"episodes_watched"`
	Rating          *float64    `json:"rating"`
	Review          *string     `json:"review,omitempty"`
}

// Payload converts the form into a request body.
func (f CollectionForm) Payload() CollectionPayload {
	p := CollectionPayload{
		Title:     strings.TrimSpace(f.Title),
		MediaType: f.MediaType,
		Director:  nullable(f.Director),
		Genre:     nullable(f.Genre),
		Platform:  nullable(f.Platform),
		Status:    f.Status,
		Rating:    f.Rating,
		Review:    nullable(f.Review),
	}
	if f.MediaType == MediaTV {
		p.TotalEpisodes = f.TotalEpisodes
		p.EpisodesWatched = f.EpisodesWatched
	}
	return p
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// FormValidator validates forms with go-playground/validator against a rating scale.
type FormValidator struct {
	validate *validator.Validate
	bounds   RatingBounds
}

// NewFormValidator builds a validator for the given rating bounds.
func NewFormValidator(bounds RatingBounds) *FormValidator {
	fv := &FormValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		bounds:   bounds,
	}

	// Registration only fails for empty tags or nil funcs.
	_ = fv.validate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	fv.validate.RegisterStructValidation(fv.collectionRules, CollectionForm{})

	return fv
}

// Bounds returns the rating scale used by this validator.
func (fv *FormValidator) Bounds() RatingBounds {
	return fv.bounds
}

func (fv *FormValidator) collectionRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(CollectionForm)

	if f.MediaType == MediaTV {
		switch {
		case f.TotalEpisodes == nil:
			sl.ReportError(f.TotalEpisodes, "total_episodes", "TotalEpisodes", "required_tv", "")
		case *f.TotalEpisodes <= 0:
			sl.ReportError(f.TotalEpisodes, "total_episodes", "TotalEpisodes", "positive", "")
		}

		switch {
		case f.EpisodesWatched < 0:
			sl.ReportError(f.EpisodesWatched, "episodes_watched", "EpisodesWatched", "nonnegative", "")
		case f.TotalEpisodes != nil && *f.TotalEpisodes > 0 && f.EpisodesWatched > *f.TotalEpisodes:
			sl.ReportError(f.EpisodesWatched, "episodes_watched", "EpisodesWatched", "lte_total", "")
		}
	}

	if f.Rating != nil && (*f.Rating < fv.bounds.Min || *f.Rating > fv.bounds.Max) {
		sl.ReportError(f.Rating, "rating", "Rating", "rating_bounds", "")
	}
}

// Collection validates a create or edit form.
func (fv *FormValidator) Collection(f CollectionForm) error {
	return fv.check(f)
}

// Signup validates a signup form.
func (fv *FormValidator) Signup(f SignupForm) error {
	return fv.check(f)
}

// Credentials validates a login request.
func (fv *FormValidator) Credentials(c Credentials) error {
	return fv.check(c)
}

func (fv *FormValidator) check(v any) error {
	err := fv.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	first := fieldErrs[0]
	return &ValidationError{Field: first.StructField(), Message: fv.message(first)}
}

func (fv *FormValidator) message(fe validator.FieldError) string {
	switch fe.StructField() + "/" + fe.Tag() {
	case "Title/nonblank":
		return "Title is required."
	case "MediaType/oneof":
		return "Type must be movie or tv."
	case "Status/oneof":
		return "Status must be one of watching, completed, wishlist."
	case "TotalEpisodes/required_tv":
		return "Total episodes is required for TV shows."
	case "TotalEpisodes/positive":
		return "Total episodes must be a number > 0."
	case "EpisodesWatched/nonnegative":
		return "Episodes watched invalid."
	case "EpisodesWatched/lte_total":
		return "Episodes watched cannot exceed total episodes."
	case "Rating/rating_bounds":
		return fmt.Sprintf("Rating must be a number between %g and %g.", fv.bounds.Min, fv.bounds.Max)
	case "Email/required", "Email/email":
		return "Please enter a valid email."
	case "Password/required", "Password/min":
		if fe.StructNamespace() == "Credentials.Password" {
			return "Password is required."
		}
		return "Password must be at least 8 characters."
	case "ConfirmPassword/required", "ConfirmPassword/eqfield":
		return "Passwords do not match."
	case "Username/required":
		return "Username is required."
	}
	return fmt.Sprintf("%s is invalid (%s).", fe.Field(), fe.Tag())
}
