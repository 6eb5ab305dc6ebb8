package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/shared"
)

// UpdateProgress sets the episodes watched on a TV record.
//
// The value is clamped to [0,total], or to >= 0 when the total is unknown. With markCompleted,
// reaching the total also sets the status to completed. When the write fails the latest
// record is re-fetched and returned alongside the error.
func (e *Engine) UpdateProgress(ctx context.Context, item models.CollectionItem, watched int, markCompleted bool) (*models.CollectionItem, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}
	if !item.IsTV() {
		return nil, fmt.Errorf("%w: progress tracking applies to TV shows", shared.ErrInvalidArgument)
	}

	total := item.Total()
	watched = max(watched, 0)
	if total > 0 {
		watched = min(watched, total)
	}

	patch := models.ProgressPatch{EpisodesWatched: watched}
	if markCompleted && total > 0 && watched == total {
		completed := models.StatusCompleted
		patch.Status = &completed
	}

	updated, err := e.api.PatchCollection(ctx, item.ID, patch)
	if err == nil {
		e.logger.Info("progress updated", "id", item.ID, "watched", updated.EpisodesWatched, "status", updated.Status)
		return updated, nil
	}

	err = e.expire(err)
	if !e.tokens.LoggedIn() {
		return nil, err
	}

	latest, ferr := e.api.GetCollection(ctx, item.ID)
	if ferr != nil {
		e.logger.Warn("refetch after failed progress update failed", "id", item.ID, "error", ferr)
		return nil, err
	}
	return latest, err
}

// Increment adds one episode. At the total it is a no-op.
func (e *Engine) Increment(ctx context.Context, item models.CollectionItem) (*models.CollectionItem, error) {
	next := item.EpisodesWatched + 1
	if total := item.Total(); item.IsTV() && total > 0 && next > total {
		return &item, nil
	}
	return e.UpdateProgress(ctx, item, next, true)
}

// Decrement removes one episode. At zero it is a no-op.
func (e *Engine) Decrement(ctx context.Context, item models.CollectionItem) (*models.CollectionItem, error) {
	prev := item.EpisodesWatched - 1
	if item.IsTV() && prev < 0 {
		return &item, nil
	}
	return e.UpdateProgress(ctx, item, prev, false)
}

// SetProgress records an explicit episode count. A count above the total is rejected.
func (e *Engine) SetProgress(ctx context.Context, item models.CollectionItem, watched int) (*models.CollectionItem, error) {
	if total := item.Total(); total > 0 && watched > total {
		return nil, &models.ValidationError{
			Field:   "EpisodesWatched",
			Message: fmt.Sprintf("Episodes watched cannot exceed total episodes (%d).", total),
		}
	}
	return e.UpdateProgress(ctx, item, watched, true)
}

// MarkCompleted sets episodes watched to the total and the status to completed.
func (e *Engine) MarkCompleted(ctx context.Context, item models.CollectionItem) (*models.CollectionItem, error) {
	if !item.IsTV() || item.Total() <= 0 {
		return nil, fmt.Errorf("%w: mark completed needs a TV show with a known episode total", shared.ErrInvalidArgument)
	}
	return e.UpdateProgress(ctx, item, item.Total(), true)
}

// ReviewInput is a rating and review. TenPoint scores are halved onto the canonical scale.
// A nil Score or blank Text leaves that stored field as it is.
type ReviewInput struct {
	Score    *float64
	TenPoint bool
	Text     string
}

type reviewPatch struct {
	Rating *float64 `json:"rating,omitempty"`
	Review *string  `json:"review,omitempty"`
}

// Review validates and stores a rating and review.
func (e *Engine) Review(ctx context.Context, id int64, in ReviewInput) (*models.CollectionItem, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}

	var patch reviewPatch
	if text := strings.TrimSpace(in.Text); text != "" {
		patch.Review = &text
	}
	if in.Score != nil {
		score := *in.Score
		if in.TenPoint {
			if score < 1 || score > 10 {
				return nil, &models.ValidationError{Field: "Rating", Message: "Score must be a number between 1 and 10."}
			}
			score = models.RatingFromTenPoint(score)
		}

		b := e.validator.Bounds()
		if score < b.Min || score > b.Max {
			return nil, &models.ValidationError{
				Field:   "Rating",
				Message: fmt.Sprintf("Rating must be a number between %g and %g.", b.Min, b.Max),
			}
		}
		patch.Rating = &score
	}
	if patch.Rating == nil && patch.Review == nil {
		return nil, fmt.Errorf("%w: a score or review text", shared.ErrMissingArgument)
	}

	updated, err := e.api.PatchCollection(ctx, id, patch)
	if err != nil {
		return nil, e.expire(err)
	}
	return updated, nil
}
