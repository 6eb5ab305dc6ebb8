package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/moviemate/internal/formatter"
	"github.com/desertthunder/moviemate/internal/membership"
	"github.com/desertthunder/moviemate/internal/models"
)

var (
	_ list.Item = catalogItem{}
	_ list.Item = collectionItem{}
)

// catalogItem wraps [models.CatalogItem] to implement [list.Item].
//
// The badge is looked up on every render so pending and confirmed adds show without rebuilding the list.
type catalogItem struct {
	item     models.CatalogItem
	registry *membership.Registry
}

func (i catalogItem) FilterValue() string { return i.item.Title }
func (i catalogItem) Title() string       { return i.item.Title }
func (i catalogItem) Description() string {
	parts := []string{string(i.item.MediaType)}
	if i.item.Platform != "" {
		parts = append(parts, i.item.Platform)
	}
	if i.item.Genre != "" {
		parts = append(parts, i.item.Genre)
	}
	return strings.Join(parts, " • ") + "  " + styles.badge(i.registry.Lookup(i.item))
}

// collectionItem wraps [models.CollectionItem] to implement [list.Item].
type collectionItem struct {
	item  models.CollectionItem
	scale float64
}

func (i collectionItem) FilterValue() string { return i.item.Title }
func (i collectionItem) Title() string       { return i.item.Title }
func (i collectionItem) Description() string {
	parts := []string{string(i.item.Status)}
	if p := formatter.ProgressLabel(i.item); p != "" {
		parts = append(parts, p)
	}
	if i.item.Platform != "" {
		parts = append(parts, i.item.Platform)
	}
	parts = append(parts, formatter.RatingStars(i.item.Rating, i.scale))
	return strings.Join(parts, " • ")
}
