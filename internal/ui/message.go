package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	gen  uint64 // view generation the originating command was issued under
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCatalogFetched MsgKind = iota
	MsgCollectionFetched
	MsgAddFinished
	MsgProgressSaved
	MsgMembershipRefreshed
)

type catalogPage struct {
	page   int
	result *models.Page[models.CatalogItem]
	err    error
}

type collectionPage struct {
	page   int
	result *models.Page[models.CollectionItem]
	err    error
}

type addFinished struct {
	item   models.CatalogItem
	result tasks.AddResult
	err    error
}

type progressSaved struct {
	id   int64
	item *models.CollectionItem
	err  error
}

// catalogFetchedMsg is the constructor for [MsgCatalogFetched]
func catalogFetchedMsg(gen uint64, page int, result *models.Page[models.CatalogItem], err error) Msg {
	return Msg{kind: MsgCatalogFetched, gen: gen, data: catalogPage{page, result, err}}
}

// collectionFetchedMsg is the constructor for [MsgCollectionFetched]
func collectionFetchedMsg(gen uint64, page int, result *models.Page[models.CollectionItem], err error) Msg {
	return Msg{kind: MsgCollectionFetched, gen: gen, data: collectionPage{page, result, err}}
}

// addFinishedMsg is the constructor for [MsgAddFinished]. Adds settle the registry on
// their own, so they are not tied to a view generation.
func addFinishedMsg(item models.CatalogItem, result tasks.AddResult, err error) Msg {
	return Msg{kind: MsgAddFinished, data: addFinished{item, result, err}}
}

// progressSavedMsg is the constructor for [MsgProgressSaved]
func progressSavedMsg(gen uint64, id int64, item *models.CollectionItem, err error) Msg {
	return Msg{kind: MsgProgressSaved, gen: gen, data: progressSaved{id, item, err}}
}

// membershipRefreshedMsg is the constructor for [MsgMembershipRefreshed]
func membershipRefreshedMsg(err error) Msg {
	return Msg{kind: MsgMembershipRefreshed, data: err}
}
