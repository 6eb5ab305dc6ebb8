package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/shared"
	"github.com/desertthunder/moviemate/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CatalogView ViewState = iota
	CollectionView
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	engine *tasks.Engine
	scale  float64

	// gen increments on every fetch and view switch; messages from older generations are dropped.
	gen uint64

	width          int
	height         int
	catalogList    list.Model
	catalogPage    int
	catalogNext    bool
	collectionList list.Model
	collectionPage int
	collectionNext bool
	loading        bool
	status         string
	err            error
	help           help.Model
	keys           keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.Engine) *Model {
	return &Model{
		ctx:            ctx,
		view:           CatalogView,
		engine:         engine,
		scale:          engine.Validator().Bounds().Max,
		catalogList:    newList("Catalog"),
		catalogPage:    1,
		collectionList: newList("My Collection"),
		collectionPage: 1,
		help:           help.New(),
		keys:           newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init loads the first catalog page and the membership index.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCatalog(), m.refreshMembership())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.catalogList.SetSize(msg.Width-4, msg.Height-8)
		m.collectionList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.current().FilterState() == list.Filtering {
			return m.updateList(msg)
		}
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.view {
		case CatalogView:
			return m.handleCatalogKeys(msg)
		case CollectionView:
			return m.handleCollectionKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	session := styles.muted.Render("browsing anonymously")
	if m.engine.LoggedIn() {
		session = styles.ok.Render("signed in")
	}
	header := fmt.Sprintf("%s  %s", styles.title.Render("MovieMate"), session)

	body := m.current().View()
	if m.err != nil {
		body = styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	} else if m.loading && len(m.current().Items()) == 0 {
		body = styles.muted.Render("Loading...")
	}

	var helpKeys []key.Binding
	switch m.view {
	case CatalogView:
		helpKeys = []key.Binding{m.keys.add, m.keys.next, m.keys.prev, m.keys.refresh, m.keys.switchTo, m.keys.quit}
	case CollectionView:
		helpKeys = []key.Binding{m.keys.inc, m.keys.dec, m.keys.complete, m.keys.next, m.keys.prev, m.keys.switchTo, m.keys.quit}
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", header, body, m.status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) current() *list.Model {
	if m.view == CollectionView {
		return &m.collectionList
	}
	return &m.catalogList
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CatalogView:
		m.catalogList, cmd = m.catalogList.Update(msg)
	case CollectionView:
		m.collectionList, cmd = m.collectionList.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.add):
		if selected, ok := m.catalogList.SelectedItem().(catalogItem); ok {
			return m, m.startAdd(selected.item)
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		if !m.catalogNext {
			return m, nil
		}
		m.catalogPage++
		return m, m.fetchCatalog()
	case key.Matches(msg, m.keys.prev):
		if m.catalogPage <= 1 {
			return m, nil
		}
		m.catalogPage--
		return m, m.fetchCatalog()
	case key.Matches(msg, m.keys.refresh):
		return m, tea.Batch(m.fetchCatalog(), m.refreshMembership())
	case key.Matches(msg, m.keys.switchTo):
		m.view = CollectionView
		m.status = ""
		if !m.engine.LoggedIn() {
			m.status = styles.warn.Render("Sign in with `mm auth login` to see your collection.")
		}
		return m, m.fetchCollection()
	}
	return m.updateList(msg)
}

func (m *Model) handleCollectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.inc):
		return m, m.progress(m.engine.Increment)
	case key.Matches(msg, m.keys.dec):
		return m, m.progress(m.engine.Decrement)
	case key.Matches(msg, m.keys.complete):
		return m, m.progress(m.engine.MarkCompleted)
	case key.Matches(msg, m.keys.next):
		if !m.collectionNext {
			return m, nil
		}
		m.collectionPage++
		return m, m.fetchCollection()
	case key.Matches(msg, m.keys.prev):
		if m.collectionPage <= 1 {
			return m, nil
		}
		m.collectionPage--
		return m, m.fetchCollection()
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchCollection()
	case key.Matches(msg, m.keys.switchTo):
		m.view = CatalogView
		m.status = ""
		m.err = nil
		m.gen++
		return m, nil
	}
	return m.updateList(msg)
}

// startAdd runs the synchronous half of an add so the row shows pending on the next render,
// and hands the request to a command.
func (m *Model) startAdd(item models.CatalogItem) tea.Cmd {
	pending, result, err := m.engine.Begin(item)
	switch {
	case errors.Is(err, shared.ErrAuthRequired):
		m.status = styles.warn.Render("Sign in with `mm auth login` to add titles.")
		return nil
	case err != nil:
		m.status = styles.err.Render(err.Error())
		return nil
	case pending == nil && result.Outcome == tasks.AddAlreadyOwned:
		m.status = styles.muted.Render(fmt.Sprintf("%s is already in your collection.", item.Title))
		return nil
	case pending == nil:
		m.status = styles.muted.Render(fmt.Sprintf("%s is already being added.", item.Title))
		return nil
	}

	m.status = styles.warn.Render(fmt.Sprintf("Adding %s...", item.Title))
	return func() tea.Msg {
		res, err := m.engine.Commit(m.ctx, pending)
		return addFinishedMsg(item, res, err)
	}
}

func (m *Model) progress(op func(context.Context, models.CollectionItem) (*models.CollectionItem, error)) tea.Cmd {
	selected, ok := m.collectionList.SelectedItem().(collectionItem)
	if !ok {
		return nil
	}
	if !selected.item.IsTV() {
		m.status = styles.muted.Render("Progress tracking applies to TV shows.")
		return nil
	}

	gen, item := m.gen, selected.item
	return func() tea.Msg {
		updated, err := op(m.ctx, item)
		return progressSavedMsg(gen, item.ID, updated, err)
	}
}

func (m *Model) fetchCatalog() tea.Cmd {
	m.gen++
	m.loading = true
	gen, page := m.gen, m.catalogPage
	return func() tea.Msg {
		result, err := m.engine.ListCatalog(m.ctx, models.ListOptions{Page: page})
		return catalogFetchedMsg(gen, page, result, err)
	}
}

func (m *Model) fetchCollection() tea.Cmd {
	m.gen++
	m.loading = true
	gen, page := m.gen, m.collectionPage
	return func() tea.Msg {
		result, err := m.engine.ListCollection(m.ctx, models.ListOptions{Page: page})
		return collectionFetchedMsg(gen, page, result, err)
	}
}

func (m *Model) refreshMembership() tea.Cmd {
	return func() tea.Msg {
		return membershipRefreshedMsg(m.engine.RefreshMembership(m.ctx, nil))
	}
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogFetched:
		if msg.gen != m.gen {
			return m, nil
		}
		d := msg.data.(catalogPage)
		m.loading = false
		if d.err != nil {
			m.err = d.err
			return m, nil
		}
		m.err = nil
		m.catalogNext = d.result.HasNext()

		items := make([]list.Item, len(d.result.Results))
		for i, c := range d.result.Results {
			items[i] = catalogItem{item: c, registry: m.engine.Registry()}
		}
		m.catalogList.Title = fmt.Sprintf("Catalog · page %d", d.page)
		return m, m.catalogList.SetItems(items)

	case MsgCollectionFetched:
		if msg.gen != m.gen {
			return m, nil
		}
		d := msg.data.(collectionPage)
		m.loading = false
		if errors.Is(d.err, shared.ErrReauthenticate) {
			m.status = styles.warn.Render("Session expired. Sign in again with `mm auth login`.")
			return m, m.collectionList.SetItems(nil)
		}
		if d.err != nil {
			m.err = d.err
			return m, nil
		}
		m.err = nil
		m.collectionNext = d.result.HasNext()

		items := make([]list.Item, len(d.result.Results))
		for i, c := range d.result.Results {
			items[i] = collectionItem{item: c, scale: m.scale}
		}
		m.collectionList.Title = fmt.Sprintf("My Collection · page %d", d.page)
		return m, m.collectionList.SetItems(items)

	case MsgAddFinished:
		d := msg.data.(addFinished)
		switch {
		case errors.Is(d.err, shared.ErrReauthenticate):
			m.status = styles.warn.Render("Session expired. Sign in again with `mm auth login`.")
		case d.err != nil:
			m.status = styles.err.Render(fmt.Sprintf("Couldn't add %s: %v", d.item.Title, d.err))
		default:
			m.status = styles.ok.Render(fmt.Sprintf("✓ Added %s", d.item.Title))
		}
		return m, nil

	case MsgProgressSaved:
		d := msg.data.(progressSaved)
		var cmd tea.Cmd
		if d.item != nil && msg.gen == m.gen {
			cmd = m.replaceCollectionItem(*d.item)
		}
		if d.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Couldn't update progress: %v", d.err))
		} else if d.item != nil {
			m.status = styles.ok.Render(fmt.Sprintf("%s: %d watched", d.item.Title, d.item.EpisodesWatched))
		}
		return m, cmd

	case MsgMembershipRefreshed:
		if err, _ := msg.data.(error); err != nil {
			m.status = styles.warn.Render(fmt.Sprintf("Couldn't load your collection: %v", err))
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) replaceCollectionItem(updated models.CollectionItem) tea.Cmd {
	for i, li := range m.collectionList.Items() {
		if ci, ok := li.(collectionItem); ok && ci.item.ID == updated.ID {
			return m.collectionList.SetItem(i, collectionItem{item: updated, scale: m.scale})
		}
	}
	return nil
}
