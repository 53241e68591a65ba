package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/dreamsprout/internal/journal"
	"github.com/desertthunder/dreamsprout/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
	ConfirmView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	store    *journal.Store
	view     ViewState
	width    int
	height   int
	list     list.Model
	filter   journal.Filter
	selected models.Dream
	loaded   bool
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model over store.
func NewModel(ctx context.Context, store *journal.Store) *Model {
	keys := newKeyMap()

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Dream Journal"
	l.KeyMap = listKeyMap()
	l.SetStatusBarItemName("dream", "dreams")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.enter, keys.favorite, keys.del, keys.sort, keys.favorites}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.refresh, keys.quit}
	}

	return &Model{
		ctx:    ctx,
		store:  store,
		view:   ListView,
		list:   l,
		filter: journal.Filter{Order: journal.SortLatest},
		help:   help.New(),
		keys:   keys,
	}
}

// Init loads the journal.
func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	m.err = msg.err
	switch msg.kind {
	case MsgDreamsLoaded:
		m.loaded = true
		if msg.err == nil {
			m.status = fmt.Sprintf("Loaded %d dreams", m.store.Len())
		}
	case MsgFavoriteToggled:
		if d, ok := msg.data.(*models.Dream); ok && d != nil {
			if m.selected.ID == d.ID {
				m.selected = *d
			}
			if d.IsFavorite {
				m.status = fmt.Sprintf("Added %q to favorites", d.Title)
			} else {
				m.status = fmt.Sprintf("Removed %q from favorites", d.Title)
			}
		} else if msg.err == nil {
			m.status = "Favorite unchanged"
		}
	case MsgDreamDeleted:
		m.view = ListView
		if msg.err == nil {
			m.status = fmt.Sprintf("Deleted dream %s", msg.data)
			m.selected = models.Dream{}
		}
	}
	return m, m.syncItems()
}

// syncItems rebuilds the list from the store using the current filter. The list's own
// filter handles search.
func (m *Model) syncItems() tea.Cmd {
	return m.list.SetItems(toItems(m.store.Query(m.filter)))
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if d, ok := m.current(); ok {
			m.selected = d
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if d, ok := m.current(); ok {
			return m, m.toggleFavorite(d.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.del):
		if d, ok := m.current(); ok {
			m.selected = d
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.sort):
		if m.filter.Order == journal.SortOldest {
			m.filter.Order = journal.SortLatest
		} else {
			m.filter.Order = journal.SortOldest
		}
		m.status = fmt.Sprintf("Sorted by %s", m.filter.Order)
		return m, m.syncItems()
	case key.Matches(msg, m.keys.favorites):
		m.filter.FavoritesOnly = !m.filter.FavoritesOnly
		if m.filter.FavoritesOnly {
			m.status = "Showing favorites"
		} else {
			m.status = "Showing all dreams"
		}
		return m, m.syncItems()
	case key.Matches(msg, m.keys.refresh):
		m.status = "Refreshing..."
		return m, m.refresh()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
	case key.Matches(msg, m.keys.favorite):
		return m, m.toggleFavorite(m.selected.ID)
	case key.Matches(msg, m.keys.del):
		m.view = ConfirmView
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.deleteDream(m.selected.ID)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = ListView
	}
	return m, nil
}

func (m *Model) current() (models.Dream, bool) {
	if item, ok := m.list.SelectedItem().(dreamItem); ok {
		return item.dream, true
	}
	return models.Dream{}, false
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return dreamsLoadedMsg(m.store.Refresh(m.ctx, false))
	}
}

func (m *Model) toggleFavorite(id string) tea.Cmd {
	return func() tea.Msg {
		return favoriteToggledMsg(m.store.ToggleFavorite(m.ctx, id))
	}
}

func (m *Model) deleteDream(id string) tea.Cmd {
	return func() tea.Msg {
		return dreamDeletedMsg(id, m.store.Delete(m.ctx, id))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return m.renderList()
	}
}

func (m *Model) footer() string {
	switch {
	case m.err != nil:
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.store.State().Busy():
		return styles.warn.Render("Working...")
	case m.status != "":
		return styles.help.Render(m.status)
	}
	return ""
}

func (m *Model) renderList() string {
	if !m.loaded {
		return styles.title.Render("Loading dreams...")
	}
	if m.store.Len() == 0 {
		empty := styles.title.Render("Your dream journal is empty")
		hint := styles.help.Render("Record one with: dreamsprout dream new --text \"...\"")
		return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", empty, hint, m.footer(), m.help.ShortHelpView([]key.Binding{m.keys.refresh, m.keys.quit}))
	}
	return fmt.Sprintf("%s\n%s", m.list.View(), m.footer())
}

func (m *Model) renderDetail() string {
	d := m.selected
	width := max(m.width-6, 40)
	wrap := styles.body.Width(width)

	var b strings.Builder
	title := d.Title
	if d.IsFavorite {
		title = "★ " + title
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	meta := []string{d.Date}
	if d.Tone != "" {
		meta = append(meta, d.Tone.Label())
	}
	if d.Length != "" {
		meta = append(meta, string(d.Length))
	}
	if d.InputMode == models.InputVoice {
		meta = append(meta, "voice")
	}
	b.WriteString(styles.help.Render(strings.Join(meta, " • ")))
	b.WriteString("\n\n")

	section := func(label, text string) {
		if text == "" {
			return
		}
		b.WriteString(styles.label.Render(label))
		b.WriteString("\n")
		b.WriteString(wrap.Render(text))
		b.WriteString("\n\n")
	}
	section("Dream", d.OriginalDream)
	section("Story", d.Story)
	section("Analysis", d.Analysis)

	if len(d.Images) > 0 {
		b.WriteString(styles.label.Render("Images"))
		b.WriteString("\n")
		for i, img := range d.Images {
			label := img.Description
			if label == "" {
				label = fmt.Sprintf("Scene %d", i+1)
			}
			b.WriteString(wrap.Render(fmt.Sprintf("%s: %s", label, img.URL)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.footer())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.favorite, m.keys.del, m.keys.quit}))
	return lipgloss.NewStyle().Margin(1, 2).Render(b.String())
}

func (m *Model) renderConfirm() string {
	title := styles.warn.Render(fmt.Sprintf("Delete %q?", m.selected.Title))
	info := fmt.Sprintf("\n%s\n", snippet(m.selected.OriginalDream, 80))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return lipgloss.NewStyle().Margin(1, 2).Render(fmt.Sprintf("%s\n%s\n%s", title, info, helpView))
}
