package crlist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// ToggleThreadMsg asks the parent to open or close a change request thread.
type ToggleThreadMsg struct {
	ChangeRequestID string
}

// Model is the change request list view.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	items       []Item
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a change request list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Change Requests"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "filter by title..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetItems replaces the rows. The selection stays on the same change
// request when it is still listed.
func (m *Model) SetItems(crs []model.ChangeRequest, unread map[string]int, expanded string) tea.Cmd {
	selected := ""
	if cur, ok := m.SelectedChangeRequest(); ok {
		selected = cur.ID
	}

	m.items = make([]Item, len(crs))
	for i, cr := range crs {
		m.items[i] = Item{
			ChangeRequest: cr,
			Unread:        unread[cr.ID],
			Expanded:      cr.ID == expanded,
		}
	}
	return m.apply(selected)
}

// apply pushes the rows matching the current query into the list.
func (m *Model) apply(selectedID string) tea.Cmd {
	q := strings.ToLower(m.query)
	visible := make([]list.Item, 0, len(m.items))
	index := 0
	for _, it := range m.items {
		if q != "" && !strings.Contains(strings.ToLower(it.ChangeRequest.Title), q) {
			continue
		}
		if it.ChangeRequest.ID == selectedID {
			index = len(visible)
		}
		visible = append(visible, it)
	}
	cmd := m.list.SetItems(visible)
	m.list.Select(index)
	return cmd
}

// SelectedChangeRequest returns the change request under the cursor.
func (m Model) SelectedChangeRequest() (model.ChangeRequest, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.ChangeRequest{}, false
	}
	return it.ChangeRequest, true
}

// Searching reports whether the filter input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Query returns the active title filter.
func (m Model) Query() string {
	return m.query
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		m.query = strings.TrimSpace(m.searchInput.Value())
		return m, m.apply("")

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.query = ""
		return m, m.apply("")
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		cr, ok := m.SelectedChangeRequest()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return ToggleThreadMsg{ChangeRequestID: cr.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render("No change request matches \"" + m.query + "\".\nPress / then esc to clear.")
	}
	return style.Render("No change requests yet.\n\nPress n to create one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
