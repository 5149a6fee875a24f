package help

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	facts  []string
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// SetSession records the facts shown under the key list.
func (m *Model) SetSession(server, permission string, commentEvery, unreadEvery time.Duration) {
	m.facts = []string{
		fmt.Sprintf("Server         %s", server),
		fmt.Sprintf("Notifications  %s (N to enable)", permission),
		fmt.Sprintf("Comment poll   every %s", commentEvery),
		fmt.Sprintf("Unread poll    every %s", unreadEvery),
	}
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	parts := []string{titleStyle.Render("Keyboard Shortcuts"), m.help.View(m.keys)}
	if len(m.facts) > 0 {
		factStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		parts = append(parts, "", titleStyle.Render("Session"))
		for _, f := range m.facts {
			parts = append(parts, factStyle.Render(f))
		}
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
