// Package todoboard renders the personal kanban board: four columns of todo
// cards with keys to move, add, block and delete cards.
package todoboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// MoveMsg asks the parent to move a card to another column.
type MoveMsg struct {
	TodoID string
	Status string
}

// AddMsg asks the parent to open the new todo form.
type AddMsg struct{}

// BlockMsg asks the parent to edit a card's blocked reason.
type BlockMsg struct {
	Todo model.Todo
}

// DeleteMsg asks the parent to delete a card.
type DeleteMsg struct {
	TodoID string
}

var columnTitles = map[string]string{
	model.TodoStatusTodo:       "To Do",
	model.TodoStatusInProgress: "In Progress",
	model.TodoStatusBlocked:    "Blocked",
	model.TodoStatusDone:       "Done",
}

// Model is the todo board view.
type Model struct {
	columns [][]model.Todo
	col     int
	rows    []int
	keys    *keys.KeyMap
	now     func() time.Time
	width   int
	height  int
}

// New creates a todo board.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		columns: make([][]model.Todo, len(model.TodoColumns)),
		rows:    make([]int, len(model.TodoColumns)),
		keys:    k,
		now:     time.Now,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetTodos distributes todos over the columns, keeping their order. The
// cursor follows the selected card when it is still on the board.
func (m *Model) SetTodos(todos []model.Todo) {
	selected := ""
	if t, ok := m.Selected(); ok {
		selected = t.ID
	}

	columns := make([][]model.Todo, len(model.TodoColumns))
	for _, t := range todos {
		if i := t.ColumnIndex(); i >= 0 {
			columns[i] = append(columns[i], t)
		}
	}
	m.columns = columns

	for c := range m.columns {
		for r, t := range m.columns[c] {
			if t.ID == selected {
				m.col, m.rows[c] = c, r
			}
		}
		m.clampRow(c)
	}
}

// Selected returns the card under the cursor.
func (m Model) Selected() (model.Todo, bool) {
	cards := m.columns[m.col]
	if len(cards) == 0 {
		return model.Todo{}, false
	}
	return cards[m.rows[m.col]], true
}

// Column returns the status of the focused column.
func (m Model) Column() string {
	return model.TodoColumns[m.col]
}

func (m *Model) clampRow(c int) {
	n := len(m.columns[c])
	switch {
	case n == 0:
		m.rows[c] = 0
	case m.rows[c] >= n:
		m.rows[c] = n - 1
	case m.rows[c] < 0:
		m.rows[c] = 0
	}
}

// Update handles key input for the board.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(kmsg, m.keys.Down):
		m.rows[m.col]++
		m.clampRow(m.col)

	case key.Matches(kmsg, m.keys.Up):
		m.rows[m.col]--
		m.clampRow(m.col)

	case key.Matches(kmsg, m.keys.NextColumn):
		m.col = (m.col + 1) % len(m.columns)

	case key.Matches(kmsg, m.keys.PrevColumn):
		m.col = (m.col + len(m.columns) - 1) % len(m.columns)

	case key.Matches(kmsg, m.keys.Left):
		return m, m.move(-1)

	case key.Matches(kmsg, m.keys.Right):
		return m, m.move(1)

	case key.Matches(kmsg, m.keys.Add):
		return m, func() tea.Msg { return AddMsg{} }

	case key.Matches(kmsg, m.keys.Block):
		if t, ok := m.Selected(); ok {
			return m, func() tea.Msg { return BlockMsg{Todo: t} }
		}

	case key.Matches(kmsg, m.keys.Remove):
		if t, ok := m.Selected(); ok {
			return m, func() tea.Msg { return DeleteMsg{TodoID: t.ID} }
		}
	}
	return m, nil
}

// move returns a command moving the selected card delta columns, or nil at
// the board edge.
func (m Model) move(delta int) tea.Cmd {
	t, ok := m.Selected()
	if !ok {
		return nil
	}
	target := t.ColumnIndex() + delta
	if target < 0 || target >= len(model.TodoColumns) {
		return nil
	}
	status := model.TodoColumns[target]
	return func() tea.Msg { return MoveMsg{TodoID: t.ID, Status: status} }
}

// View renders the columns side by side.
func (m Model) View() string {
	colWidth := max(16, m.width/len(m.columns)-2)

	rendered := make([]string, len(m.columns))
	for c, cards := range m.columns {
		status := model.TodoColumns[c]
		title := theme.StatusStyle(status).Render(fmt.Sprintf("%s (%d)", columnTitles[status], len(cards)))

		lines := []string{title, ""}
		if len(cards) == 0 {
			lines = append(lines, theme.HelpStyle.Render("empty"))
		}
		for r, t := range cards {
			lines = append(lines, m.renderCard(t, c == m.col && r == m.rows[c], colWidth-2))
		}

		style := theme.ColumnStyle
		if c == m.col {
			style = theme.ActiveColumnStyle
		}
		rendered[c] = style.
			Width(colWidth).
			Height(max(3, m.height-2)).
			Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderCard(t model.Todo, selected bool, width int) string {
	lines := []string{t.Title}

	if t.TargetDate != nil {
		due := theme.DueDateStyle.Render("due " + *t.TargetDate)
		if t.IsOverdue(m.now()) {
			due += " " + theme.OverdueStyle.Render("OVERDUE")
		}
		lines = append(lines, due)
	}

	if t.Status == model.TodoStatusBlocked || t.BlockedReason != "" {
		reason := t.BlockedReason
		if reason == "" {
			reason = "no reason given (b)"
		}
		line := theme.OverdueStyle.Render("⛔ ") + reason
		if t.BlockedAt != nil {
			line += theme.DueDateStyle.Render(" · " + t.BlockedAt.Local().Format("Jan 02 15:04"))
		}
		lines = append(lines, line)
	}

	card := lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
	if t.Status == model.TodoStatusDone {
		card = theme.DimmedStyle.Render(card)
	}
	if selected {
		return theme.SelectedItemStyle.Render(card)
	}
	return theme.ListItemStyle.Render(card)
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
