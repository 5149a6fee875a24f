package todoform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// TodoSubmitMsg is dispatched when a new todo is entered.
type TodoSubmitMsg struct {
	Todo model.NewTodo
}

// BlockedReasonSubmitMsg is dispatched when a blocked reason is entered.
// An empty Reason clears it.
type BlockedReasonSubmitMsg struct {
	TodoID string
	Reason string
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// Mode selects which form is shown.
type Mode int

const (
	ModeCreate Mode = iota
	ModeBlockedReason
)

// formBindings keeps field values on the heap so huh's Value pointers stay
// valid across Bubble Tea model copies.
type formBindings struct {
	title      string
	targetDate string
	reason     string
}

// Model is the todo form: a new card, or a card's blocked reason.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	mode   Mode
	todoID string
	width  int
	height int
}

// New creates a todo form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Mode returns the active form mode.
func (m Model) Mode() Mode {
	return m.mode
}

// StartCreate initializes the form for a new todo.
func (m *Model) StartCreate() tea.Cmd {
	m.mode = ModeCreate
	m.todoID = ""
	m.fb.title = ""
	m.fb.targetDate = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewInput().
				Title("Target Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.targetDate).
				Validate(validateOptionalDate),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m.form.Init()
}

// StartBlockedReason initializes the form for editing a todo's blocked
// reason, prefilled with the current one.
func (m *Model) StartBlockedReason(todo model.Todo) tea.Cmd {
	m.mode = ModeBlockedReason
	m.todoID = todo.ID
	m.fb.reason = todo.BlockedReason
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Blocked by").
				Description(todo.Title).
				Placeholder("Waiting on... (empty clears)").
				Value(&m.fb.reason),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m.form.Init()
}

// Update handles messages for the todo form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.handleSubmit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the todo form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Todo"
	if m.mode == ModeBlockedReason {
		titleText = "Blocked Reason"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) handleSubmit() tea.Cmd {
	if m.mode == ModeBlockedReason {
		msg := BlockedReasonSubmitMsg{TodoID: m.todoID, Reason: strings.TrimSpace(m.fb.reason)}
		return func() tea.Msg { return msg }
	}

	todo := model.NewTodo{Title: strings.TrimSpace(m.fb.title)}
	if d := strings.TrimSpace(m.fb.targetDate); d != "" {
		todo.TargetDate = &d
	}
	return func() tea.Msg { return TodoSubmitMsg{Todo: todo} }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 8)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(model.TargetDateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
