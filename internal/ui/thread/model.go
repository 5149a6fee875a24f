package thread

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// CloseMsg signals the parent to collapse the open thread.
type CloseMsg struct{}

// SubmitCommentMsg carries a comment typed into the compose line.
type SubmitCommentMsg struct {
	ChangeRequestID string
	Content         string
}

// Model is the comment thread panel of one change request.
type Model struct {
	cr        *model.ChangeRequest
	comments  []model.Comment
	fresh     map[string]bool
	viewport  viewport.Model
	input     textinput.Model
	composing bool
	posting   bool
	keys      *keys.KeyMap
	width     int
	height    int
}

// New creates a thread panel.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	ti := textinput.New()
	ti.Placeholder = "write a comment, enter to send"
	ti.Prompt = "› "
	ti.CharLimit = 2000
	ti.Width = width - 4

	return Model{
		viewport: vp,
		input:    ti,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetThread shows a change request. freshIDs are the comments that were
// unread when the thread was opened; they get a "new" marker.
func (m *Model) SetThread(cr model.ChangeRequest, comments []model.Comment, freshIDs []string) {
	m.cr = &cr
	m.comments = comments
	m.fresh = make(map[string]bool, len(freshIDs))
	for _, id := range freshIDs {
		m.fresh[id] = true
	}
	m.composing = false
	m.posting = false
	m.input.Reset()
	m.input.Blur()
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoBottom()
}

// SetComments refreshes the comments of the shown thread. The view follows
// new comments when it was scrolled to the bottom.
func (m *Model) SetComments(comments []model.Comment) {
	if m.cr == nil {
		return
	}
	follow := m.viewport.AtBottom()
	m.comments = comments
	m.viewport.SetContent(m.renderContent())
	if follow {
		m.viewport.GotoBottom()
	}
}

// SetChangeRequest refreshes the header fields of the shown thread.
func (m *Model) SetChangeRequest(cr model.ChangeRequest) {
	if m.cr == nil || m.cr.ID != cr.ID {
		return
	}
	m.cr = &cr
	m.viewport.SetContent(m.renderContent())
}

// Clear empties the panel.
func (m *Model) Clear() {
	m.cr = nil
	m.comments = nil
	m.fresh = nil
	m.composing = false
	m.posting = false
	m.input.Reset()
	m.input.Blur()
	m.viewport.SetContent("")
}

// ChangeRequestID returns the id of the shown thread, or "".
func (m Model) ChangeRequestID() string {
	if m.cr == nil {
		return ""
	}
	return m.cr.ID
}

// StartCompose focuses the comment input.
func (m *Model) StartCompose() tea.Cmd {
	if m.cr == nil {
		return nil
	}
	m.composing = true
	return m.input.Focus()
}

// Composing reports whether the comment input has focus.
func (m Model) Composing() bool {
	return m.composing
}

// Posting reports whether a submitted comment is awaiting the server.
func (m Model) Posting() bool {
	return m.posting
}

// FinishPost ends a pending post. On success the input is cleared and
// closed; on failure the text stays so it can be resent.
func (m *Model) FinishPost(err error) {
	m.posting = false
	if err != nil {
		return
	}
	m.composing = false
	m.input.Reset()
	m.input.Blur()
}

// Update handles messages for the thread panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.composing {
			return m.handleComposeKeys(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }

		case key.Matches(msg, m.keys.Comment):
			return m, m.StartCompose()
		}
	}

	// Delegate to viewport for scrolling
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleComposeKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		content := strings.TrimSpace(m.input.Value())
		if content == "" || m.posting || m.cr == nil {
			return m, nil
		}
		m.posting = true
		id := m.cr.ID
		return m, func() tea.Msg {
			return SubmitCommentMsg{ChangeRequestID: id, Content: content}
		}

	case "esc":
		m.composing = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m Model) View() string {
	if m.cr == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No thread open")
	}

	footer := theme.HelpStyle.Render("c comment · esc close · pgup/pgdn scroll")
	if m.composing {
		footer = m.input.View()
		if m.posting {
			footer += theme.HelpStyle.Render("  sending...")
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m Model) renderContent() string {
	if m.cr == nil {
		return ""
	}

	cr := m.cr
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(cr.Title))

	badgeLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.StatusStyle(cr.Status).Render(cr.Status),
		"  ",
		theme.PriorityStyle(cr.Priority).Render(cr.Priority+" priority"),
	)
	sections = append(sections, badgeLine, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if !cr.CreatedAt.IsZero() {
		sections = append(sections, metaStyle.Render("Created "+cr.CreatedAt.Local().Format("2006-01-02 15:04")))
	}

	body := cr.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, "", lipgloss.NewStyle().Width(m.textWidth()).Render(body))

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(1, min(m.width-4, 80))))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, headerStyle.Render(fmt.Sprintf("Comments (%d)", len(m.comments))), "")

	if len(m.comments) == 0 {
		sections = append(sections, metaStyle.Italic(true).Render("No comments yet. Press c to start the discussion."))
	}

	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	for _, c := range m.comments {
		header := fmt.Sprintf(
			"%s  %s",
			authorStyle.Render(c.Author),
			metaStyle.Render(c.CreatedAt.Local().Format("2006-01-02 15:04")),
		)
		if m.fresh[c.ID] {
			header += " " + theme.UnreadBadgeStyle.Render("new")
		}
		sections = append(sections,
			header,
			lipgloss.NewStyle().Width(m.textWidth()).Render(c.Content),
			"",
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) textWidth() int {
	return max(20, m.width-4)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.input.Width = width - 4
	if m.cr != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
