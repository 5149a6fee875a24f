package crlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// Item wraps a change request with its unread count for a bubbles/list.
type Item struct {
	ChangeRequest model.ChangeRequest
	Unread        int
	Expanded      bool
}

// FilterValue returns the string used for filtering.
func (i Item) FilterValue() string { return i.ChangeRequest.Title }

// Title returns the change request title.
func (i Item) Title() string { return i.ChangeRequest.Title }

// Description returns a short summary line.
func (i Item) Description() string {
	parts := []string{
		i.ChangeRequest.Status,
		i.ChangeRequest.Priority,
		relativeTime(i.ChangeRequest.CreatedAt, time.Now()),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for change request rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single change request row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(it, index == m.Index(), time.Now()))
}

func renderRow(it Item, selected bool, now time.Time) string {
	cr := it.ChangeRequest

	prefix := "▸"
	if it.Expanded {
		prefix = "▾"
	}

	statusBadge := theme.StatusStyle(cr.Status).Render(statusLabel(cr.Status))
	priBadge := theme.PriorityStyle(cr.Priority).Render(priorityLabel(cr.Priority))

	unread := ""
	if it.Unread > 0 {
		unread = " " + theme.UnreadBadgeStyle.Render(fmt.Sprintf("%d new", it.Unread))
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(cr.CreatedAt, now))

	line := fmt.Sprintf("%s %s %s %s%s  %s", prefix, statusBadge, priBadge, cr.Title, unread, timeStr)

	if isClosed(cr.Status) {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func isClosed(status string) bool {
	return status == model.CRStatusCompleted || status == model.CRStatusRejected
}

// statusLabel turns "in_discussion" into "in discussion".
func statusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p string) string {
	switch p {
	case model.CRPriorityHigh:
		return "HI"
	case model.CRPriorityMedium:
		return "MED"
	case model.CRPriorityLow:
		return "LOW"
	default:
		return "?"
	}
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
