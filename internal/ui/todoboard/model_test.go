package todoboard

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
)

func press(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func board() Model {
	m := New(keys.DefaultKeyMap(), 120, 30)
	m.SetTodos([]model.Todo{
		{ID: "1", Title: "Write docs", Status: model.TodoStatusTodo},
		{ID: "2", Title: "Review PR", Status: model.TodoStatusTodo},
		{ID: "3", Title: "Deploy", Status: model.TodoStatusBlocked, BlockedReason: "Waiting on API access"},
	})
	return m
}

func TestSetTodosGroupsByColumn(t *testing.T) {
	m := board()
	assert.Len(t, m.columns[0], 2)
	assert.Empty(t, m.columns[1])
	assert.Len(t, m.columns[2], 1)

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "1", sel.ID)
}

func TestCursorFollowsCardAcrossReload(t *testing.T) {
	m := board()
	m, _ = m.Update(press("j"))
	sel, _ := m.Selected()
	require.Equal(t, "2", sel.ID)

	m.SetTodos([]model.Todo{
		{ID: "1", Title: "Write docs", Status: model.TodoStatusTodo},
		{ID: "2", Title: "Review PR", Status: model.TodoStatusInProgress},
	})
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", sel.ID)
	assert.Equal(t, model.TodoStatusInProgress, m.Column())
}

func TestMoveCard(t *testing.T) {
	m := board()

	_, cmd := m.Update(press("l"))
	require.NotNil(t, cmd)
	assert.Equal(t, MoveMsg{TodoID: "1", Status: model.TodoStatusInProgress}, cmd())

	// Already in the first column.
	_, cmd = m.Update(press("h"))
	assert.Nil(t, cmd)
}

func TestColumnNavigationWraps(t *testing.T) {
	m := board()
	m, _ = m.Update(press("shift+tab"))
	assert.Equal(t, model.TodoStatusDone, m.Column())
	_, ok := m.Selected()
	assert.False(t, ok)

	m, _ = m.Update(press("tab"))
	assert.Equal(t, model.TodoStatusTodo, m.Column())
}

func TestBlockAndDeleteSelected(t *testing.T) {
	m := board()
	m, _ = m.Update(press("tab"))
	m, _ = m.Update(press("tab"))
	require.Equal(t, model.TodoStatusBlocked, m.Column())

	_, cmd := m.Update(press("b"))
	require.NotNil(t, cmd)
	assert.Equal(t, "3", cmd().(BlockMsg).Todo.ID)

	_, cmd = m.Update(press("x"))
	require.NotNil(t, cmd)
	assert.Equal(t, DeleteMsg{TodoID: "3"}, cmd())

	_, cmd = m.Update(press("a"))
	require.NotNil(t, cmd)
	assert.Equal(t, AddMsg{}, cmd())
}

func TestViewShowsReasonAndOverdue(t *testing.T) {
	m := board()
	m.now = func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) }
	due := "2024-06-30"
	m.SetTodos([]model.Todo{
		{ID: "1", Title: "Write docs", Status: model.TodoStatusTodo},
		{ID: "2", Title: "Review PR", Status: model.TodoStatusTodo},
		{ID: "4", Title: "Taxes", Status: model.TodoStatusTodo, TargetDate: &due},
		{ID: "3", Title: "Deploy", Status: model.TodoStatusBlocked, BlockedReason: "Waiting on API access"},
	})

	out := m.View()
	assert.Contains(t, out, "To Do (3)")
	assert.Contains(t, out, "OVERDUE")
	assert.Contains(t, out, "Waiting on API access")
}
