package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/model"
)

// todosLoadedMsg carries the todo board contents.
type todosLoadedMsg struct {
	todos []model.Todo
	err   error
}

// todoChangedMsg is sent after a todo is created, updated or deleted.
type todoChangedMsg struct {
	action string
	err    error
}

func (m Model) loadTodos() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		todos, err := api.ListTodos(ctx, "")
		return todosLoadedMsg{todos: todos, err: err}
	}
}

func (m Model) createTodo(in model.NewTodo) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := api.CreateTodo(ctx, in)
		return todoChangedMsg{action: "creating todo", err: err}
	}
}

func (m Model) moveTodo(id, status string) tea.Cmd {
	return m.updateTodo(id, model.TodoUpdate{Status: &status}, "moving todo")
}

func (m Model) setBlockedReason(id, reason string) tea.Cmd {
	return m.updateTodo(id, model.TodoUpdate{BlockedReason: &reason}, "saving blocked reason")
}

func (m Model) updateTodo(id string, upd model.TodoUpdate, action string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := api.UpdateTodo(ctx, id, upd)
		return todoChangedMsg{action: action, err: err}
	}
}

func (m Model) deleteTodo(id string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return todoChangedMsg{action: "deleting todo", err: api.DeleteTodo(ctx, id)}
	}
}
