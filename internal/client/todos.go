package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/taskboard/internal/model"
)

func todoPath(id string) string {
	return "/api/todos/" + url.PathEscape(id)
}

// ListTodos returns the todos, optionally limited to one board column.
func (c *Client) ListTodos(ctx context.Context, status string) ([]model.Todo, error) {
	path := "/api/todos"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var todos []model.Todo
	if err := c.get(ctx, path, &todos); err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todos, nil
}

// CreateTodo adds a card to the todo column.
func (c *Client) CreateTodo(ctx context.Context, in model.NewTodo) (*model.Todo, error) {
	var todo model.Todo
	if err := c.post(ctx, "/api/todos", in, &todo); err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}
	return &todo, nil
}

// UpdateTodo applies a partial update.
func (c *Client) UpdateTodo(ctx context.Context, id string, upd model.TodoUpdate) (*model.Todo, error) {
	var todo model.Todo
	if err := c.put(ctx, todoPath(id), upd, &todo); err != nil {
		return nil, fmt.Errorf("updating todo %s: %w", id, err)
	}
	return &todo, nil
}

// DeleteTodo removes a card.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	if err := c.delete(ctx, todoPath(id)); err != nil {
		return fmt.Errorf("deleting todo %s: %w", id, err)
	}
	return nil
}
