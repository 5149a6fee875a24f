package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

const todoColumns = `id, title, status, target_date, blocked_reason, blocked_at, created_at, updated_at`

// CreateTodo inserts a new todo. Generates a UUID if ID is empty.
func (s *SQLStore) CreateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error) {
	todo.Title = strings.TrimSpace(todo.Title)
	if todo.Title == "" {
		return nil, fmt.Errorf("todo title must not be empty: %w", ErrInvalid)
	}
	if todo.Status == "" {
		todo.Status = model.TodoStatusTodo
	}
	if !model.IsValidTodoStatus(todo.Status) {
		return nil, fmt.Errorf("todo status %q: %w", todo.Status, ErrInvalid)
	}
	if err := validateTargetDate(todo.TargetDate); err != nil {
		return nil, err
	}
	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}

	now := s.timestamp()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	if todo.BlockedReason != "" {
		todo.BlockedAt = &now
	} else {
		todo.BlockedAt = nil
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO todos (`+todoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		todo.ID, todo.Title, todo.Status, todo.TargetDate,
		todo.BlockedReason, todo.BlockedAt, todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}
	return &todo, nil
}

// UpdateTodo applies a partial update to the todo with the given ID.
func (s *SQLStore) UpdateTodo(ctx context.Context, id string, upd model.TodoUpdate) (*model.Todo, error) {
	if upd.IsEmpty() {
		return nil, fmt.Errorf("no fields to update: %w", ErrInvalid)
	}

	todo, err := s.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("todo title must not be empty: %w", ErrInvalid)
		}
		todo.Title = title
	}
	if upd.Status != nil {
		if !model.IsValidTodoStatus(*upd.Status) {
			return nil, fmt.Errorf("todo status %q: %w", *upd.Status, ErrInvalid)
		}
		todo.Status = *upd.Status
	}
	if upd.TargetDate != nil {
		if *upd.TargetDate == "" {
			todo.TargetDate = nil
		} else {
			if err := validateTargetDate(upd.TargetDate); err != nil {
				return nil, err
			}
			d := *upd.TargetDate
			todo.TargetDate = &d
		}
	}
	if upd.BlockedReason != nil {
		todo.BlockedReason = strings.TrimSpace(*upd.BlockedReason)
		if todo.BlockedReason == "" {
			todo.BlockedAt = nil
		} else {
			todo.BlockedAt = &now
		}
	}
	todo.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, s.q(`
		UPDATE todos SET
			title = ?, status = ?, target_date = ?,
			blocked_reason = ?, blocked_at = ?, updated_at = ?
		WHERE id = ?`),
		todo.Title, todo.Status, todo.TargetDate,
		todo.BlockedReason, todo.BlockedAt, todo.UpdatedAt,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating todo %s: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return todo, nil
}

// DeleteTodo removes a todo by ID.
func (s *SQLStore) DeleteTodo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM todos WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting todo %s: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetTodo retrieves a single todo by ID.
func (s *SQLStore) GetTodo(ctx context.Context, id string) (*model.Todo, error) {
	var todo model.Todo
	err := s.db.GetContext(ctx, &todo,
		s.q("SELECT "+todoColumns+" FROM todos WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting todo %s: %w", id, err)
	}
	return &todo, nil
}

// ListTodos retrieves todos matching the filter, oldest first.
func (s *SQLStore) ListTodos(ctx context.Context, filter TodoFilter) ([]model.Todo, error) {
	query, args := buildTodoQuery(filter)

	todos := []model.Todo{}
	if err := s.db.SelectContext(ctx, &todos, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	return todos, nil
}

// buildTodoQuery constructs the SQL query and args for a TodoFilter.
func buildTodoQuery(filter TodoFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}

	query := "SELECT " + todoColumns + " FROM todos"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	return query, args
}

func validateTargetDate(d *string) error {
	if d == nil {
		return nil
	}
	if _, err := time.Parse(model.TargetDateLayout, *d); err != nil {
		return fmt.Errorf("target date %q must be YYYY-MM-DD: %w", *d, ErrInvalid)
	}
	return nil
}
