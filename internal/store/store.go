package store

import (
	"context"
	"errors"

	"github.com/nhle/taskboard/internal/model"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalid is returned when an entity fails validation before it is
// written. The wrapping message names the offending field.
var ErrInvalid = errors.New("invalid input")

// TodoFilter controls filtering for todo queries.
type TodoFilter struct {
	Status *string // a board column, or nil (all)
	Limit  int
	Offset int
}

// Store defines the persistence interface for todos, change requests and
// their comment threads.
type Store interface {
	// === Change requests ===

	ListChangeRequests(ctx context.Context) ([]model.ChangeRequest, error)
	GetChangeRequest(ctx context.Context, id string) (*model.ChangeRequest, error)
	CreateChangeRequest(ctx context.Context, cr model.ChangeRequest) (*model.ChangeRequest, error)
	UpdateChangeRequest(ctx context.Context, id string, upd model.ChangeRequestUpdate) (*model.ChangeRequest, error)
	DeleteChangeRequest(ctx context.Context, id string) error

	// === Comments ===

	ListComments(ctx context.Context, changeRequestID string) ([]model.Comment, error)
	CreateComment(ctx context.Context, c model.Comment) (*model.Comment, error)

	// === Todos ===

	ListTodos(ctx context.Context, filter TodoFilter) ([]model.Todo, error)
	GetTodo(ctx context.Context, id string) (*model.Todo, error)
	CreateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error)
	UpdateTodo(ctx context.Context, id string, upd model.TodoUpdate) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error

	Close() error
}
