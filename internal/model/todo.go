package model

import "time"

// Todo board columns, in the order cards move through them.
const (
	TodoStatusTodo       = "todo"
	TodoStatusInProgress = "in_progress"
	TodoStatusBlocked    = "blocked"
	TodoStatusDone       = "done"
)

// TodoColumns lists the kanban columns left to right.
var TodoColumns = []string{
	TodoStatusTodo,
	TodoStatusInProgress,
	TodoStatusBlocked,
	TodoStatusDone,
}

// TargetDateLayout is the wire and storage format of Todo.TargetDate.
const TargetDateLayout = "2006-01-02"

// Todo is a card on the personal kanban board.
type Todo struct {
	ID     string `json:"id" db:"id"`
	Title  string `json:"title" db:"title"`
	Status string `json:"status" db:"status"`

	// TargetDate is an optional due date formatted as YYYY-MM-DD.
	TargetDate *string `json:"target_date,omitempty" db:"target_date"`

	// BlockedReason explains why the card sits in the blocked column.
	// BlockedAt is stamped every time the reason is set or edited.
	BlockedReason string     `json:"blocked_reason,omitempty" db:"blocked_reason"`
	BlockedAt     *time.Time `json:"blocked_at,omitempty" db:"blocked_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsValidTodoStatus reports whether s names a board column.
func IsValidTodoStatus(s string) bool {
	for _, c := range TodoColumns {
		if c == s {
			return true
		}
	}
	return false
}

// ColumnIndex returns the position of the todo's column, or -1.
func (t Todo) ColumnIndex() int {
	for i, c := range TodoColumns {
		if c == t.Status {
			return i
		}
	}
	return -1
}

// IsOverdue reports whether the target date lies before today and the card
// is not done yet.
func (t Todo) IsOverdue(now time.Time) bool {
	if t.TargetDate == nil || t.Status == TodoStatusDone {
		return false
	}
	due, err := time.ParseInLocation(TargetDateLayout, *t.TargetDate, now.Location())
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	return due.Before(time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}
