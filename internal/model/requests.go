package model

// NewChangeRequest is the payload for creating a change request.
type NewChangeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
}

// NewComment is the payload for posting a comment.
type NewComment struct {
	Author  string `json:"author,omitempty"`
	Content string `json:"content"`
}

// NewTodo is the payload for creating a todo.
type NewTodo struct {
	Title      string  `json:"title"`
	TargetDate *string `json:"target_date,omitempty"`
}

// TodoUpdate carries a partial todo update. Nil fields are left as-is.
type TodoUpdate struct {
	Title  *string `json:"title,omitempty"`
	Status *string `json:"status,omitempty"`

	// TargetDate set to "" clears the date.
	TargetDate *string `json:"target_date,omitempty"`

	// BlockedReason also stamps blocked_at when set.
	BlockedReason *string `json:"blocked_reason,omitempty"`
}

// IsEmpty reports whether the update touches no field.
func (u TodoUpdate) IsEmpty() bool {
	return u.Title == nil && u.Status == nil && u.TargetDate == nil && u.BlockedReason == nil
}

// MessageResponse is returned by endpoints that have nothing else to say.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
