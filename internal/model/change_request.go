package model

import "time"

// Change request status constants.
const (
	CRStatusOpen         = "open"
	CRStatusInProgress   = "in_progress"
	CRStatusInDiscussion = "in_discussion"
	CRStatusCompleted    = "completed"
	CRStatusRejected     = "rejected"
)

// Change request priority constants.
const (
	CRPriorityLow    = "low"
	CRPriorityMedium = "medium"
	CRPriorityHigh   = "high"
)

// DefaultCommentAuthor is used when a comment is posted without an author.
const DefaultCommentAuthor = "Anonymous"

// CRStatuses lists every status in display order.
var CRStatuses = []string{
	CRStatusOpen,
	CRStatusInProgress,
	CRStatusInDiscussion,
	CRStatusCompleted,
	CRStatusRejected,
}

// CRPriorities lists every priority from lowest to highest.
var CRPriorities = []string{
	CRPriorityLow,
	CRPriorityMedium,
	CRPriorityHigh,
}

// ChangeRequest is a tracked feature or change request with a comment thread.
type ChangeRequest struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	Priority    string    `json:"priority" db:"priority"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Comment is a single entry in a change request's thread.
// Comments are immutable once created.
type Comment struct {
	ID              string    `json:"id" db:"id"`
	ChangeRequestID string    `json:"change_request_id" db:"change_request_id"`
	Author          string    `json:"author" db:"author"`
	Content         string    `json:"content" db:"content"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ChangeRequestUpdate carries a partial update. Nil fields are left as-is.
type ChangeRequestUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

// IsEmpty reports whether the update touches no field.
func (u ChangeRequestUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Priority == nil
}

// IsValidCRStatus reports whether s is a known change request status.
func IsValidCRStatus(s string) bool {
	return contains(CRStatuses, s)
}

// IsValidCRPriority reports whether p is a known change request priority.
func IsValidCRPriority(p string) bool {
	return contains(CRPriorities, p)
}

// NextCRStatus returns the status following s in CRStatuses, wrapping around.
func NextCRStatus(s string) string {
	for i, st := range CRStatuses {
		if st == s {
			return CRStatuses[(i+1)%len(CRStatuses)]
		}
	}
	return CRStatusOpen
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
