package model

// NotificationTitle is the title of every new-comment desktop notification.
const NotificationTitle = "New comment"

// Notification is a desktop notification about a comment on a change request.
type Notification struct {
	// ChangeRequestID identifies the thread the comment belongs to.
	ChangeRequestID string `json:"change_request_id"`

	// CommentID identifies the comment that triggered the notification.
	CommentID string `json:"comment_id"`

	// Title is the notification headline.
	Title string `json:"title"`

	// Body is the notification text, formatted as "{author}: {content}".
	Body string `json:"body"`
}

// NewCommentNotification builds the notification for comment c.
func NewCommentNotification(c Comment) Notification {
	return Notification{
		ChangeRequestID: c.ChangeRequestID,
		CommentID:       c.ID,
		Title:           NotificationTitle,
		Body:            c.Author + ": " + c.Content,
	}
}
