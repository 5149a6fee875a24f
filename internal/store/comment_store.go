package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// ListComments returns the thread of a change request in creation order.
// An unknown change request yields an empty thread.
func (s *SQLStore) ListComments(ctx context.Context, changeRequestID string) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := s.db.SelectContext(ctx, &comments, s.q(`
		SELECT id, change_request_id, author, content, created_at
		FROM change_request_comments
		WHERE change_request_id = ?
		ORDER BY created_at ASC, id ASC`),
		changeRequestID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying comments for %s: %w", changeRequestID, err)
	}
	return comments, nil
}

// CreateComment appends a comment to a change request's thread.
func (s *SQLStore) CreateComment(ctx context.Context, c model.Comment) (*model.Comment, error) {
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return nil, fmt.Errorf("comment content is required: %w", ErrInvalid)
	}
	c.Author = strings.TrimSpace(c.Author)
	if c.Author == "" {
		c.Author = model.DefaultCommentAuthor
	}

	if _, err := s.GetChangeRequest(ctx, c.ChangeRequestID); err != nil {
		return nil, err
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = s.timestamp()

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO change_request_comments (id, change_request_id, author, content, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.ChangeRequestID, c.Author, c.Content, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating comment on %s: %w", c.ChangeRequestID, err)
	}
	return &c, nil
}
