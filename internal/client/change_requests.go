package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/taskboard/internal/model"
)

func changeRequestPath(id string) string {
	return "/api/change-requests/" + url.PathEscape(id)
}

// ListChangeRequests returns every change request, newest first.
func (c *Client) ListChangeRequests(ctx context.Context) ([]model.ChangeRequest, error) {
	var crs []model.ChangeRequest
	if err := c.get(ctx, "/api/change-requests", &crs); err != nil {
		return nil, fmt.Errorf("listing change requests: %w", err)
	}
	return crs, nil
}

// GetChangeRequest fetches one change request.
func (c *Client) GetChangeRequest(ctx context.Context, id string) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	if err := c.get(ctx, changeRequestPath(id), &cr); err != nil {
		return nil, fmt.Errorf("getting change request %s: %w", id, err)
	}
	return &cr, nil
}

// CreateChangeRequest submits a new change request.
func (c *Client) CreateChangeRequest(ctx context.Context, in model.NewChangeRequest) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	if err := c.post(ctx, "/api/change-requests", in, &cr); err != nil {
		return nil, fmt.Errorf("creating change request: %w", err)
	}
	return &cr, nil
}

// UpdateChangeRequest applies a partial update.
func (c *Client) UpdateChangeRequest(
	ctx context.Context,
	id string,
	upd model.ChangeRequestUpdate,
) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	if err := c.put(ctx, changeRequestPath(id), upd, &cr); err != nil {
		return nil, fmt.Errorf("updating change request %s: %w", id, err)
	}
	return &cr, nil
}

// DeleteChangeRequest removes a change request and its comments.
func (c *Client) DeleteChangeRequest(ctx context.Context, id string) error {
	if err := c.delete(ctx, changeRequestPath(id)); err != nil {
		return fmt.Errorf("deleting change request %s: %w", id, err)
	}
	return nil
}

// ListComments fetches the thread of a change request, oldest first.
func (c *Client) ListComments(ctx context.Context, changeRequestID string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.get(ctx, changeRequestPath(changeRequestID)+"/comments", &comments); err != nil {
		return nil, fmt.Errorf("fetching comments for %s: %w", changeRequestID, err)
	}
	return comments, nil
}

// PostComment appends a comment to a change request's thread.
func (c *Client) PostComment(
	ctx context.Context,
	changeRequestID string,
	in model.NewComment,
) (*model.Comment, error) {
	var comment model.Comment
	if err := c.post(ctx, changeRequestPath(changeRequestID)+"/comments", in, &comment); err != nil {
		return nil, fmt.Errorf("posting comment on %s: %w", changeRequestID, err)
	}
	return &comment, nil
}
