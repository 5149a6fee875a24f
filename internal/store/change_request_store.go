package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

const changeRequestColumns = `id, title, description, status, priority, created_at, updated_at`

// ListChangeRequests returns every change request, newest first.
func (s *SQLStore) ListChangeRequests(ctx context.Context) ([]model.ChangeRequest, error) {
	crs := []model.ChangeRequest{}
	err := s.db.SelectContext(ctx, &crs,
		"SELECT "+changeRequestColumns+" FROM change_requests ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("querying change requests: %w", err)
	}
	return crs, nil
}

// GetChangeRequest retrieves a single change request by ID.
func (s *SQLStore) GetChangeRequest(ctx context.Context, id string) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	err := s.db.GetContext(ctx, &cr,
		s.q("SELECT "+changeRequestColumns+" FROM change_requests WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("change request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting change request %s: %w", id, err)
	}
	return &cr, nil
}

// CreateChangeRequest inserts a new change request. Status defaults to
// open and priority to medium.
func (s *SQLStore) CreateChangeRequest(ctx context.Context, cr model.ChangeRequest) (*model.ChangeRequest, error) {
	cr.Title = strings.TrimSpace(cr.Title)
	cr.Description = strings.TrimSpace(cr.Description)
	if cr.Title == "" || cr.Description == "" {
		return nil, fmt.Errorf("title and description are required: %w", ErrInvalid)
	}
	if cr.Status == "" {
		cr.Status = model.CRStatusOpen
	}
	if cr.Priority == "" {
		cr.Priority = model.CRPriorityMedium
	}
	if err := validateChangeRequest(cr.Status, cr.Priority); err != nil {
		return nil, err
	}
	if cr.ID == "" {
		cr.ID = uuid.New().String()
	}

	now := s.timestamp()
	cr.CreatedAt = now
	cr.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO change_requests (`+changeRequestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		cr.ID, cr.Title, cr.Description, cr.Status, cr.Priority, cr.CreatedAt, cr.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating change request: %w", err)
	}
	return &cr, nil
}

// UpdateChangeRequest applies a partial update and returns the stored row.
func (s *SQLStore) UpdateChangeRequest(
	ctx context.Context,
	id string,
	upd model.ChangeRequestUpdate,
) (*model.ChangeRequest, error) {
	if upd.IsEmpty() {
		return nil, fmt.Errorf("no fields to update: %w", ErrInvalid)
	}

	var sets []string
	var args []interface{}

	if upd.Title != nil {
		t := strings.TrimSpace(*upd.Title)
		if t == "" {
			return nil, fmt.Errorf("title must not be empty: %w", ErrInvalid)
		}
		sets = append(sets, "title = ?")
		args = append(args, t)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Status != nil {
		if !model.IsValidCRStatus(*upd.Status) {
			return nil, fmt.Errorf("status %q: %w", *upd.Status, ErrInvalid)
		}
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.Priority != nil {
		if !model.IsValidCRPriority(*upd.Priority) {
			return nil, fmt.Errorf("priority %q: %w", *upd.Priority, ErrInvalid)
		}
		sets = append(sets, "priority = ?")
		args = append(args, *upd.Priority)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id)

	result, err := s.db.ExecContext(ctx,
		s.q("UPDATE change_requests SET "+strings.Join(sets, ", ")+" WHERE id = ?"),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating change request %s: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, fmt.Errorf("change request %s: %w", id, ErrNotFound)
	}
	return s.GetChangeRequest(ctx, id)
}

// DeleteChangeRequest removes a change request. Its comments cascade.
func (s *SQLStore) DeleteChangeRequest(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM change_requests WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting change request %s: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("change request %s: %w", id, ErrNotFound)
	}
	return nil
}

func validateChangeRequest(status, priority string) error {
	if !model.IsValidCRStatus(status) {
		return fmt.Errorf("status %q: %w", status, ErrInvalid)
	}
	if !model.IsValidCRPriority(priority) {
		return fmt.Errorf("priority %q: %w", priority, ErrInvalid)
	}
	return nil
}
