package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"keep-backend-go/internal/db"
	"keep-backend-go/internal/models"
	"keep-backend-go/internal/policy"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const assignmentColumns = `id, asset_id, assigned_to, assigned_by, assigned_date, due_date, return_date,
return_condition, notes, created_at`

type AssignInput struct {
	AssignedTo string     `json:"assignedTo" validate:"required,uuid"`
	DueDate    *time.Time `json:"dueDate"`
	Notes      *string    `json:"notes" validate:"omitempty,max=2000"`
}

type ReturnInput struct {
	Condition *string `json:"condition" validate:"omitempty,oneof=excellent good fair poor"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type AssignmentUpdateInput struct {
	DueDate *time.Time `json:"dueDate"`
	Notes   *string    `json:"notes" validate:"omitempty,max=2000"`
}

func assignmentRecord(a models.AssetAssignment) policy.Record {
	return policy.Record{ID: a.ID, AssetID: a.AssetID}
}

// Assign opens an assignment on an available asset and marks it assigned. A
// second open assignment is rejected by the check below and, under a race, by
// the partial unique index on open assignments.
func (s *Inventory) Assign(ctx context.Context, p policy.Principal, assetID string, input AssignInput) (models.AssetAssignment, error) {
	if !validID(assetID) {
		return models.AssetAssignment{}, ErrAccessDenied
	}
	if err := s.authorize(ctx, policy.OpCreate, policy.EntityAssignment, policy.Record{AssetID: assetID}, p); err != nil {
		return models.AssetAssignment{}, err
	}
	if err := Validate(input); err != nil {
		return models.AssetAssignment{}, err
	}
	now := s.now()
	if input.DueDate != nil && input.DueDate.Before(now) {
		return models.AssetAssignment{}, ErrValidation(map[string]string{"dueDate": "must be in the future"})
	}

	var assignment models.AssetAssignment
	err := db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var status string
		if err := tx.GetContext(ctx, &status, `SELECT status FROM assets WHERE id = $1 FOR UPDATE`, assetID); err != nil {
			return err
		}
		var open bool
		if err := tx.GetContext(ctx, &open, `SELECT EXISTS(SELECT 1 FROM asset_assignments WHERE asset_id = $1 AND return_date IS NULL)`, assetID); err != nil {
			return err
		}
		if open {
			return ErrConflict("Asset already has an open assignment")
		}
		if status != models.AssetAvailable {
			return ErrConflict("Asset is not available")
		}
		if err := tx.GetContext(ctx, &assignment, `
INSERT INTO asset_assignments (id, asset_id, assigned_to, assigned_by, assigned_date, due_date, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $5)
RETURNING `+assignmentColumns,
			uuid.NewString(), assetID, input.AssignedTo, p.ID, now, input.DueDate, trimPtr(input.Notes)); err != nil {
			if isUniqueViolation(err) {
				return ErrConflict("Asset already has an open assignment")
			}
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE assets SET status = $1, updated_at = $2 WHERE id = $3`, models.AssetAssigned, now, assetID)
		return err
	})
	if err != nil {
		return models.AssetAssignment{}, Classify(err)
	}
	s.invalidateStats(ctx, p.ID)
	return assignment, nil
}

// Return closes the open assignment of an asset and makes it available again,
// recording the condition it came back in.
func (s *Inventory) Return(ctx context.Context, p policy.Principal, assetID string, input ReturnInput) (models.AssetAssignment, error) {
	if !validID(assetID) {
		return models.AssetAssignment{}, ErrAccessDenied
	}
	if err := s.authorize(ctx, policy.OpUpdate, policy.EntityAssignment, policy.Record{AssetID: assetID}, p); err != nil {
		return models.AssetAssignment{}, err
	}
	if err := Validate(input); err != nil {
		return models.AssetAssignment{}, err
	}
	now := s.now()

	var assignment models.AssetAssignment
	err := db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var id string
		err := tx.GetContext(ctx, &id, `
SELECT id FROM asset_assignments
WHERE asset_id = $1 AND return_date IS NULL
FOR UPDATE
`, assetID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConflict("Asset has no open assignment")
		}
		if err != nil {
			return err
		}
		notes := trimPtr(input.Notes)
		if err := tx.GetContext(ctx, &assignment, `
UPDATE asset_assignments
SET return_date = $1, return_condition = $2, notes = COALESCE($3, notes)
WHERE id = $4
RETURNING `+assignmentColumns, now, input.Condition, notes, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
UPDATE assets SET status = $1, condition = COALESCE($2, condition), updated_at = $3
WHERE id = $4
`, models.AssetAvailable, input.Condition, now, assetID)
		return err
	})
	if err != nil {
		return models.AssetAssignment{}, Classify(err)
	}
	s.invalidateStats(ctx, p.ID)
	return assignment, nil
}

func (s *Inventory) ListAssignments(ctx context.Context, p policy.Principal, assetID string) ([]models.AssetAssignment, error) {
	if !validID(assetID) {
		return nil, ErrAccessDenied
	}
	if err := s.authorize(ctx, policy.OpRead, policy.EntityAssignment, policy.Record{AssetID: assetID}, p); err != nil {
		return nil, err
	}
	items := []models.AssetAssignment{}
	if err := s.DB.SelectContext(ctx, &items, `
SELECT `+assignmentColumns+`
FROM asset_assignments
WHERE asset_id = $1
ORDER BY assigned_date DESC
`, assetID); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Inventory) loadAssignment(ctx context.Context, id string) (models.AssetAssignment, error) {
	var assignment models.AssetAssignment
	if !validID(id) {
		return assignment, ErrAccessDenied
	}
	err := s.DB.GetContext(ctx, &assignment, `SELECT `+assignmentColumns+` FROM asset_assignments WHERE id = $1`, id)
	return assignment, Classify(err)
}

func (s *Inventory) UpdateAssignment(ctx context.Context, p policy.Principal, id string, input AssignmentUpdateInput) (models.AssetAssignment, error) {
	current, err := s.loadAssignment(ctx, id)
	if err != nil {
		return models.AssetAssignment{}, err
	}
	if err := s.authorize(ctx, policy.OpUpdate, policy.EntityAssignment, assignmentRecord(current), p); err != nil {
		return models.AssetAssignment{}, err
	}
	if err := Validate(input); err != nil {
		return models.AssetAssignment{}, err
	}
	var assignment models.AssetAssignment
	err = s.DB.GetContext(ctx, &assignment, `
UPDATE asset_assignments SET due_date = $1, notes = $2
WHERE id = $3
RETURNING `+assignmentColumns, input.DueDate, trimPtr(input.Notes), id)
	if err != nil {
		return models.AssetAssignment{}, Classify(err)
	}
	s.invalidateStats(ctx, p.ID)
	return assignment, nil
}
