package services

import (
	"context"
	"fmt"
	"strings"

	"keep-backend-go/internal/models"
	"keep-backend-go/internal/policy"

	"github.com/google/uuid"
)

const theftColumns = `t.id, t.asset_id, t.reporter_name, t.reporter_email, t.reporter_phone, t.location,
t.description, t.status, t.created_at, t.updated_at`

type TheftReportInput struct {
	AssetID       string  `json:"assetId" validate:"required,uuid"`
	ReporterName  *string `json:"reporterName" validate:"omitempty,max=200"`
	ReporterEmail *string `json:"reporterEmail" validate:"omitempty,email,max=255"`
	ReporterPhone *string `json:"reporterPhone" validate:"omitempty,max=50"`
	Location      *string `json:"location" validate:"omitempty,max=500"`
	Description   string  `json:"description" validate:"required,max=5000"`
}

type TheftStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending resolved dismissed"`
}

func theftRecord(r models.TheftReport) policy.Record {
	return policy.Record{ID: r.ID, AssetID: r.AssetID}
}

// ReportTheft records a sighting of an asset. Anyone may report, including
// anonymous finders; the owner is notified over the theft hub.
func (s *Inventory) ReportTheft(ctx context.Context, p policy.Principal, input TheftReportInput) (models.TheftReport, error) {
	input.AssetID = strings.TrimSpace(input.AssetID)
	input.Description = strings.TrimSpace(input.Description)
	if err := Validate(input); err != nil {
		return models.TheftReport{}, err
	}
	if err := s.authorize(ctx, policy.OpCreate, policy.EntityTheftReport, policy.Record{AssetID: input.AssetID}, p); err != nil {
		return models.TheftReport{}, err
	}
	owner, err := s.Policy.AssetOwner(ctx, input.AssetID)
	if err != nil {
		return models.TheftReport{}, ErrValidation(map[string]string{"assetId": "unknown asset"})
	}
	var report models.TheftReport
	now := s.now()
	err = s.DB.GetContext(ctx, &report, `
INSERT INTO theft_reports AS t (id, asset_id, reporter_name, reporter_email, reporter_phone, location, description, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
RETURNING `+theftColumns,
		uuid.NewString(), input.AssetID, trimPtr(input.ReporterName), trimPtr(input.ReporterEmail),
		trimPtr(input.ReporterPhone), trimPtr(input.Location), input.Description, models.TheftPending, now)
	if err != nil {
		return models.TheftReport{}, Classify(err)
	}
	if s.Hub != nil {
		s.Hub.Publish(TheftEvent{OwnerID: owner, Report: report})
	}
	return report, nil
}

// ListTheftReports returns reports on the principal's assets, newest first.
// An empty assetID lists across all assets.
func (s *Inventory) ListTheftReports(ctx context.Context, p policy.Principal, assetID, status string) ([]models.TheftReport, error) {
	if !p.Authenticated() {
		return nil, ErrAccessDenied
	}
	args := []any{p.ID}
	where := "a.owner_id = $1"
	if assetID != "" {
		if !validID(assetID) {
			return nil, ErrAccessDenied
		}
		if err := s.authorize(ctx, policy.OpRead, policy.EntityTheftReport, policy.Record{AssetID: assetID}, p); err != nil {
			return nil, err
		}
		args = append(args, assetID)
		where += fmt.Sprintf(" AND t.asset_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND t.status = $%d", len(args))
	}
	items := []models.TheftReport{}
	if err := s.DB.SelectContext(ctx, &items, `
SELECT `+theftColumns+`
FROM theft_reports t
JOIN assets a ON a.id = t.asset_id
WHERE `+where+`
ORDER BY t.created_at DESC
`, args...); err != nil {
		return nil, err
	}
	return readable(ctx, s, p, policy.EntityTheftReport, items, theftRecord), nil
}

func (s *Inventory) UpdateTheftReport(ctx context.Context, p policy.Principal, id string, input TheftStatusInput) (models.TheftReport, error) {
	if !validID(id) {
		return models.TheftReport{}, ErrAccessDenied
	}
	var current models.TheftReport
	if err := s.DB.GetContext(ctx, &current, `SELECT `+theftColumns+` FROM theft_reports t WHERE t.id = $1`, id); err != nil {
		return models.TheftReport{}, Classify(err)
	}
	if err := s.authorize(ctx, policy.OpUpdate, policy.EntityTheftReport, theftRecord(current), p); err != nil {
		return models.TheftReport{}, err
	}
	if err := Validate(input); err != nil {
		return models.TheftReport{}, err
	}
	var report models.TheftReport
	err := s.DB.GetContext(ctx, &report, `
UPDATE theft_reports AS t SET status = $1, updated_at = $2
WHERE t.id = $3
RETURNING `+theftColumns, input.Status, s.now(), id)
	return report, Classify(err)
}
