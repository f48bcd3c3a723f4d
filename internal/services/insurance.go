package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"keep-backend-go/internal/models"
	"keep-backend-go/internal/policy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const insuranceColumns = `id, asset_id, owner_id, is_insured, provider, policy_number, coverage_amount,
premium_amount, renewal_date, created_at, updated_at`

type InsuranceInput struct {
	IsInsured      bool             `json:"isInsured"`
	Provider       *string          `json:"provider" validate:"omitempty,max=200"`
	PolicyNumber   *string          `json:"policyNumber" validate:"omitempty,max=100"`
	CoverageAmount *decimal.Decimal `json:"coverageAmount"`
	PremiumAmount  *decimal.Decimal `json:"premiumAmount"`
	RenewalDate    *string          `json:"renewalDate" validate:"omitempty,datetime=2006-01-02"`
}

func insuranceRecord(i models.AssetInsurance) policy.Record {
	return policy.Record{ID: i.ID, OwnerID: i.OwnerID, AssetID: i.AssetID}
}

// GetInsurance returns the principal's insurance row for an asset, or nil when
// none was recorded.
func (s *Inventory) GetInsurance(ctx context.Context, p policy.Principal, assetID string) (*models.AssetInsurance, error) {
	if err := s.requireAssetOwner(ctx, p, assetID); err != nil {
		return nil, err
	}
	var insurance models.AssetInsurance
	err := s.DB.GetContext(ctx, &insurance, `
SELECT `+insuranceColumns+` FROM asset_insurance WHERE asset_id = $1 AND owner_id = $2
`, assetID, p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, policy.OpRead, policy.EntityInsurance, insuranceRecord(insurance), p); err != nil {
		return nil, err
	}
	return &insurance, nil
}

// PutInsurance creates or replaces the insurance details of an asset.
func (s *Inventory) PutInsurance(ctx context.Context, p policy.Principal, assetID string, input InsuranceInput) (models.AssetInsurance, error) {
	if !validID(assetID) {
		return models.AssetInsurance{}, ErrAccessDenied
	}
	if err := s.authorize(ctx, policy.OpCreate, policy.EntityInsurance, policy.Record{OwnerID: p.ID, AssetID: assetID}, p); err != nil {
		return models.AssetInsurance{}, err
	}
	if err := Validate(input); err != nil {
		return models.AssetInsurance{}, err
	}
	fields := map[string]string{}
	coverage := optionalAmount(input.CoverageAmount, "coverageAmount", fields)
	premium := optionalAmount(input.PremiumAmount, "premiumAmount", fields)
	if len(fields) > 0 {
		return models.AssetInsurance{}, ErrValidation(fields)
	}
	var renewal *time.Time
	if input.RenewalDate != nil && *input.RenewalDate != "" {
		date, _ := time.Parse("2006-01-02", *input.RenewalDate)
		renewal = &date
	}

	var insurance models.AssetInsurance
	err := s.DB.GetContext(ctx, &insurance, `
INSERT INTO asset_insurance (
  id, asset_id, owner_id, is_insured, provider, policy_number, coverage_amount, premium_amount,
  renewal_date, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
ON CONFLICT (asset_id, owner_id) DO UPDATE SET
  is_insured = EXCLUDED.is_insured,
  provider = EXCLUDED.provider,
  policy_number = EXCLUDED.policy_number,
  coverage_amount = EXCLUDED.coverage_amount,
  premium_amount = EXCLUDED.premium_amount,
  renewal_date = EXCLUDED.renewal_date,
  updated_at = EXCLUDED.updated_at
RETURNING `+insuranceColumns,
		uuid.NewString(), assetID, p.ID, input.IsInsured, trimPtr(input.Provider), trimPtr(input.PolicyNumber),
		coverage, premium, renewal, s.now())
	if err != nil {
		return models.AssetInsurance{}, Classify(err)
	}
	s.invalidateStats(ctx, p.ID)
	return insurance, nil
}

func (s *Inventory) DeleteInsurance(ctx context.Context, p policy.Principal, assetID string) error {
	insurance, err := s.GetInsurance(ctx, p, assetID)
	if err != nil {
		return err
	}
	if insurance == nil {
		return ErrAccessDenied
	}
	if err := s.authorize(ctx, policy.OpDelete, policy.EntityInsurance, insuranceRecord(*insurance), p); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM asset_insurance WHERE id = $1`, insurance.ID); err != nil {
		return Classify(err)
	}
	s.invalidateStats(ctx, p.ID)
	return nil
}

func optionalAmount(value *decimal.Decimal, field string, fields map[string]string) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	if value.IsNegative() {
		fields[field] = "must not be negative"
	}
	return decimal.NullDecimal{Decimal: value.Round(2), Valid: true}
}
