package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var insuranceCols = []string{"id", "asset_id", "owner_id", "is_insured", "provider", "coverage_amount"}

func TestPutInsuranceOnForeignAssetDenied(t *testing.T) {
	inv, mock := newTestInventory(t)

	expectOwnerLookup(mock, assetID, ownerID)
	_, err := inv.PutInsurance(context.Background(), other, assetID, InsuranceInput{IsInsured: true})
	requireStatus(t, err, 403)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutInsuranceRejectsNegativeAmounts(t *testing.T) {
	inv, mock := newTestInventory(t)

	expectOwnerLookup(mock, assetID, ownerID)
	negative := decimal.NewFromInt(-5)
	_, err := inv.PutInsurance(context.Background(), owner, assetID, InsuranceInput{IsInsured: true, PremiumAmount: &negative})
	se := requireStatus(t, err, 400)
	assert.Contains(t, se.Fields, "premiumAmount")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutInsuranceUpserts(t *testing.T) {
	inv, mock := newTestInventory(t)

	expectOwnerLookup(mock, assetID, ownerID)
	mock.ExpectQuery(q(`ON CONFLICT (asset_id, owner_id) DO UPDATE`)).
		WithArgs(sqlmock.AnyArg(), assetID, ownerID, true, "Acme Mutual", nil,
			sqlmock.AnyArg(), sqlmock.AnyArg(), nil, inv.Now()).
		WillReturnRows(sqlmock.NewRows(insuranceCols).
			AddRow("ins-1", assetID, ownerID, true, "Acme Mutual", "1200.00"))

	provider := "  Acme Mutual "
	coverage := decimal.RequireFromString("1200")
	insurance, err := inv.PutInsurance(context.Background(), owner, assetID, InsuranceInput{
		IsInsured:      true,
		Provider:       &provider,
		CoverageAmount: &coverage,
	})
	require.NoError(t, err)
	assert.True(t, insurance.CoverageAmount.Valid)
	assert.True(t, coverage.Equal(insurance.CoverageAmount.Decimal))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInsuranceWhenNoneRecorded(t *testing.T) {
	inv, mock := newTestInventory(t)

	expectOwnerLookup(mock, assetID, ownerID)
	mock.ExpectQuery(q(`FROM asset_insurance WHERE asset_id = $1 AND owner_id = $2`)).
		WithArgs(assetID, ownerID).
		WillReturnRows(sqlmock.NewRows(insuranceCols))

	insurance, err := inv.GetInsurance(context.Background(), owner, assetID)
	require.NoError(t, err)
	assert.Nil(t, insurance)
	require.NoError(t, mock.ExpectationsWereMet())
}
