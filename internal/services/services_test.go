package services

import (
	"regexp"
	"testing"
	"time"

	"keep-backend-go/internal/policy"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID   = "11111111-1111-1111-1111-111111111111"
	otherID   = "22222222-2222-2222-2222-222222222222"
	assetID   = "aaaaaaaa-0000-4000-8000-000000000001"
	fixedDate = "2026-03-01T10:00:00Z"
)

var (
	owner = policy.Principal{ID: ownerID, Role: "user"}
	other = policy.Principal{ID: otherID, Role: "user"}
)

func newTestInventory(t *testing.T) (*Inventory, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	inv, err := NewInventory(sqlx.NewDb(mockDB, "pgx"), nil, InventoryOptions{})
	require.NoError(t, err)
	now, _ := time.Parse(time.RFC3339, fixedDate)
	inv.Now = func() time.Time { return now }
	return inv, mock
}

func q(query string) string {
	return regexp.QuoteMeta(query)
}

func expectOwnerLookup(mock sqlmock.Sqlmock, asset, owner string) {
	mock.ExpectQuery(q(`SELECT owner_id::text FROM assets WHERE id = $1`)).
		WithArgs(asset).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(owner))
}

func requireStatus(t *testing.T, err error, status int) ServiceError {
	t.Helper()
	var se ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, status, se.Status)
	return se
}

func assetRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "category", "status", "condition", "owner_id", "metadata", "qr_code", "value"})
}
