package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newStatusDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "pgx"), mock
}

func TestCaptureStatusCounts(t *testing.T) {
	db, mock := newStatusDB(t)
	mock.ExpectQuery(q(`(SELECT COUNT(*) FROM users) AS users`)).
		WillReturnRows(sqlmock.NewRows([]string{"users", "assets", "photos", "documents", "theft_reports"}).
			AddRow(2, 7, 3, 1, 0))

	status := CaptureStatus(context.Background(), db, t.TempDir(), nil)
	assert.True(t, status.DatabaseOK)
	assert.True(t, status.CountsOK)
	assert.Equal(t, Counts{Users: 2, Assets: 7, Photos: 3, Documents: 1}, status.Counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaptureStatusReportsFailedCounts(t *testing.T) {
	db, mock := newStatusDB(t)
	mock.ExpectQuery(q(`(SELECT COUNT(*) FROM users) AS users`)).
		WillReturnError(errors.New("relation \"theft_reports\" does not exist"))
	core, logs := observer.New(zap.WarnLevel)

	status := CaptureStatus(context.Background(), db, t.TempDir(), zap.New(core))
	assert.False(t, status.CountsOK)
	assert.Equal(t, Counts{}, status.Counts)
	require.Equal(t, 1, logs.FilterMessage("status counts query failed").Len())
	require.NoError(t, mock.ExpectationsWereMet())
}
