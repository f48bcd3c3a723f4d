package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestEnsureProfileIsIdempotent(t *testing.T) {
	inv, mock := newTestInventory(t)
	ctx := context.Background()

	mock.ExpectExec(q(`INSERT INTO profiles`)).
		WithArgs(ownerID, "owner@example.com", nil, "user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO profiles`)).
		WithArgs(ownerID, "owner@example.com", nil, "user").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, inv.EnsureProfile(ctx, owner, "owner@example.com", nil))
	require.NoError(t, inv.EnsureProfile(ctx, owner, "owner@example.com", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureProfileRaceIsSuccess(t *testing.T) {
	inv, mock := newTestInventory(t)

	mock.ExpectExec(q(`INSERT INTO profiles`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	require.NoError(t, inv.EnsureProfile(context.Background(), owner, "owner@example.com", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileOfSomeoneElseDenied(t *testing.T) {
	inv, mock := newTestInventory(t)
	ctx := context.Background()

	_, err := inv.GetProfile(ctx, other, ownerID)
	requireStatus(t, err, 403)
	_, err = inv.UpdateProfile(ctx, other, ownerID, ProfileInput{})
	requireStatus(t, err, 403)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOwnProfile(t *testing.T) {
	inv, mock := newTestInventory(t)

	mock.ExpectQuery(q(`FROM profiles WHERE id = $1`)).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "role"}).
			AddRow(ownerID, "owner@example.com", "Ada Owner", "user"))

	profile, err := inv.GetProfile(context.Background(), owner, ownerID)
	require.NoError(t, err)
	require.NotNil(t, profile.FullName)
	require.Equal(t, "Ada Owner", *profile.FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}
