package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	globalCategoryID = "6f1c1d9e-1f7a-4c55-9a3a-0d8f4c1a0001"
	ownCategoryID    = "cccccccc-0000-4000-8000-000000000001"
)

func categoryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "owner_id"})
}

func TestListCategoriesIncludesGlobal(t *testing.T) {
	inv, mock := newTestInventory(t)

	mock.ExpectQuery(q(`WHERE owner_id IS NULL OR owner_id = $1`)).
		WithArgs(otherID).
		WillReturnRows(categoryRows().
			AddRow(globalCategoryID, "Vehicles", nil, nil).
			AddRow(ownCategoryID, "Cameras", nil, otherID))

	items, err := inv.ListCategories(context.Background(), other)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Nil(t, items[0].OwnerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGlobalCategoryIsReadOnly(t *testing.T) {
	inv, mock := newTestInventory(t)

	mock.ExpectQuery(q(`FROM categories WHERE id = $1`)).
		WithArgs(globalCategoryID).
		WillReturnRows(categoryRows().AddRow(globalCategoryID, "Vehicles", nil, nil))
	_, err := inv.UpdateCategory(context.Background(), owner, globalCategoryID, CategoryInput{Name: "Cars"})
	requireStatus(t, err, 403)

	mock.ExpectQuery(q(`FROM categories WHERE id = $1`)).
		WithArgs(globalCategoryID).
		WillReturnRows(categoryRows().AddRow(globalCategoryID, "Vehicles", nil, nil))
	requireStatus(t, inv.DeleteCategory(context.Background(), owner, globalCategoryID), 403)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	inv, mock := newTestInventory(t)

	mock.ExpectQuery(q(`INSERT INTO categories`)).
		WithArgs(sqlmock.AnyArg(), "Cameras", nil, ownerID, inv.Now()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := inv.CreateCategory(context.Background(), owner, CategoryInput{Name: " Cameras "})
	se := requireStatus(t, err, 409)
	assert.Equal(t, "Category name already exists", se.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}
