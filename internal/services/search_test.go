package services

import (
	"context"
	"testing"

	"keep-backend-go/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchIsOwnerScoped(t *testing.T) {
	inv, mock := newTestInventory(t)

	mock.ExpectQuery(q(`WHERE owner_id = $1`)).
		WithArgs(ownerID, "road bike", "%road bike%", searchLimit).
		WillReturnRows(assetRows().
			AddRow(assetID, "Road bike", nil, "available", "good", ownerID, []byte(`{}`), "tok", nil).
			AddRow("aaaaaaaa-0000-4000-8000-000000000002", "Road bike", nil, "available", "good", otherID, []byte(`{}`), "tok2", nil))

	items, err := inv.Search(context.Background(), owner, "  road   bike ")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, assetID, items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEscapesLikeWildcards(t *testing.T) {
	inv, mock := newTestInventory(t)

	mock.ExpectQuery(q(`WHERE owner_id = $1`)).
		WithArgs(otherID, "100%_", `%100\%\_%`, searchLimit).
		WillReturnRows(assetRows())

	items, err := inv.Search(context.Background(), other, "100%_")
	require.NoError(t, err)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchBlankTermAndAnonymous(t *testing.T) {
	inv, mock := newTestInventory(t)

	items, err := inv.Search(context.Background(), owner, "   ")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = inv.Search(context.Background(), policy.Anonymous(), "bike")
	requireStatus(t, err, 403)
	require.NoError(t, mock.ExpectationsWereMet())
}
