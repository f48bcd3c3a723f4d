package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectLoadAsset(mock sqlmock.Sqlmock, status string) {
	mock.ExpectQuery(q(`FROM assets WHERE id = $1`)).
		WithArgs(assetID).
		WillReturnRows(assetRows().AddRow(assetID, "Road bike", "Vehicles", status, "good", ownerID, []byte(`{}`), "tok", "850.00"))
}

func TestGetAssetOwnerOnly(t *testing.T) {
	inv, mock := newTestInventory(t)
	ctx := context.Background()

	expectLoadAsset(mock, "available")
	asset, err := inv.GetAsset(ctx, owner, assetID)
	require.NoError(t, err)
	assert.Equal(t, "Road bike", asset.Name)
	assert.True(t, asset.Value.Valid)
	assert.True(t, asset.Value.Decimal.Equal(decimal.RequireFromString("850")))

	expectLoadAsset(mock, "available")
	_, err = inv.GetAsset(ctx, other, assetID)
	se := requireStatus(t, err, 403)
	assert.Equal(t, "Access denied", se.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingAssetLooksLikeDenied(t *testing.T) {
	inv, mock := newTestInventory(t)

	mock.ExpectQuery(q(`FROM assets WHERE id = $1`)).
		WithArgs(assetID).
		WillReturnRows(assetRows())
	_, err := inv.GetAsset(context.Background(), owner, assetID)
	requireStatus(t, err, 403)

	_, err = inv.GetAsset(context.Background(), owner, "not-a-uuid")
	requireStatus(t, err, 403)
	require.NoError(t, mock.ExpectationsWereMet())
}

var fullAssetCols = []string{"id", "name", "category", "category_id", "description", "serial_number", "vin",
	"purchase_date", "value", "status", "location", "condition", "owner_id", "metadata", "qr_code"}

func expectFullAsset(mock sqlmock.Sqlmock, status string) {
	mock.ExpectQuery(q(`FROM assets WHERE id = $1`)).
		WithArgs(assetID).
		WillReturnRows(sqlmock.NewRows(fullAssetCols).AddRow(assetID, "Road bike", "Vehicles", nil, "carbon frame",
			"SN-42", nil, nil, "1500.00", status, "Garage", "excellent", ownerID, []byte(`{"color":"red"}`), "tok"))
}

func TestUpdateAssetByNonOwnerDenied(t *testing.T) {
	inv, mock := newTestInventory(t)
	ctx := context.Background()
	retired := "retired"

	expectFullAsset(mock, "available")
	_, err := inv.UpdateAsset(ctx, other, assetID, AssetPatch{Status: &retired})
	requireStatus(t, err, 403)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusOnlyUpdateKeepsOtherFields(t *testing.T) {
	inv, mock := newTestInventory(t)
	retired := "retired"

	expectFullAsset(mock, "available")
	mock.ExpectQuery(q(`UPDATE assets SET`)).
		WithArgs("Road bike", "Vehicles", nil, "carbon frame", "SN-42", nil, nil, sqlmock.AnyArg(),
			"retired", "Garage", "excellent", `{"color":"red"}`, inv.Now(), assetID, ownerID).
		WillReturnRows(sqlmock.NewRows(fullAssetCols).AddRow(assetID, "Road bike", "Vehicles", nil, "carbon frame",
			"SN-42", nil, nil, "1500.00", "retired", "Garage", "excellent", ownerID, []byte(`{"color":"red"}`), "tok"))

	asset, err := inv.UpdateAsset(context.Background(), owner, assetID, AssetPatch{Status: &retired})
	require.NoError(t, err)
	assert.Equal(t, "retired", asset.Status)
	assert.Equal(t, "excellent", asset.Condition)
	assert.True(t, asset.Value.Decimal.Equal(decimal.RequireFromString("1500")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssetOverlaysSentFields(t *testing.T) {
	inv, mock := newTestInventory(t)
	name := "  Gravel bike "
	empty := ""

	expectFullAsset(mock, "available")
	mock.ExpectQuery(q(`UPDATE assets SET`)).
		WithArgs("Gravel bike", "Vehicles", nil, "carbon frame", "SN-42", nil, nil, sqlmock.AnyArg(),
			"available", nil, "excellent", `{"color":"red"}`, inv.Now(), assetID, ownerID).
		WillReturnRows(assetRows().AddRow(assetID, "Gravel bike", "Vehicles", "available", "excellent", ownerID, []byte(`{"color":"red"}`), "tok", "1500.00"))

	asset, err := inv.UpdateAsset(context.Background(), owner, assetID, AssetPatch{Name: &name, Location: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Gravel bike", asset.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssetRejectsBlankName(t *testing.T) {
	inv, mock := newTestInventory(t)
	blank := "   "

	expectFullAsset(mock, "available")
	_, err := inv.UpdateAsset(context.Background(), owner, assetID, AssetPatch{Name: &blank})
	se := requireStatus(t, err, 400)
	assert.Contains(t, se.Fields, "name")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssignedAssetKeepsStatus(t *testing.T) {
	inv, mock := newTestInventory(t)
	retired := "retired"
	note := "new saddle"

	expectLoadAsset(mock, "assigned")
	_, err := inv.UpdateAsset(context.Background(), owner, assetID, AssetPatch{Status: &retired})
	requireStatus(t, err, 409)

	expectLoadAsset(mock, "assigned")
	mock.ExpectQuery(q(`UPDATE assets SET`)).
		WillReturnRows(assetRows().AddRow(assetID, "Road bike", "Vehicles", "assigned", "good", ownerID, []byte(`{}`), "tok", "850.00"))
	asset, err := inv.UpdateAsset(context.Background(), owner, assetID, AssetPatch{Description: &note})
	require.NoError(t, err)
	assert.Equal(t, "assigned", asset.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssetValidation(t *testing.T) {
	inv, _ := newTestInventory(t)
	negative := decimal.NewFromInt(-5)

	_, err := inv.CreateAsset(context.Background(), owner, AssetInput{Name: " ", Value: &negative})
	se := requireStatus(t, err, 400)
	assert.Contains(t, se.Fields, "name")

	_, err = inv.CreateAsset(context.Background(), owner, AssetInput{Name: "Drill", Value: &negative})
	se = requireStatus(t, err, 400)
	assert.Equal(t, "must not be negative", se.Fields["value"])
}

func TestCreateAssetStampsOwner(t *testing.T) {
	inv, mock := newTestInventory(t)
	value := decimal.RequireFromString("199.999")

	mock.ExpectQuery(q(`INSERT INTO assets`)).
		WithArgs(sqlmock.AnyArg(), "Drill", nil, nil, nil, nil, nil, nil,
			sqlmock.AnyArg(), "available", nil, "good", ownerID, "{}", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(assetRows().AddRow(assetID, "Drill", nil, "available", "good", ownerID, []byte(`{}`), "tok", "200.00"))

	asset, err := inv.CreateAsset(context.Background(), owner, AssetInput{Name: "Drill", Value: &value})
	require.NoError(t, err)
	assert.Equal(t, ownerID, asset.OwnerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicAssetByToken(t *testing.T) {
	inv, mock := newTestInventory(t)

	mock.ExpectQuery(q(`WHERE a.qr_code = $1`)).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category"}).AddRow(assetID, "Road bike", "Vehicles"))
	view, err := inv.PublicAssetByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, PublicAsset{ID: assetID, Name: "Road bike", Category: strPtr("Vehicles")}, view)

	mock.ExpectQuery(q(`WHERE a.qr_code = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category"}))
	_, err = inv.PublicAssetByToken(context.Background(), "missing")
	requireStatus(t, err, 404)
	require.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(v string) *string {
	return &v
}
