package services

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// AssetOwnerLookup resolves asset owners for the policy layer.
type AssetOwnerLookup struct {
	DB *sqlx.DB
}

func (l AssetOwnerLookup) AssetOwner(ctx context.Context, assetID string) (string, error) {
	var owner string
	err := l.DB.GetContext(ctx, &owner, `SELECT owner_id::text FROM assets WHERE id = $1`, assetID)
	return owner, err
}
