package policy

import (
	"context"
	"errors"
	"fmt"
)

// ErrOwnerUnknown is returned when the owning principal cannot be determined.
var ErrOwnerUnknown = errors.New("owner could not be resolved")

// AssetOwners looks up the current owner of an asset.
type AssetOwners interface {
	AssetOwner(ctx context.Context, assetID string) (string, error)
}

type Resolver struct {
	assets AssetOwners
}

func NewResolver(assets AssetOwners) *Resolver {
	return &Resolver{assets: assets}
}

// Owner returns the controlling principal id of rec. Any failure is reported as
// ErrOwnerUnknown so callers deny.
func (r *Resolver) Owner(ctx context.Context, entity Entity, rec Record) (string, error) {
	switch entity {
	case EntityProfile:
		return nonEmpty(rec.ID)
	case EntityAsset, EntityCategory:
		return nonEmpty(rec.OwnerID)
	case EntityNote, EntityInsurance, EntityDocument, EntityPhoto:
		if rec.OwnerID != "" {
			return rec.OwnerID, nil
		}
		// rows written before owner_id was stamped
		return r.AssetOwner(ctx, rec.AssetID)
	case EntityAssignment, EntityTheftReport:
		return r.AssetOwner(ctx, rec.AssetID)
	default:
		return "", fmt.Errorf("%w: unknown entity %q", ErrOwnerUnknown, entity)
	}
}

// AssetOwner follows an asset reference to its owner.
func (r *Resolver) AssetOwner(ctx context.Context, assetID string) (string, error) {
	if assetID == "" || r.assets == nil {
		return "", ErrOwnerUnknown
	}
	owner, err := r.assets.AssetOwner(ctx, assetID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOwnerUnknown, err)
	}
	return nonEmpty(owner)
}

func nonEmpty(owner string) (string, error) {
	if owner == "" {
		return "", ErrOwnerUnknown
	}
	return owner, nil
}
