package services

import (
	"context"
	"time"

	"keep-backend-go/internal/policy"
	"keep-backend-go/internal/storage"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Inventory runs every Keep operation. Each method takes the acting principal
// and goes through Policy before returning or changing data.
type Inventory struct {
	DB        *sqlx.DB
	Policy    *policy.Evaluator
	Cache     StatsCache
	Store     storage.ObjectStore
	Photos    storage.BucketPolicy
	Documents storage.BucketPolicy
	Hub       *TheftHub
	Log       *zap.Logger
	Now       func() time.Time
}

type InventoryOptions struct {
	Cache     StatsCache
	Store     storage.ObjectStore
	Photos    storage.BucketPolicy
	Documents storage.BucketPolicy
	Hub       *TheftHub
}

func NewInventory(db *sqlx.DB, logger *zap.Logger, opts InventoryOptions) (*Inventory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	evaluator, err := policy.NewEvaluator(AssetOwnerLookup{DB: db}, logger)
	if err != nil {
		return nil, err
	}
	stats := opts.Cache
	if stats == nil {
		stats = NoopStatsCache{}
	}
	return &Inventory{
		DB:        db,
		Policy:    evaluator,
		Cache:     stats,
		Store:     opts.Store,
		Photos:    opts.Photos,
		Documents: opts.Documents,
		Hub:       opts.Hub,
		Log:       logger,
		Now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Inventory) authorize(ctx context.Context, op policy.Operation, entity policy.Entity, rec policy.Record, p policy.Principal) error {
	if err := s.Policy.Authorize(ctx, op, entity, rec, p); err != nil {
		return ErrAccessDenied
	}
	return nil
}

// requireAssetOwner resolves the owner of assetID and checks that p may read
// the asset. Used before listing or writing dependents of an asset.
func (s *Inventory) requireAssetOwner(ctx context.Context, p policy.Principal, assetID string) error {
	if !validID(assetID) {
		return ErrAccessDenied
	}
	owner, err := s.Policy.AssetOwner(ctx, assetID)
	if err != nil {
		return ErrAccessDenied
	}
	return s.authorize(ctx, policy.OpRead, policy.EntityAsset, policy.Record{ID: assetID, OwnerID: owner}, p)
}

func (s *Inventory) invalidateStats(ctx context.Context, ownerID string) {
	if err := s.Cache.Invalidate(ctx, ownerID); err != nil {
		s.Log.Warn("stats cache invalidate failed", zap.String("owner", ownerID), zap.Error(err))
	}
}

// readable keeps the rows of items that pass the read rule for p.
func readable[T any](ctx context.Context, s *Inventory, p policy.Principal, entity policy.Entity, items []T, record func(T) policy.Record) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if s.Policy.Decide(ctx, policy.OpRead, entity, record(item), p) == policy.Allow {
			out = append(out, item)
		}
	}
	return out
}
