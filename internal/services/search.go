package services

import (
	"context"

	"keep-backend-go/internal/models"
	"keep-backend-go/internal/policy"
)

const searchLimit = 50

// Search matches the principal's assets on name, description, serial number
// and VIN using full-text search with a substring fallback.
func (s *Inventory) Search(ctx context.Context, p policy.Principal, q string) ([]models.Asset, error) {
	if !p.Authenticated() {
		return nil, ErrAccessDenied
	}
	term := CleanSearchTerm(q)
	items := []models.Asset{}
	if term == "" {
		return items, nil
	}
	if err := s.DB.SelectContext(ctx, &items, `
SELECT `+assetColumns+`
FROM assets
WHERE owner_id = $1
  AND (
    to_tsvector('simple', coalesce(name, '') || ' ' || coalesce(description, '') || ' ' || coalesce(serial_number, '') || ' ' || coalesce(vin, ''))
      @@ plainto_tsquery('simple', $2)
    OR name ILIKE $3 OR description ILIKE $3 OR serial_number ILIKE $3 OR vin ILIKE $3
  )
ORDER BY name
LIMIT $4
`, p.ID, term, likePattern(term), searchLimit); err != nil {
		return nil, err
	}
	return readable(ctx, s, p, policy.EntityAsset, items, assetRecord), nil
}
