package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"keep-backend-go/internal/models"
	"keep-backend-go/internal/policy"
	"keep-backend-go/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const assetColumns = `id, name, category, category_id, description, serial_number, vin, purchase_date,
value, status, location, condition, owner_id, metadata, qr_code, created_at, updated_at`

type AssetInput struct {
	Name         string           `json:"name" validate:"required,max=200"`
	Category     *string          `json:"category" validate:"omitempty,max=100"`
	CategoryID   *string          `json:"categoryId" validate:"omitempty,uuid"`
	Description  *string          `json:"description" validate:"omitempty,max=5000"`
	SerialNumber *string          `json:"serialNumber" validate:"omitempty,max=200"`
	VIN          *string          `json:"vin" validate:"omitempty,max=64"`
	PurchaseDate *string          `json:"purchaseDate" validate:"omitempty,datetime=2006-01-02"`
	Value        *decimal.Decimal `json:"value"`
	Status       string           `json:"status" validate:"omitempty,oneof=available maintenance retired"`
	Location     *string          `json:"location" validate:"omitempty,max=200"`
	Condition    string           `json:"condition" validate:"omitempty,oneof=excellent good fair poor"`
	Metadata     json.RawMessage  `json:"metadata"`
}

type assetValues struct {
	name         string
	category     *string
	categoryID   *string
	description  *string
	serialNumber *string
	vin          *string
	purchaseDate *time.Time
	value        decimal.NullDecimal
	status       string
	location     *string
	condition    string
	metadata     string
}

func (s *Inventory) normalizeAsset(ctx context.Context, p policy.Principal, input AssetInput) (assetValues, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := Validate(input); err != nil {
		return assetValues{}, err
	}
	values := assetValues{
		name:         input.Name,
		category:     trimPtr(input.Category),
		categoryID:   trimPtr(input.CategoryID),
		description:  trimPtr(input.Description),
		serialNumber: trimPtr(input.SerialNumber),
		vin:          trimPtr(input.VIN),
		status:       input.Status,
		location:     trimPtr(input.Location),
		condition:    input.Condition,
		metadata:     "{}",
	}
	fields := map[string]string{}
	if input.PurchaseDate != nil && *input.PurchaseDate != "" {
		date, _ := time.Parse("2006-01-02", *input.PurchaseDate)
		values.purchaseDate = &date
	}
	if input.Value != nil {
		if input.Value.IsNegative() {
			fields["value"] = "must not be negative"
		}
		values.value = decimal.NullDecimal{Decimal: input.Value.Round(2), Valid: true}
	}
	if len(input.Metadata) > 0 && string(input.Metadata) != "null" {
		if metadata, ok := metadataObject(input.Metadata); ok {
			values.metadata = metadata
		} else {
			fields["metadata"] = "must be a JSON object"
		}
	}
	if len(fields) > 0 {
		return assetValues{}, ErrValidation(fields)
	}
	if values.categoryID != nil {
		category, err := s.readableCategory(ctx, p, *values.categoryID)
		if err != nil {
			return assetValues{}, err
		}
		if values.category == nil {
			values.category = &category.Name
		}
	}
	if values.condition == "" {
		values.condition = "good"
	}
	return values, nil
}

// readableCategory loads a category the principal may attach to an asset.
// Unknown and foreign categories are reported the same way.
func (s *Inventory) readableCategory(ctx context.Context, p policy.Principal, id string) (models.Category, error) {
	unknown := ErrValidation(map[string]string{"categoryId": "unknown category"})
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return models.Category{}, unknown
	}
	if s.Policy.Decide(ctx, policy.OpRead, policy.EntityCategory, categoryRecord(category), p) != policy.Allow {
		return models.Category{}, unknown
	}
	return category, nil
}

func metadataObject(raw json.RawMessage) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return "", false
	}
	return string(raw), true
}

func (s *Inventory) CreateAsset(ctx context.Context, p policy.Principal, input AssetInput) (models.Asset, error) {
	if err := s.authorize(ctx, policy.OpCreate, policy.EntityAsset, policy.Record{OwnerID: p.ID}, p); err != nil {
		return models.Asset{}, err
	}
	values, err := s.normalizeAsset(ctx, p, input)
	if err != nil {
		return models.Asset{}, err
	}
	if values.status == "" {
		values.status = models.AssetAvailable
	}
	now := s.now()
	var asset models.Asset
	err = s.DB.GetContext(ctx, &asset, `
INSERT INTO assets (
  id, name, category, category_id, description, serial_number, vin, purchase_date,
  value, status, location, condition, owner_id, metadata, qr_code, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16)
RETURNING `+assetColumns,
		uuid.NewString(), values.name, values.category, values.categoryID, values.description,
		values.serialNumber, values.vin, values.purchaseDate, values.value, values.status,
		values.location, values.condition, p.ID, values.metadata, NewQRToken(), now)
	if err != nil {
		return models.Asset{}, Classify(err)
	}
	s.invalidateStats(ctx, p.ID)
	return asset, nil
}

// NewQRToken returns the opaque token printed in an asset's QR code.
func NewQRToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Inventory) loadAsset(ctx context.Context, id string) (models.Asset, error) {
	var asset models.Asset
	if !validID(id) {
		return asset, ErrAccessDenied
	}
	err := s.DB.GetContext(ctx, &asset, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
	return asset, Classify(err)
}

func assetRecord(a models.Asset) policy.Record {
	return policy.Record{ID: a.ID, OwnerID: a.OwnerID}
}

func (s *Inventory) GetAsset(ctx context.Context, p policy.Principal, id string) (models.Asset, error) {
	asset, err := s.loadAsset(ctx, id)
	if err != nil {
		return models.Asset{}, err
	}
	if err := s.authorize(ctx, policy.OpRead, policy.EntityAsset, assetRecord(asset), p); err != nil {
		return models.Asset{}, err
	}
	return asset, nil
}

type AssetFilter struct {
	Status     string
	CategoryID string
	Query      string
	Page       int
	PageSize   int
}

type AssetPage struct {
	Items    []models.Asset
	Total    int
	Page     int
	PageSize int
}

func (s *Inventory) ListAssets(ctx context.Context, p policy.Principal, filter AssetFilter) (AssetPage, error) {
	if !p.Authenticated() {
		return AssetPage{}, ErrAccessDenied
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	where := []string{"owner_id = $1"}
	args := []any{p.ID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CategoryID != "" {
		if !validID(filter.CategoryID) {
			return AssetPage{Items: []models.Asset{}, Page: filter.Page, PageSize: filter.PageSize}, nil
		}
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if term := CleanSearchTerm(filter.Query); term != "" {
		args = append(args, likePattern(term))
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR serial_number ILIKE $%d OR vin ILIKE $%d)", len(args), len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM assets WHERE `+clause, args...); err != nil {
		return AssetPage{}, err
	}
	items := []models.Asset{}
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		assetColumns, clause, filter.PageSize, (filter.Page-1)*filter.PageSize)
	if err := s.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return AssetPage{}, err
	}
	items = readable(ctx, s, p, policy.EntityAsset, items, assetRecord)
	return AssetPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// AssetPatch carries the fields of an asset update. Nil fields keep their
// stored value; an empty string clears an optional text field.
type AssetPatch struct {
	Name         *string          `json:"name" validate:"omitempty,max=200"`
	Category     *string          `json:"category" validate:"omitempty,max=100"`
	CategoryID   *string          `json:"categoryId" validate:"omitempty,uuid"`
	Description  *string          `json:"description" validate:"omitempty,max=5000"`
	SerialNumber *string          `json:"serialNumber" validate:"omitempty,max=200"`
	VIN          *string          `json:"vin" validate:"omitempty,max=64"`
	PurchaseDate *string          `json:"purchaseDate" validate:"omitempty,datetime=2006-01-02"`
	Value        *decimal.Decimal `json:"value"`
	Status       *string          `json:"status" validate:"omitempty,oneof=available maintenance retired"`
	Location     *string          `json:"location" validate:"omitempty,max=200"`
	Condition    *string          `json:"condition" validate:"omitempty,oneof=excellent good fair poor"`
	Metadata     json.RawMessage  `json:"metadata"`
}

func storedAssetValues(a models.Asset) assetValues {
	values := assetValues{
		name:         a.Name,
		category:     a.Category,
		categoryID:   a.CategoryID,
		description:  a.Description,
		serialNumber: a.SerialNumber,
		vin:          a.VIN,
		purchaseDate: a.PurchaseDate,
		value:        a.Value,
		status:       a.Status,
		location:     a.Location,
		condition:    a.Condition,
		metadata:     "{}",
	}
	if len(a.Metadata) > 0 {
		values.metadata = string(a.Metadata)
	}
	return values
}

// applyAssetPatch overlays the sent fields of patch on the stored row.
func (s *Inventory) applyAssetPatch(ctx context.Context, p policy.Principal, current models.Asset, patch AssetPatch) (assetValues, error) {
	if err := Validate(patch); err != nil {
		return assetValues{}, err
	}
	values := storedAssetValues(current)
	fields := map[string]string{}
	if patch.Name != nil {
		values.name = strings.TrimSpace(*patch.Name)
		if values.name == "" {
			fields["name"] = "is required"
		}
	}
	if patch.Description != nil {
		values.description = trimPtr(patch.Description)
	}
	if patch.SerialNumber != nil {
		values.serialNumber = trimPtr(patch.SerialNumber)
	}
	if patch.VIN != nil {
		values.vin = trimPtr(patch.VIN)
	}
	if patch.Location != nil {
		values.location = trimPtr(patch.Location)
	}
	if patch.PurchaseDate != nil {
		values.purchaseDate = nil
		if *patch.PurchaseDate != "" {
			date, _ := time.Parse("2006-01-02", *patch.PurchaseDate)
			values.purchaseDate = &date
		}
	}
	if patch.Value != nil {
		if patch.Value.IsNegative() {
			fields["value"] = "must not be negative"
		}
		values.value = decimal.NullDecimal{Decimal: patch.Value.Round(2), Valid: true}
	}
	if patch.Status != nil && *patch.Status != "" {
		values.status = *patch.Status
	}
	if patch.Condition != nil && *patch.Condition != "" {
		values.condition = *patch.Condition
	}
	if len(patch.Metadata) > 0 && string(patch.Metadata) != "null" {
		if metadata, ok := metadataObject(patch.Metadata); ok {
			values.metadata = metadata
		} else {
			fields["metadata"] = "must be a JSON object"
		}
	}
	if len(fields) > 0 {
		return assetValues{}, ErrValidation(fields)
	}
	if patch.Category != nil {
		values.category = trimPtr(patch.Category)
	}
	if patch.CategoryID != nil {
		values.categoryID = trimPtr(patch.CategoryID)
		if values.categoryID != nil {
			category, err := s.readableCategory(ctx, p, *values.categoryID)
			if err != nil {
				return assetValues{}, err
			}
			if patch.Category == nil {
				values.category = &category.Name
			}
		}
	}
	return values, nil
}

// UpdateAsset applies a partial update to an asset. The assigned status is
// owned by Assign and Return and cannot be set or cleared here.
func (s *Inventory) UpdateAsset(ctx context.Context, p policy.Principal, id string, patch AssetPatch) (models.Asset, error) {
	current, err := s.loadAsset(ctx, id)
	if err != nil {
		return models.Asset{}, err
	}
	if err := s.authorize(ctx, policy.OpUpdate, policy.EntityAsset, assetRecord(current), p); err != nil {
		return models.Asset{}, err
	}
	values, err := s.applyAssetPatch(ctx, p, current, patch)
	if err != nil {
		return models.Asset{}, err
	}
	if current.Status == models.AssetAssigned && values.status != models.AssetAssigned {
		return models.Asset{}, ErrConflict("Asset is assigned; return it first")
	}
	var asset models.Asset
	err = s.DB.GetContext(ctx, &asset, `
UPDATE assets SET
  name = $1, category = $2, category_id = $3, description = $4, serial_number = $5, vin = $6,
  purchase_date = $7, value = $8, status = $9, location = $10, condition = $11, metadata = $12,
  updated_at = $13
WHERE id = $14 AND owner_id = $15
RETURNING `+assetColumns,
		values.name, values.category, values.categoryID, values.description, values.serialNumber, values.vin,
		values.purchaseDate, values.value, values.status, values.location, values.condition, values.metadata,
		s.now(), id, p.ID)
	if err != nil {
		return models.Asset{}, Classify(err)
	}
	s.invalidateStats(ctx, p.ID)
	return asset, nil
}

// DeleteAsset removes the asset and its dependents, then the stored photo and
// document objects. Object removal is best effort.
func (s *Inventory) DeleteAsset(ctx context.Context, p policy.Principal, id string) error {
	asset, err := s.loadAsset(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, policy.OpDelete, policy.EntityAsset, assetRecord(asset), p); err != nil {
		return err
	}
	type object struct {
		Bucket string `db:"bucket"`
		Key    string `db:"storage_key"`
	}
	objects := []object{}
	if err := s.DB.SelectContext(ctx, &objects, `
SELECT 'photos' AS bucket, storage_key FROM asset_photos WHERE asset_id = $1
UNION ALL
SELECT 'documents' AS bucket, storage_key FROM asset_documents WHERE asset_id = $1
`, id); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM assets WHERE id = $1 AND owner_id = $2`, id, p.ID); err != nil {
		return Classify(err)
	}
	for _, obj := range objects {
		s.removeObject(ctx, storage.Bucket(obj.Bucket), obj.Key)
	}
	s.invalidateStats(ctx, p.ID)
	return nil
}

func (s *Inventory) removeObject(ctx context.Context, bucket storage.Bucket, key string) {
	if s.Store == nil {
		return
	}
	if err := s.Store.Delete(ctx, bucket, key); err != nil {
		s.Log.Warn("object delete failed", zap.String("bucket", string(bucket)), zap.String("key", key), zap.Error(err))
	}
}

type PublicAsset struct {
	ID       string  `db:"id"`
	Name     string  `db:"name"`
	Category *string `db:"category"`
}

// PublicAssetByToken is the finder view behind a QR code. It exposes only the
// id, name and category of the asset.
func (s *Inventory) PublicAssetByToken(ctx context.Context, token string) (PublicAsset, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return PublicAsset{}, ErrNotFound("Asset not found")
	}
	var asset PublicAsset
	err := s.DB.GetContext(ctx, &asset, `
SELECT a.id, a.name, COALESCE(c.name, a.category) AS category
FROM assets a
LEFT JOIN categories c ON c.id = a.category_id
WHERE a.qr_code = $1
`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return PublicAsset{}, ErrNotFound("Asset not found")
	}
	return asset, err
}

func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}
