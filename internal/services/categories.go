package services

import (
	"context"
	"strings"

	"keep-backend-go/internal/models"
	"keep-backend-go/internal/policy"

	"github.com/google/uuid"
)

const categoryColumns = `id, name, description, owner_id, created_at, updated_at`

type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func categoryRecord(c models.Category) policy.Record {
	rec := policy.Record{ID: c.ID}
	if c.OwnerID != nil {
		rec.OwnerID = *c.OwnerID
	}
	return rec
}

func (s *Inventory) loadCategory(ctx context.Context, id string) (models.Category, error) {
	var category models.Category
	if !validID(id) {
		return category, ErrAccessDenied
	}
	err := s.DB.GetContext(ctx, &category, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return category, Classify(err)
}

// ListCategories returns the shared categories followed by the principal's own.
func (s *Inventory) ListCategories(ctx context.Context, p policy.Principal) ([]models.Category, error) {
	if !p.Authenticated() {
		return nil, ErrAccessDenied
	}
	items := []models.Category{}
	if err := s.DB.SelectContext(ctx, &items, `
SELECT `+categoryColumns+`
FROM categories
WHERE owner_id IS NULL OR owner_id = $1
ORDER BY owner_id NULLS FIRST, lower(name)
`, p.ID); err != nil {
		return nil, err
	}
	return readable(ctx, s, p, policy.EntityCategory, items, categoryRecord), nil
}

func (s *Inventory) CreateCategory(ctx context.Context, p policy.Principal, input CategoryInput) (models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.authorize(ctx, policy.OpCreate, policy.EntityCategory, policy.Record{OwnerID: p.ID}, p); err != nil {
		return models.Category{}, err
	}
	if err := Validate(input); err != nil {
		return models.Category{}, err
	}
	var category models.Category
	err := s.DB.GetContext(ctx, &category, `
INSERT INTO categories (id, name, description, owner_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING `+categoryColumns, uuid.NewString(), input.Name, trimPtr(input.Description), p.ID, s.now())
	if isUniqueViolation(err) {
		return models.Category{}, ErrConflict("Category name already exists")
	}
	return category, Classify(err)
}

func (s *Inventory) UpdateCategory(ctx context.Context, p policy.Principal, id string, input CategoryInput) (models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	current, err := s.loadCategory(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	if err := s.authorize(ctx, policy.OpUpdate, policy.EntityCategory, categoryRecord(current), p); err != nil {
		return models.Category{}, err
	}
	if err := Validate(input); err != nil {
		return models.Category{}, err
	}
	var category models.Category
	err = s.DB.GetContext(ctx, &category, `
UPDATE categories SET name = $1, description = $2, updated_at = $3
WHERE id = $4 AND owner_id = $5
RETURNING `+categoryColumns, input.Name, trimPtr(input.Description), s.now(), id, p.ID)
	if isUniqueViolation(err) {
		return models.Category{}, ErrConflict("Category name already exists")
	}
	return category, Classify(err)
}

// DeleteCategory removes a private category. Assets that used it keep their
// category label and lose the reference.
func (s *Inventory) DeleteCategory(ctx context.Context, p policy.Principal, id string) error {
	current, err := s.loadCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, policy.OpDelete, policy.EntityCategory, categoryRecord(current), p); err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND owner_id = $2`, id, p.ID)
	return Classify(err)
}
