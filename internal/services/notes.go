package services

import (
	"context"
	"strings"

	"keep-backend-go/internal/models"
	"keep-backend-go/internal/policy"

	"github.com/google/uuid"
)

const noteColumns = `id, asset_id, owner_id, content, category, created_at, updated_at`

type NoteInput struct {
	Content  string `json:"content" validate:"required,max=10000"`
	Category string `json:"category" validate:"omitempty,oneof=general maintenance repairs modifications insurance"`
}

func noteRecord(n models.AssetNote) policy.Record {
	return policy.Record{ID: n.ID, OwnerID: n.OwnerID, AssetID: n.AssetID}
}

func (s *Inventory) ListNotes(ctx context.Context, p policy.Principal, assetID string) ([]models.AssetNote, error) {
	if err := s.requireAssetOwner(ctx, p, assetID); err != nil {
		return nil, err
	}
	items := []models.AssetNote{}
	if err := s.DB.SelectContext(ctx, &items, `
SELECT `+noteColumns+`
FROM asset_notes
WHERE asset_id = $1
ORDER BY created_at DESC
`, assetID); err != nil {
		return nil, err
	}
	return readable(ctx, s, p, policy.EntityNote, items, noteRecord), nil
}

func (s *Inventory) CreateNote(ctx context.Context, p policy.Principal, assetID string, input NoteInput) (models.AssetNote, error) {
	if !validID(assetID) {
		return models.AssetNote{}, ErrAccessDenied
	}
	if err := s.authorize(ctx, policy.OpCreate, policy.EntityNote, policy.Record{OwnerID: p.ID, AssetID: assetID}, p); err != nil {
		return models.AssetNote{}, err
	}
	input.Content = strings.TrimSpace(input.Content)
	if err := Validate(input); err != nil {
		return models.AssetNote{}, err
	}
	if input.Category == "" {
		input.Category = "general"
	}
	var note models.AssetNote
	err := s.DB.GetContext(ctx, &note, `
INSERT INTO asset_notes (id, asset_id, owner_id, content, category, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING `+noteColumns, uuid.NewString(), assetID, p.ID, input.Content, input.Category, s.now())
	if err != nil {
		return models.AssetNote{}, Classify(err)
	}
	s.invalidateStats(ctx, p.ID)
	return note, nil
}

func (s *Inventory) loadNote(ctx context.Context, id string) (models.AssetNote, error) {
	var note models.AssetNote
	if !validID(id) {
		return note, ErrAccessDenied
	}
	err := s.DB.GetContext(ctx, &note, `SELECT `+noteColumns+` FROM asset_notes WHERE id = $1`, id)
	return note, Classify(err)
}

func (s *Inventory) UpdateNote(ctx context.Context, p policy.Principal, id string, input NoteInput) (models.AssetNote, error) {
	current, err := s.loadNote(ctx, id)
	if err != nil {
		return models.AssetNote{}, err
	}
	if err := s.authorize(ctx, policy.OpUpdate, policy.EntityNote, noteRecord(current), p); err != nil {
		return models.AssetNote{}, err
	}
	input.Content = strings.TrimSpace(input.Content)
	if err := Validate(input); err != nil {
		return models.AssetNote{}, err
	}
	if input.Category == "" {
		input.Category = current.Category
	}
	var note models.AssetNote
	err = s.DB.GetContext(ctx, &note, `
UPDATE asset_notes SET content = $1, category = $2, updated_at = $3
WHERE id = $4
RETURNING `+noteColumns, input.Content, input.Category, s.now(), id)
	return note, Classify(err)
}

func (s *Inventory) DeleteNote(ctx context.Context, p policy.Principal, id string) error {
	current, err := s.loadNote(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, policy.OpDelete, policy.EntityNote, noteRecord(current), p); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM asset_notes WHERE id = $1`, id); err != nil {
		return Classify(err)
	}
	s.invalidateStats(ctx, p.ID)
	return nil
}
