package services

import (
	"context"
	"io"
	"strings"

	"keep-backend-go/internal/db"
	"keep-backend-go/internal/models"
	"keep-backend-go/internal/policy"
	"keep-backend-go/internal/storage"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	photoColumns    = `id, asset_id, owner_id, description, storage_key, photo_url, content_type, file_size, is_primary, created_at`
	documentColumns = `id, asset_id, owner_id, name, description, document_type, storage_key, file_url, content_type, file_size, created_at`
)

// Upload is one incoming file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type PhotoInput struct {
	Description *string `validate:"omitempty,max=500"`
}

type DocumentInput struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	DocumentType string  `json:"documentType" validate:"omitempty,oneof=receipt warranty manual insurance registration other"`
}

func PhotoURL(photoID string) string {
	return "/api/public/photos/" + photoID
}

func DocumentURL(documentID string) string {
	return "/api/documents/" + documentID + "/content"
}

func photoRecord(ph models.AssetPhoto) policy.Record {
	return policy.Record{ID: ph.ID, OwnerID: ph.OwnerID, AssetID: ph.AssetID}
}

func documentRecord(d models.AssetDocument) policy.Record {
	return policy.Record{ID: d.ID, OwnerID: d.OwnerID, AssetID: d.AssetID}
}

// storeUpload validates and writes an upload under the principal's prefix.
func (s *Inventory) storeUpload(ctx context.Context, bp storage.BucketPolicy, p policy.Principal, assetID string, up Upload) (storage.Object, error) {
	if s.Store == nil {
		return storage.Object{}, ErrBadRequest("Uploads are not configured")
	}
	contentType, err := bp.Accept(up.ContentType, up.Size)
	if err != nil {
		return storage.Object{}, Classify(err)
	}
	key := bp.NewKey(p.ID, assetID, contentType)
	if err := storage.CheckPrefix(key, p.ID); err != nil {
		return storage.Object{}, Classify(err)
	}
	obj, err := s.Store.Put(ctx, bp.Bucket, key, contentType, up.Body, bp.MaxBytes)
	if err != nil {
		return storage.Object{}, Classify(err)
	}
	return obj, nil
}

func (s *Inventory) ListPhotos(ctx context.Context, p policy.Principal, assetID string) ([]models.AssetPhoto, error) {
	if err := s.requireAssetOwner(ctx, p, assetID); err != nil {
		return nil, err
	}
	items := []models.AssetPhoto{}
	if err := s.DB.SelectContext(ctx, &items, `
SELECT `+photoColumns+`
FROM asset_photos
WHERE asset_id = $1
ORDER BY is_primary DESC, created_at
`, assetID); err != nil {
		return nil, err
	}
	return readable(ctx, s, p, policy.EntityPhoto, items, photoRecord), nil
}

// UploadPhoto stores the image first and records it afterwards. The first
// photo of an asset becomes its primary photo.
func (s *Inventory) UploadPhoto(ctx context.Context, p policy.Principal, assetID string, input PhotoInput, up Upload) (models.AssetPhoto, error) {
	if !validID(assetID) {
		return models.AssetPhoto{}, ErrAccessDenied
	}
	if err := s.authorize(ctx, policy.OpCreate, policy.EntityPhoto, policy.Record{OwnerID: p.ID, AssetID: assetID}, p); err != nil {
		return models.AssetPhoto{}, err
	}
	if err := Validate(input); err != nil {
		return models.AssetPhoto{}, err
	}
	obj, err := s.storeUpload(ctx, s.Photos, p, assetID, up)
	if err != nil {
		return models.AssetPhoto{}, err
	}
	photoID := uuid.NewString()
	var photo models.AssetPhoto
	err = s.DB.GetContext(ctx, &photo, `
INSERT INTO asset_photos (id, asset_id, owner_id, description, storage_key, photo_url, content_type, file_size, is_primary, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
  NOT EXISTS (SELECT 1 FROM asset_photos WHERE asset_id = $2 AND is_primary), $9)
RETURNING `+photoColumns,
		photoID, assetID, p.ID, trimPtr(input.Description), obj.Key, PhotoURL(photoID), obj.ContentType, obj.Size, s.now())
	if err != nil {
		s.removeObject(ctx, storage.BucketPhotos, obj.Key)
		return models.AssetPhoto{}, Classify(err)
	}
	return photo, nil
}

func (s *Inventory) loadPhoto(ctx context.Context, id string) (models.AssetPhoto, error) {
	var photo models.AssetPhoto
	if !validID(id) {
		return photo, ErrAccessDenied
	}
	err := s.DB.GetContext(ctx, &photo, `SELECT `+photoColumns+` FROM asset_photos WHERE id = $1`, id)
	return photo, Classify(err)
}

func (s *Inventory) SetPrimaryPhoto(ctx context.Context, p policy.Principal, id string) (models.AssetPhoto, error) {
	photo, err := s.loadPhoto(ctx, id)
	if err != nil {
		return models.AssetPhoto{}, err
	}
	if err := s.authorize(ctx, policy.OpUpdate, policy.EntityPhoto, photoRecord(photo), p); err != nil {
		return models.AssetPhoto{}, err
	}
	err = db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE asset_photos SET is_primary = FALSE WHERE asset_id = $1 AND is_primary`, photo.AssetID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE asset_photos SET is_primary = TRUE WHERE id = $1`, photo.ID)
		return err
	})
	if err != nil {
		return models.AssetPhoto{}, Classify(err)
	}
	photo.IsPrimary = true
	return photo, nil
}

func (s *Inventory) DeletePhoto(ctx context.Context, p policy.Principal, id string) error {
	photo, err := s.loadPhoto(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, policy.OpDelete, policy.EntityPhoto, photoRecord(photo), p); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM asset_photos WHERE id = $1`, photo.ID); err != nil {
		return Classify(err)
	}
	s.removeObject(ctx, storage.BucketPhotos, photo.StorageKey)
	return nil
}

// OpenPublicPhoto serves a photo from the public bucket without a principal.
func (s *Inventory) OpenPublicPhoto(ctx context.Context, id string) (io.ReadCloser, models.AssetPhoto, error) {
	photo, err := s.loadPhoto(ctx, id)
	if err != nil {
		return nil, models.AssetPhoto{}, ErrNotFound("Photo not found")
	}
	if s.Store == nil {
		return nil, models.AssetPhoto{}, ErrNotFound("Photo not found")
	}
	body, err := s.Store.Open(ctx, storage.BucketPhotos, photo.StorageKey)
	if err != nil {
		s.Log.Warn("photo object missing", zap.String("photo", photo.ID), zap.Error(err))
		return nil, models.AssetPhoto{}, ErrNotFound("Photo not found")
	}
	return body, photo, nil
}

func (s *Inventory) ListDocuments(ctx context.Context, p policy.Principal, assetID string) ([]models.AssetDocument, error) {
	if err := s.requireAssetOwner(ctx, p, assetID); err != nil {
		return nil, err
	}
	items := []models.AssetDocument{}
	if err := s.DB.SelectContext(ctx, &items, `
SELECT `+documentColumns+`
FROM asset_documents
WHERE asset_id = $1
ORDER BY created_at DESC
`, assetID); err != nil {
		return nil, err
	}
	return readable(ctx, s, p, policy.EntityDocument, items, documentRecord), nil
}

// UploadDocument stores the file first and records it afterwards. When the
// insert fails the stored object is removed.
func (s *Inventory) UploadDocument(ctx context.Context, p policy.Principal, assetID string, input DocumentInput, up Upload) (models.AssetDocument, error) {
	if !validID(assetID) {
		return models.AssetDocument{}, ErrAccessDenied
	}
	if err := s.authorize(ctx, policy.OpCreate, policy.EntityDocument, policy.Record{OwnerID: p.ID, AssetID: assetID}, p); err != nil {
		return models.AssetDocument{}, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		input.Name = strings.TrimSpace(up.Filename)
	}
	if err := Validate(input); err != nil {
		return models.AssetDocument{}, err
	}
	if input.DocumentType == "" {
		input.DocumentType = "other"
	}
	obj, err := s.storeUpload(ctx, s.Documents, p, assetID, up)
	if err != nil {
		return models.AssetDocument{}, err
	}
	documentID := uuid.NewString()
	var document models.AssetDocument
	err = s.DB.GetContext(ctx, &document, `
INSERT INTO asset_documents (id, asset_id, owner_id, name, description, document_type, storage_key, file_url, content_type, file_size, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+documentColumns,
		documentID, assetID, p.ID, input.Name, trimPtr(input.Description), input.DocumentType, obj.Key,
		DocumentURL(documentID), obj.ContentType, obj.Size, s.now())
	if err != nil {
		s.removeObject(ctx, storage.BucketDocuments, obj.Key)
		return models.AssetDocument{}, Classify(err)
	}
	return document, nil
}

func (s *Inventory) loadDocument(ctx context.Context, id string) (models.AssetDocument, error) {
	var document models.AssetDocument
	if !validID(id) {
		return document, ErrAccessDenied
	}
	err := s.DB.GetContext(ctx, &document, `SELECT `+documentColumns+` FROM asset_documents WHERE id = $1`, id)
	return document, Classify(err)
}

// OpenDocument returns the content of a private document to its owner.
func (s *Inventory) OpenDocument(ctx context.Context, p policy.Principal, id string) (io.ReadCloser, models.AssetDocument, error) {
	document, err := s.loadDocument(ctx, id)
	if err != nil {
		return nil, models.AssetDocument{}, err
	}
	if err := s.authorize(ctx, policy.OpRead, policy.EntityDocument, documentRecord(document), p); err != nil {
		return nil, models.AssetDocument{}, err
	}
	if s.Store == nil {
		return nil, models.AssetDocument{}, ErrAccessDenied
	}
	body, err := s.Store.Open(ctx, storage.BucketDocuments, document.StorageKey)
	if err != nil {
		return nil, models.AssetDocument{}, Classify(err)
	}
	return body, document, nil
}

func (s *Inventory) DeleteDocument(ctx context.Context, p policy.Principal, id string) error {
	document, err := s.loadDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, policy.OpDelete, policy.EntityDocument, documentRecord(document), p); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM asset_documents WHERE id = $1`, document.ID); err != nil {
		return Classify(err)
	}
	s.removeObject(ctx, storage.BucketDocuments, document.StorageKey)
	return nil
}
