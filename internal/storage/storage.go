// Package storage keeps asset photos and documents in an object store. Keys are
// scoped as {ownerId}/{assetId}/{uuid}{ext} so every object lives under the
// prefix of the principal that uploaded it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrTooLarge       = errors.New("object exceeds size limit")
	ErrMimeNotAllowed = errors.New("content type not allowed")
	ErrQuota          = errors.New("storage quota exceeded")
	ErrForeignPrefix  = errors.New("key outside principal prefix")
	ErrEmpty          = errors.New("object is empty")
	ErrNotFound       = errors.New("object not found")
)

type Bucket string

const (
	BucketPhotos    Bucket = "photos"
	BucketDocuments Bucket = "documents"
)

// Object describes a stored blob.
type Object struct {
	Bucket      Bucket
	Key         string
	ContentType string
	Size        int64
	Sha256      string
}

// ObjectStore is implemented by the local disk and GCS backends.
type ObjectStore interface {
	Put(ctx context.Context, bucket Bucket, key, contentType string, body io.Reader, maxBytes int64) (Object, error)
	Open(ctx context.Context, bucket Bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket Bucket, key string) error
}

// BucketPolicy holds the upload limits of one bucket.
type BucketPolicy struct {
	Bucket   Bucket
	Public   bool
	MaxBytes int64
	// Allowed maps a content type to the extension used in keys.
	Allowed map[string]string
}

func PhotoPolicy(maxBytes int64) BucketPolicy {
	return BucketPolicy{
		Bucket:   BucketPhotos,
		Public:   true,
		MaxBytes: maxBytes,
		Allowed: map[string]string{
			"image/jpeg": ".jpg",
			"image/png":  ".png",
			"image/webp": ".webp",
			"image/gif":  ".gif",
		},
	}
}

func DocumentPolicy(maxBytes int64) BucketPolicy {
	return BucketPolicy{
		Bucket:   BucketDocuments,
		Public:   false,
		MaxBytes: maxBytes,
		Allowed: map[string]string{
			"application/pdf":    ".pdf",
			"application/msword": ".doc",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
			"image/jpeg": ".jpg",
			"image/png":  ".png",
			"image/webp": ".webp",
			"text/plain": ".txt",
		},
	}
}

// Accept normalizes contentType and checks it and the declared size against
// the policy. A declared size of zero or less is not checked here; Put still
// enforces MaxBytes while streaming.
func (p BucketPolicy) Accept(contentType string, declaredSize int64) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrMimeNotAllowed
	}
	mediaType = strings.ToLower(mediaType)
	if _, ok := p.Allowed[mediaType]; !ok {
		return "", ErrMimeNotAllowed
	}
	if p.MaxBytes > 0 && declaredSize > p.MaxBytes {
		return "", ErrTooLarge
	}
	return mediaType, nil
}

// NewKey builds a fresh key for an upload by ownerID to assetID.
func (p BucketPolicy) NewKey(ownerID, assetID, contentType string) string {
	return ownerID + "/" + assetID + "/" + uuid.NewString() + p.Allowed[contentType]
}

// CheckPrefix rejects keys that are not under ownerID's prefix or that try to
// escape it.
func CheckPrefix(key, ownerID string) error {
	if ownerID == "" || key == "" {
		return ErrForeignPrefix
	}
	if path.Clean(key) != key || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrForeignPrefix
	}
	first, _, ok := strings.Cut(key, "/")
	if !ok || first != ownerID {
		return ErrForeignPrefix
	}
	return nil
}

// limitReader fails with ErrTooLarge once more than max bytes were read.
type limitReader struct {
	r   io.Reader
	max int64
	n   int64
}

func newLimitReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return &limitReader{r: r, max: max}
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.max {
		return n, ErrTooLarge
	}
	return n, err
}

func validKey(key string) error {
	if key == "" || path.Clean(key) != key || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
