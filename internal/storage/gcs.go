package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores objects in Google Cloud Storage, one GCS bucket per logical bucket.
type GCS struct {
	client  *storage.Client
	buckets map[Bucket]string
}

func NewGCS(ctx context.Context, buckets map[Bucket]string, credentialsFile string) (*GCS, error) {
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, buckets: buckets}, nil
}

func (g *GCS) bucketName(bucket Bucket) (string, error) {
	name, ok := g.buckets[bucket]
	if !ok || name == "" {
		return "", fmt.Errorf("unknown bucket %q", bucket)
	}
	return name, nil
}

func (g *GCS) Put(ctx context.Context, bucket Bucket, key, contentType string, body io.Reader, maxBytes int64) (Object, error) {
	if err := validKey(key); err != nil {
		return Object{}, err
	}
	name, err := g.bucketName(bucket)
	if err != nil {
		return Object{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(w, hasher), newLimitReader(body, maxBytes))
	if err == nil && size == 0 {
		err = ErrEmpty
	}
	if err != nil {
		// cancelling before Close aborts the upload
		cancel()
		_ = w.Close()
		return Object{}, err
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return Object{
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		Size:        size,
		Sha256:      hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (g *GCS) Open(ctx context.Context, bucket Bucket, key string) (io.ReadCloser, error) {
	name, err := g.bucketName(bucket)
	if err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(name).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	return r, err
}

func (g *GCS) Delete(ctx context.Context, bucket Bucket, key string) error {
	name, err := g.bucketName(bucket)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err = g.client.Bucket(name).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, name, err)
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
