package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// Local stores objects under BasePath/<bucket dir>/<key>.
type Local struct {
	BasePath     string
	Buckets      map[Bucket]string
	MinFreeBytes uint64
	// FreeBytes reports free space on the volume holding path.
	FreeBytes func(path string) (uint64, error)
}

func NewLocal(basePath string, buckets map[Bucket]string, minFreeBytes uint64) *Local {
	return &Local{
		BasePath:     basePath,
		Buckets:      buckets,
		MinFreeBytes: minFreeBytes,
		FreeBytes:    diskFree,
	}
}

func diskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

func (l *Local) bucketPath(bucket Bucket) (string, error) {
	dir, ok := l.Buckets[bucket]
	if !ok || dir == "" {
		return "", fmt.Errorf("unknown bucket %q", bucket)
	}
	path := filepath.Join(l.BasePath, dir)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

func (l *Local) objectPath(bucket Bucket, key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	base, err := l.bucketPath(bucket)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, filepath.FromSlash(key)), nil
}

func (l *Local) Put(ctx context.Context, bucket Bucket, key, contentType string, body io.Reader, maxBytes int64) (Object, error) {
	target, err := l.objectPath(bucket, key)
	if err != nil {
		return Object{}, err
	}
	if l.MinFreeBytes > 0 && l.FreeBytes != nil {
		free, err := l.FreeBytes(l.BasePath)
		if err == nil && free < l.MinFreeBytes+uint64(max(maxBytes, 0)) {
			return Object{}, ErrQuota
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return Object{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return Object{}, err
	}
	tmpName := tmp.Name()
	hasher := sha256.New()
	writer := io.MultiWriter(tmp, hasher)
	size, err := io.Copy(writer, newLimitReader(contextReader{ctx: ctx, r: body}, maxBytes))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && size == 0 {
		err = ErrEmpty
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return Object{}, err
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return Object{}, err
	}
	return Object{
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		Size:        size,
		Sha256:      hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (l *Local) Open(_ context.Context, bucket Bucket, key string) (io.ReadCloser, error) {
	target, err := l.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return file, err
}

func (l *Local) Delete(_ context.Context, bucket Bucket, key string) error {
	target, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
