// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage stores post images in object storage. Three backends are
// supported: any S3-compatible service (path-style), MinIO and Google Cloud
// Storage. Objects are publicly readable and served straight from the
// backend or from a configured CDN prefix.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"portalne1/internal/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
	// BaseURL is the public URL prefix of the bucket, without a trailing slash.
	BaseURL() string
}

// Storage wraps an ObjectStorage backend and maps keys to public URLs.
type Storage struct {
	backend ObjectStorage
	base    string
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend, base: strings.TrimRight(backend.BaseURL(), "/")}
}

// New builds the backend selected by cfg.StorageDriver. It returns (nil, nil)
// when the selected backend has no endpoint or bucket configured, so the
// server can run without uploads.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.StorageDriver {
	case config.StorageS3:
		if cfg.S3.Endpoint == "" {
			return nil, nil
		}
		backend, err = NewS3Client(cfg.S3)
	case config.StorageMinio:
		if cfg.Minio.Endpoint == "" {
			return nil, nil
		}
		backend, err = NewMinioClient(cfg.Minio)
	case config.StorageGCS:
		if cfg.GCS.Bucket == "" {
			return nil, nil
		}
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.StorageDriver, err)
	}
	return NewStorage(backend), nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// URL returns the public URL of key.
func (s *Storage) URL(key string) string {
	return s.base + "/" + key
}

// KeyFromURL extracts the object key from a URL produced by URL. It returns
// ("", false) for URLs that do not belong to this storage, such as external
// photo links.
func (s *Storage) KeyFromURL(rawURL string) (string, bool) {
	prefix := s.base + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	key := rawURL[len(prefix):]
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
