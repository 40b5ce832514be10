// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"portalne1/internal/authz"
	"portalne1/internal/media"
)

// ImageService validates and stores post images.
type ImageService struct {
	store     ImageStore
	processor *media.Processor
	now       func() time.Time
}

// NewImageService wires an ImageService.
func NewImageService(store ImageStore, processor *media.Processor) *ImageService {
	if processor == nil {
		processor = media.NewProcessor(0)
	}
	return &ImageService{store: store, processor: processor, now: time.Now}
}

// Upload stores a standalone image for the editor and returns its public URL.
func (s *ImageService) Upload(ctx context.Context, actor authz.Actor, data []byte) (string, error) {
	if err := authorize(actor, authz.UploadImages, 0); err != nil {
		return "", err
	}
	url, _, err := s.put(ctx, data)
	return url, err
}

// put processes data and stores it under a fresh key.
func (s *ImageService) put(ctx context.Context, data []byte) (url, key string, err error) {
	img, err := s.processor.Process(data)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrUnsupportedType):
			return "", "", validationError("image must be a JPEG, PNG, GIF or WebP file")
		case errors.Is(err, media.ErrTooLarge):
			return "", "", validationError("image is too large (max %d MB)", media.MaxUploadSize>>20)
		case errors.Is(err, media.ErrEmpty):
			return "", "", validationError("image is empty")
		case errors.Is(err, media.ErrCorrupt):
			return "", "", validationError("image is damaged or truncated")
		default:
			return "", "", internalError("process image", err)
		}
	}

	now := s.now()
	key = fmt.Sprintf("posts/%d/%02d/%s%s", now.Year(), now.Month(), uuid.NewString(), img.Ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return "", "", internalError("store image", err)
	}
	return s.store.URL(key), key, nil
}

// remove deletes stored objects behind urls, best effort.
func (s *ImageService) remove(ctx context.Context, urls ...string) {
	if s == nil {
		return
	}
	removeImages(ctx, s.store, urls...)
}
