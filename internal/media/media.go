// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package media validates uploaded post images and shrinks oversized ones
// before they reach object storage.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxUploadSize is the largest accepted upload (10 MB).
	MaxUploadSize = 10 << 20

	// DefaultMaxWidth is the widest image stored without downscaling.
	DefaultMaxWidth = 1600

	// maxImagePixels caps decoded dimensions to refuse decompression bombs.
	maxImagePixels = 50_000_000

	jpegQuality = 85
)

var (
	// ErrUnsupportedType is returned for anything that is not a raster image.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when the payload or its pixel count is too big.
	ErrTooLarge = errors.New("image too large")
	// ErrEmpty is returned for a zero-byte upload.
	ErrEmpty = errors.New("empty image")
	// ErrCorrupt is returned when the header parses but the pixel data does not.
	ErrCorrupt = errors.New("corrupt image")
)

// allowedTypes maps accepted MIME types to the extension used for storage.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a validated upload ready to store.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Processor validates and normalizes uploads.
type Processor struct {
	maxWidth int
}

// NewProcessor returns a Processor that downscales anything wider than
// maxWidth. A non-positive maxWidth uses DefaultMaxWidth.
func NewProcessor(maxWidth int) *Processor {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	return &Processor{maxWidth: maxWidth}
}

// MaxWidth returns the configured width limit.
func (p *Processor) MaxWidth() int {
	return p.maxWidth
}

// Process sniffs data, checks it decodes as an allowed image and, when it is
// wider than the limit, re-encodes a proportionally scaled copy. GIFs are
// never re-encoded so animations survive.
func (p *Processor) Process(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	out := &Image{Data: data, ContentType: contentType, Ext: ext, Width: cfg.Width, Height: cfg.Height}
	if cfg.Width <= p.maxWidth || contentType == "image/gif" {
		return out, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	dst := Scale(img, p.maxWidth)

	var buf bytes.Buffer
	switch contentType {
	case "image/png":
		err = png.Encode(&buf, dst)
	default:
		// x/image has no WebP encoder, so WebP is stored as JPEG once resized.
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
		out.ContentType = "image/jpeg"
		out.Ext = ".jpg"
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	b := dst.Bounds()
	out.Data = buf.Bytes()
	out.Width = b.Dx()
	out.Height = b.Dy()
	return out, nil
}

// Scale resizes src to width, keeping its aspect ratio, with CatmullRom.
func Scale(src image.Image, width int) *image.RGBA {
	bounds := src.Bounds()
	height := int(float64(bounds.Dy()) * float64(width) / float64(bounds.Dx()))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// ExtensionFor returns the storage extension for an allowed MIME type.
func ExtensionFor(contentType string) string {
	return allowedTypes[contentType]
}
