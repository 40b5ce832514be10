// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"portalne1/internal/middleware"
	"portalne1/internal/service"
)

// Uploads serves the standalone editor image upload.
type Uploads struct {
	images  ImageUploader
	metrics Recorder
}

// NewUploads creates the upload handler. images is nil when no object
// storage is configured; uploads then answer 503.
func NewUploads(images ImageUploader, rec Recorder) *Uploads {
	return &Uploads{images: images, metrics: recorderOrNoop(rec)}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Image stores the multipart "file" field and returns its public URL.
func (h *Uploads) Image(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeErrorMessage(w, http.StatusServiceUnavailable, service.KindInternal, "object storage is not configured")
		return
	}
	if msg := parseForm(w, r); msg != "" {
		badRequest(w, msg)
		return
	}
	data, err := readUpload(r, "file")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if data == nil {
		badRequest(w, "no file provided")
		return
	}

	url, err := h.images.Upload(r.Context(), middleware.ActorFromCtx(r.Context()), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.ImageUploaded()
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
