// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"portalne1/internal/media"
	"portalne1/internal/service"
)

const (
	// maxJSONBody caps JSON request bodies.
	maxJSONBody = 1 << 20

	// maxFormOverhead is the room left for text fields next to an upload.
	maxFormOverhead = 1 << 20
)

// errFileTooLarge is returned by readUpload for oversize files.
var errFileTooLarge = fmt.Errorf("file too large (max %d MB)", media.MaxUploadSize>>20)

// isJSON reports whether the request body is JSON.
func isJSON(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "application/json"
}

// decodeJSON reads a size-limited JSON body into v. The returned message is
// safe to show to clients.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) string {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return "request body too large"
		case errors.Is(err, io.EOF):
			return "request body is empty"
		default:
			return "invalid JSON body"
		}
	}
	return ""
}

// parseForm reads a multipart or urlencoded body sized for one image upload.
func parseForm(w http.ResponseWriter, r *http.Request) string {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+maxFormOverhead)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	switch {
	case ct == "multipart/form-data":
		err = r.ParseMultipartForm(media.MaxUploadSize)
	case r.Method == http.MethodDelete && ct == "application/x-www-form-urlencoded":
		// ParseForm only reads bodies of POST, PUT and PATCH.
		if err = r.ParseForm(); err == nil {
			err = parseBodyValues(r)
		}
	default:
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errFileTooLarge.Error()
		}
		return "invalid form body"
	}
	return ""
}

// parseBodyValues merges an urlencoded body into PostForm and Form.
func parseBodyValues(r *http.Request) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return err
	}
	for k, v := range vals {
		r.PostForm[k] = append(r.PostForm[k], v...)
		r.Form[k] = append(r.Form[k], v...)
	}
	return nil
}

// pathID parses a positive numeric URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parsePage reads limit, offset, q and category from the query string.
// Range clamping is left to the service.
func parsePage(r *http.Request) (service.Page, string) {
	q := r.URL.Query()
	page := service.Page{
		Query:        q.Get("q"),
		CategorySlug: q.Get("category"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, "limit must be an integer"
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, "offset must be an integer"
		}
		page.Offset = n
	}
	return page, ""
}

// formString returns the field value, or nil when the field was not sent.
func formString(form url.Values, key string) *string {
	vals, ok := form[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// formBool parses an optional boolean field.
func formBool(form url.Values, key string) (*bool, error) {
	v := formString(form, key)
	if v == nil {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(*v))
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", key)
	}
	return &b, nil
}

// formInt64 parses an optional integer field.
func formInt64(form url.Values, key string) (*int64, error) {
	v := formString(form, key)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(*v), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &n, nil
}

// formTags collects tags sent as repeated fields, comma-separated values or
// both. An empty value clears the tags.
func formTags(form url.Values, key string) *[]string {
	vals, ok := form[key]
	if !ok {
		return nil
	}
	tags := []string{}
	for _, v := range vals {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return &tags
}

// readUpload returns the bytes of an optional multipart file, or nil when
// the field is absent.
func readUpload(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, media.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if len(data) > media.MaxUploadSize {
		return nil, errFileTooLarge
	}
	return data, nil
}
