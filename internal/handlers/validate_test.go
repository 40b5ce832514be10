// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalne1/internal/media"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		limit   int
		offset  int
		wantErr bool
	}{
		{name: "defaults left to service", query: "", limit: 0, offset: 0},
		{name: "explicit", query: "limit=5&offset=10", limit: 5, offset: 10},
		{name: "negative passed through", query: "limit=-1&offset=-3", limit: -1, offset: -3},
		{name: "bad limit", query: "limit=ten", wantErr: true},
		{name: "bad offset", query: "offset=1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/posts?"+tt.query, nil)
			page, msg := parsePage(req)
			if tt.wantErr {
				assert.NotEmpty(t, msg)
				return
			}
			assert.Empty(t, msg)
			assert.Equal(t, tt.limit, page.Limit)
			assert.Equal(t, tt.offset, page.Offset)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts/public?q=elei%C3%A7%C3%B5es&category=politica", nil)
	page, msg := parsePage(req)
	require.Empty(t, msg)
	assert.Equal(t, "eleições", page.Query)
	assert.Equal(t, "politica", page.CategorySlug)
}

func TestFormTags(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want *[]string
	}{
		{name: "absent", form: url.Values{}, want: nil},
		{name: "comma separated", form: url.Values{"tags": {"go, news ,tech"}}, want: &[]string{"go", "news", "tech"}},
		{name: "repeated", form: url.Values{"tags": {"go", "news"}}, want: &[]string{"go", "news"}},
		{name: "mixed", form: url.Values{"tags": {"go,news", "tech"}}, want: &[]string{"go", "news", "tech"}},
		{name: "empty clears", form: url.Values{"tags": {""}}, want: &[]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formTags(tt.form, "tags"))
		})
	}
}

func TestFormScalars(t *testing.T) {
	form := url.Values{"published": {"true"}, "categoryId": {" 7 "}, "bad": {"maybe"}, "title": {""}}

	b, err := formBool(form, "published")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, *b)

	_, err = formBool(form, "bad")
	assert.Error(t, err)

	missing, err := formBool(form, "absent")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	n, err := formInt64(form, "categoryId")
	require.NoError(t, err)
	assert.Equal(t, int64(7), *n)

	_, err = formInt64(form, "bad")
	assert.Error(t, err)

	title := formString(form, "title")
	require.NotNil(t, title, "a sent empty field is not absent")
	assert.Equal(t, "", *title)
	assert.Nil(t, formString(form, "description"))
}

func TestPathID(t *testing.T) {
	for _, tc := range []struct {
		path string
		id   int64
		ok   bool
	}{
		{"/things/12", 12, true},
		{"/things/0", 0, false},
		{"/things/-4", 0, false},
		{"/things/abc", 0, false},
	} {
		var (
			gotID int64
			gotOK bool
		)
		serve(http.MethodGet, "/things/{id}", func(w http.ResponseWriter, r *http.Request) {
			gotID, gotOK = pathID(r, "id")
		}, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.ok, gotOK, tc.path)
		assert.Equal(t, tc.id, gotID, tc.path)
	}
}

func TestIsJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	assert.True(t, isJSON(req))

	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	assert.False(t, isJSON(req))
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Name string }

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":"ana"}`))
	assert.Empty(t, decodeJSON(rr, req, &v))
	assert.Equal(t, "ana", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":`))
	assert.Equal(t, "invalid JSON body", decodeJSON(rr, req, &v))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.Equal(t, "request body is empty", decodeJSON(rr, req, &v))

	big := `{"Name":"` + strings.Repeat("a", maxJSONBody) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	assert.Equal(t, "request body too large", decodeJSON(rr, req, &v))
}

func TestReadUpload(t *testing.T) {
	t.Run("absent file", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/", map[string][]string{"title": {"x"}}, "", nil)
		require.Empty(t, parseForm(httptest.NewRecorder(), req))
		data, err := readUpload(req, "image")
		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("present file", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/", nil, "image", []byte("pixels"))
		require.Empty(t, parseForm(httptest.NewRecorder(), req))
		data, err := readUpload(req, "image")
		assert.NoError(t, err)
		assert.Equal(t, []byte("pixels"), data)
	})

	t.Run("urlencoded body has no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("password=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		require.Empty(t, parseForm(httptest.NewRecorder(), req))
		data, err := readUpload(req, "image")
		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("oversize body", func(t *testing.T) {
		huge := bytes.Repeat([]byte{0}, media.MaxUploadSize+maxFormOverhead+1)
		req := multipartRequest(t, http.MethodPost, "/", nil, "image", huge)
		assert.NotEmpty(t, parseForm(httptest.NewRecorder(), req))
	})
}
