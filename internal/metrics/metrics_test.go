package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/posts/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, slug := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/posts/"+slug, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/posts/{slug}", "404"))
	assert.Equal(t, 3.0, got)
	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.PostViewed()
	m.PostViewed()
	m.LoginAttempt("failure")
	m.ImageUploaded()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.postViews))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads))
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.PostViewed()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "portal_post_views_total 1"), "missing post views")
	assert.True(t, strings.Contains(body, "go_goroutines"), "missing go collector")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.PostViewed()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.postViews))
	assert.NotSame(t, a.Registry(), b.Registry())
}
