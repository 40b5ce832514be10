// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// testValkey returns a client connected to an in-process miniredis.
func testValkey(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestConnectValkey(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectValkey(mr.Addr(), "")
	if err != nil {
		t.Fatalf("ConnectValkey: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestConnectValkeyUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := ConnectValkey(addr, ""); err == nil {
		t.Error("expected error for unreachable valkey")
	}
}

func TestPageCacheSetAndGet(t *testing.T) {
	client, mr := testValkey(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	var hits, misses int
	pc.OnLookup(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	if data, ok := pc.Get(ctx, "/api/category"); ok || data != nil {
		t.Error("expected cache miss")
	}

	body := []byte(`[{"id":1,"name":"Tecnologia"}]`)
	pc.Set(ctx, "/api/category", body)

	data, ok := pc.Get(ctx, "/api/category")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != string(body) {
		t.Errorf("data mismatch: got %q, want %q", data, body)
	}
	if hits != 1 || misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", hits, misses)
	}
	if ttl := mr.TTL(pageKeyPrefix + "/api/category"); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
}

func TestPageCacheInvalidate(t *testing.T) {
	client, _ := testValkey(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	pc.Set(ctx, "a", []byte("1"))
	pc.Set(ctx, "b", []byte("2"))

	pc.Invalidate(ctx, "a")
	if _, ok := pc.Get(ctx, "a"); ok {
		t.Error("expected miss after Invalidate")
	}
	if _, ok := pc.Get(ctx, "b"); !ok {
		t.Error("other entries must survive Invalidate")
	}
}

func TestPageCacheInvalidateAll(t *testing.T) {
	client, mr := testValkey(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		pc.Set(ctx, fmt.Sprintf("/api/posts/public?offset=%d", i), []byte("x"))
	}
	mr.Set("session:keep", "1")

	pc.InvalidateAll(ctx)

	keys := mr.Keys()
	if len(keys) != 1 || keys[0] != "session:keep" {
		t.Errorf("remaining keys = %v, want only session:keep", keys)
	}
}

func TestPageCacheValkeyDown(t *testing.T) {
	client, mr := testValkey(t)
	pc := NewPageCache(client, time.Minute)
	mr.Close()

	// Errors degrade to misses and never panic.
	pc.Set(context.Background(), "k", []byte("v"))
	if _, ok := pc.Get(context.Background(), "k"); ok {
		t.Error("expected miss when valkey is down")
	}
	pc.InvalidateAll(context.Background())
}

func TestMiddleware(t *testing.T) {
	client, _ := testValkey(t)
	pc := NewPageCache(client, time.Minute)

	calls := 0
	h := pc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusInternalServerError)
		}
		w.Write([]byte(`{"posts":[],"total":0}`))
	}))

	get := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		return w
	}

	first := get("/api/posts/public?limit=5")
	if first.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first X-Cache = %q", first.Header().Get("X-Cache"))
	}
	second := get("/api/posts/public?limit=5")
	if second.Header().Get("X-Cache") != "HIT" || second.Body.String() != `{"posts":[],"total":0}` {
		t.Errorf("second = %q %q", second.Header().Get("X-Cache"), second.Body.String())
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}

	// Different query is a different entry.
	get("/api/posts/public?limit=6")
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}

	// Errors are never cached.
	get("/api/posts/public?fail=1")
	get("/api/posts/public?fail=1")
	if calls != 4 {
		t.Errorf("handler calls = %d, want 4", calls)
	}

	// Non-GET bypasses the cache.
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/posts/public?limit=5", nil))
	if calls != 5 {
		t.Errorf("handler calls = %d, want 5", calls)
	}
}

func TestMiddlewareNilCache(t *testing.T) {
	var pc *PageCache
	called := false
	h := pc.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !called {
		t.Error("nil cache must pass requests through")
	}
	pc.InvalidateAll(context.Background())
}
