// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"portalne1/internal/authz"
	"portalne1/internal/cache"
	"portalne1/internal/database"
	"portalne1/internal/handlers"
	"portalne1/internal/markdown"
	"portalne1/internal/media"
	"portalne1/internal/metrics"
	"portalne1/internal/middleware"
	"portalne1/internal/router"
	"portalne1/internal/service"
	"portalne1/internal/session"
	"portalne1/internal/storage"
	"portalne1/internal/store"
)

const (
	loginLimit  = 10
	viewLimit   = 60
	limitWindow = time.Minute

	shutdownTimeout = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = serveCmd.RunE
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("connected to PostgreSQL")

	if cfg.IsDev() {
		if err := database.Seed(ctx, db, database.DefaultAdminName, database.DefaultAdminPassword); err != nil {
			return err
		}
	}

	valkey, err := cache.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkey.Close()
	slog.Info("connected to Valkey")

	secure := !cfg.IsDev()
	sessions := session.NewStore(valkey, cfg.SessionSecret, secure).WithTTL(cfg.SessionTTL)

	st, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	var images service.ImageStore
	var imageSvc *service.ImageService
	if st != nil {
		if err := st.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("prepare bucket %s: %w", st.Bucket(), err)
		}
		images = st
		imageSvc = service.NewImageService(st, media.NewProcessor(cfg.UploadMaxWidth))
		slog.Info("image storage ready", "driver", cfg.StorageDriver, "bucket", st.Bucket())
	} else {
		slog.Warn("object storage not configured, image uploads disabled")
	}

	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	postStore := store.NewPostStore(db)

	userSvc := service.NewUserService(userStore, postStore, images)
	categorySvc := service.NewCategoryService(categoryStore, postStore, images)
	postSvc := service.NewPostService(postStore, categoryStore, authz.NewStepUp(userStore), imageSvc, markdown.New(markdown.DefaultStyle))

	m := metrics.New()

	var pageCache *cache.PageCache
	if cfg.CacheTTL > 0 {
		pageCache = cache.NewPageCache(valkey, cfg.CacheTTL)
		pageCache.OnLookup(m.ObserveCache)
	}

	loginLimiter := middleware.NewRateLimiter(loginLimit, limitWindow)
	defer loginLimiter.Stop()
	viewLimiter := middleware.NewRateLimiter(viewLimit, limitWindow)
	defer viewLimiter.Stop()

	var uploader handlers.ImageUploader
	if imageSvc != nil {
		uploader = imageSvc
	}

	r := router.New(router.Deps{
		Sessions: sessions,
		Accounts: userStore,

		Auth:       handlers.NewAuth(userSvc, sessions, m),
		Categories: handlers.NewCategories(categorySvc, pageCache),
		Posts:      handlers.NewPosts(postSvc, pageCache),
		Public:     handlers.NewPublic(postSvc, m),
		Users:      handlers.NewUsers(userSvc, pageCache),
		Uploads:    handlers.NewUploads(uploader, m),

		PageCache:    pageCache,
		Metrics:      m,
		LoginLimiter: loginLimiter,
		ViewLimiter:  viewLimiter,

		CORSOrigins: cfg.CORSOrigins,
		Secure:      secure,
		Checks: map[string]router.Checker{
			"postgres": db.PingContext,
			"valkey": func(ctx context.Context) error {
				return valkey.Ping(ctx).Err()
			},
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
