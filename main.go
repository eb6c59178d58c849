// Package main, sohbet backend'inin giriş noktasıdır.
//
// Wire-up sırası:
//  1. Logger ve config
//  2. Database (migration'lar dahil)
//  3. Upload dizini
//  4. Repository → Hub → Service → Handler
//  5. Router, CORS, HTTP server
//  6. Periyodik temizlik ve graceful shutdown
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/akinalp/sohbet/config"
	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/middleware"
	"github.com/akinalp/sohbet/services"
	"github.com/akinalp/sohbet/ws"
)

const cleanupInterval = time.Hour

func main() {
	// ─── 1. Config & Logger ───
	cfg, err := config.Load()
	if err != nil {
		// Logger henüz yok; production logger ile yazıp çık.
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	logger := newLogger(cfg.Log.Development)
	defer logger.Sync() //nolint:errcheck

	logger.Info("sohbet server starting", zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── 2. Database ───
	db, err := database.New(ctx, cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// ─── 3. Upload dizini ───
	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		logger.Fatal("failed to create upload directory", zap.Error(err))
	}

	// ─── 4. Katmanlar ───
	repos := initRepositories(db.Conn)

	hub := ws.NewHub(logger)
	svcs := initServices(db.Conn, repos, hub, cfg, logger)
	defer svcs.Close()

	registerHubCallbacks(hub, svcs.Presence, svcs.Relationship, repos.Conversation, repos.Group, logger)
	go hub.Run()

	h := initHandlers(db.Conn, svcs, hub, cfg)

	// ─── 5. Router & CORS ───
	router := mux.NewRouter()
	router.Use(middleware.Logging(logger))
	initRoutes(router, h, svcs.Auth, cfg.Upload.Dir)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ─── 6. Temizlik ───
	go runCleanup(ctx, svcs.Auth, svcs.PasswordReset, logger)

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Önce WebSocket bağlantıları, sonra HTTP server.
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
		return
	}
	logger.Info("server stopped gracefully")
}

func newLogger(development bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// runCleanup, süresi dolmuş oturum ve sıfırlama token'larını periyodik siler.
func runCleanup(ctx context.Context, auth services.AuthService, resets services.PasswordResetService, logger *zap.Logger) {
	logger = logger.Named("cleanup")
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := auth.CleanupExpiredSessions(ctx); err != nil {
				logger.Warn("session cleanup failed", zap.Error(err))
			} else if n > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", n))
			}
			if n, err := resets.CleanupExpired(ctx); err != nil {
				logger.Warn("reset token cleanup failed", zap.Error(err))
			} else if n > 0 {
				logger.Info("expired reset tokens removed", zap.Int64("count", n))
			}
		}
	}
}
