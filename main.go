package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	initLogger(cfg.LogLevel)

	slog.Info("connecting to database")
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runMigrations(db); err != nil {
		slog.Error("failed to migrate database", "err", err)
		os.Exit(1)
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		slog.Error("failed to configure mailer", "err", err)
		os.Exit(1)
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		slog.Warn("SESSION_SECRET is not set, sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	sessions := newSessionManager(secret, cfg.SessionIdleTimeout, strings.HasPrefix(cfg.AppURL, "https://"))

	store := newPostgresStore(db)
	accounts := newAccountService(store, newUserHooks(mailer, cfg.AppURL), cfg.PasswordResetTTL)
	app := newApp(store, accounts, sessions, newClientLimiter(cfg.AuthRatePerMinute), cfg.StaticDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(app, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()
	sessions.Init()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "err", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
		}
	}
	sessions.Close()
}
