// main is the entry point of the admin API.
//
// STARTUP SEQUENCE:
//  1. Load .env (if present) and the YAML configuration
//  2. Initialise the logger
//  3. Connect to (and set up) the SQLite database
//  4. Create the upload directories and the token manager
//  5. Register all HTTP routes behind the auth gate where required
//  6. Start the HTTP server in a separate goroutine
//  7. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  8. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/admin-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/admin-api
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aanand-mishra/admin-api/internal/auth"
	"github.com/aanand-mishra/admin-api/internal/config"
	"github.com/aanand-mishra/admin-api/internal/http/handlers/student"
	"github.com/aanand-mishra/admin-api/internal/http/handlers/user"
	"github.com/aanand-mishra/admin-api/internal/http/middleware"
	"github.com/aanand-mishra/admin-api/internal/storage/sqlite"
	"github.com/aanand-mishra/admin-api/internal/upload"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// A local .env file is the convenient place for JWT_SECRET during
	// development; in deployment the variables come from the environment.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	// MustLoad reads the YAML config and exits if anything is wrong.
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// slog is Go's structured logger. Text output in dev for readability,
	// JSON in staging/prod for log aggregators.
	log := setupLogger(cfg.Env)

	log.Info("starting admin-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// ── 3. Initialise Storage (Database) ──────────────────────────────────
	// sqlite.New opens the SQLite file and creates the users and students
	// tables. We keep the result behind the storage.Storage interface —
	// the handlers never learn which database they are talking to.
	st, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("path", cfg.StoragePath))

	// ── 4. Uploads and Tokens ─────────────────────────────────────────────
	// upload.New eagerly creates uploads/ and studpic/ under the base
	// directory (idempotent on every start).
	files, err := upload.New(cfg.UploadPath)
	if err != nil {
		log.Error("failed to initialise upload directories",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, auth.TokenTTL)

	// ── 5. Register HTTP Routes ───────────────────────────────────────────
	// The handler functions are FACTORIES — they receive their
	// dependencies once and return the actual handler (closure pattern).
	//
	// protected(...) wraps a handler in the bearer-token auth gate:
	// everything except signup, login and the public image mounts
	// requires a valid token.
	router := http.NewServeMux()
	protected := middleware.Auth(tokens)

	router.HandleFunc("POST /user-signup", user.Signup(st, files))
	router.HandleFunc("POST /user-login", user.Login(st, tokens))
	router.Handle("POST /user-change-password", protected(user.ChangePassword(st)))
	router.Handle("GET /get-user-data", protected(user.GetList(st)))
	router.Handle("PUT /update-user-data/{id}", protected(user.Update(st, files)))
	router.Handle("DELETE /delete-user-data/{id}", protected(user.Delete(st)))

	router.Handle("POST /Add-student", protected(student.New(st, files)))
	router.Handle("GET /get-student-data", protected(student.GetList(st)))
	router.Handle("PUT /update-student-data/{id}", protected(student.Update(st, files)))
	router.Handle("DELETE /delete-student-data/{id}", protected(student.Delete(st)))

	// Public read-only mounts for the stored images. The paths mirror the
	// relative paths persisted on the records ("uploads/...", "studpic/...").
	router.Handle("GET /uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(filepath.Join(cfg.UploadPath, upload.UserDir)))))
	router.Handle("GET /studpic/", http.StripPrefix("/studpic/",
		http.FileServer(http.Dir(filepath.Join(cfg.UploadPath, upload.StudentDir)))))

	// ── 6. Create the HTTP Server ─────────────────────────────────────────
	server := &http.Server{
		Addr: cfg.HTTPServer.Addr,

		// RequestID wraps the whole router: every request gets an id,
		// an access-log line, and an X-Request-Id response header.
		Handler: middleware.RequestID(log)(router),

		// Production hardening — timeouts against slow-client attacks.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 7. Start Server in a Goroutine ────────────────────────────────────
	// ListenAndServe blocks forever; run it aside so the shutdown logic
	// below gets to wait on signals.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ErrServerClosed is the expected result of Shutdown — not an error.
		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 8. Wait for Shutdown Signal ───────────────────────────────────────
	// Buffered channel of size 1 so the signal is not missed if main is
	// briefly busy.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	// Five seconds for in-flight requests to finish; after that the
	// context cancels and Shutdown returns an error.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
