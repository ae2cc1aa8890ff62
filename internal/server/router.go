// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package server implements the NORT /api/* routes. It proxies login, signup,
// logout and "me" to an upstream identity binding and carries the upstream
// session token to browsers and CLI clients in the nort_session cookie.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nort/cli/internal/backend"
	"nort/cli/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pterm/pterm"
)

// Options controls the construction of the router.
// The zero value is not valid: Upstream is required.
type Options struct {
	Upstream backend.API
	Logger   *pterm.Logger
	// AllowedOrigins for CORS. Empty means DefaultCORSOptions.
	AllowedOrigins []string
	// SecureCookies sets the Secure attribute on the session cookie.
	SecureCookies bool
	// SessionTTL bounds the cookie lifetime when the upstream reports no expiry.
	SessionTTL time.Duration
	Version    string
}

// DefaultCORSOptions returns the development CORS policy used by the mobile
// app's dev server.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy and the
// /api handlers mounted.
func NewRouter(opts Options) chi.Router {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	h := &handlers{
		up:      opts.Upstream,
		log:     opts.Logger,
		secure:  opts.SecureCookies,
		ttl:     opts.SessionTTL,
		version: opts.Version,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if len(opts.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = opts.AllowedOrigins
	}
	r.Use(cors.Handler(corsCfg))

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})

	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/login", h.login)
		r.Post("/signup", h.signup)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
		r.Get("/version", h.versionInfo)
	})
	return r
}

// requestLogger logs one line per request through the pterm logger.
func requestLogger(l *pterm.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Info("request", l.Args(
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
				"request_id", middleware.GetReqID(r.Context()),
			))
		})
	}
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, log *pterm.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("api server listening", log.Args("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("api server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
