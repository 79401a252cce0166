// Package server provides the HTTP API of the résumé intake service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-intake/internal/db"
	"github.com/jonathan/resume-intake/internal/intake"
	"github.com/jonathan/resume-intake/internal/logger"
	"github.com/jonathan/resume-intake/internal/server/middleware"
	"github.com/jonathan/resume-intake/internal/server/ratelimit"
	"github.com/jonathan/resume-intake/internal/storage"
	"github.com/jonathan/resume-intake/internal/types"
)

// ProfileImporter runs single-item imports for the signed-in user
type ProfileImporter interface {
	Import(ctx context.Context, userID uuid.UUID, req types.ImportRequest) (*types.ImportResponse, error)
	Accept(ctx context.Context, userID uuid.UUID, req types.AcceptRequest) ([]string, error)
}

// BatchRunner runs bulk provisioning batches
type BatchRunner interface {
	RunBatch(ctx context.Context, docs []intake.Document) ([]types.BulkUploadItemResult, error)
}

// ProfileReader loads stored profiles
type ProfileReader interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*db.Profile, error)
}

// BatchStore keeps the audit record of bulk batches
type BatchStore interface {
	SaveBulkBatch(ctx context.Context, batch *types.BulkBatch) error
	GetBulkBatch(ctx context.Context, id uuid.UUID) (*types.BulkBatch, error)
}

// HealthCheck reports the state of one dependency; nil means healthy
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators of the HTTP server
type Deps struct {
	Users     *UserService
	JWT       *JWTService
	Single    ProfileImporter
	Bulk      BatchRunner
	Profiles  ProfileReader
	Batches   BatchStore
	Documents storage.Store
	// Publisher is optional
	Publisher intake.EventPublisher
	Limiter   *ratelimit.Limiter
	Logger    *logger.Logger
	Health    map[string]HealthCheck

	AllowedOrigins []string
	MaxFiles       int
	MaxFileBytes   int64

	// BulkCallTimeout is the orchestrator's per-call timeout. A bulk upload
	// extends its write deadline by this much for every file.
	BulkCallTimeout time.Duration
}

// Server is the HTTP API
type Server struct {
	deps   Deps
	log    *logger.Logger
	router chi.Router
}

// New validates deps and builds the router
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Users == nil:
		return nil, errors.New("user service is required")
	case deps.JWT == nil:
		return nil, errors.New("JWT service is required")
	case deps.Single == nil || deps.Bulk == nil:
		return nil, errors.New("intake flows are required")
	case deps.Profiles == nil || deps.Batches == nil:
		return nil, errors.New("profile and batch stores are required")
	case deps.Documents == nil:
		return nil, errors.New("document store is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}
	if deps.MaxFiles <= 0 {
		deps.MaxFiles = 100
	}
	if deps.MaxFileBytes <= 0 {
		deps.MaxFileBytes = 10 << 20
	}
	if deps.BulkCallTimeout <= 0 {
		deps.BulkCallTimeout = 90 * time.Second
	}

	s := &Server{deps: deps, log: deps.Logger.WithComponent("http")}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.withLogging)
	r.Use(s.withRecover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.withRateLimit)

	r.Get("/health", s.handleHealth)

	auth := NewAuthHandler(s.deps.Users, s.deps.JWT, s.log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(s.deps.JWT.AsTokenValidator()))

			r.Get("/auth/me", auth.Me)
			r.Put("/auth/password", auth.UpdatePassword)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", s.handleGetProfile)
				r.Post("/resume", s.handleUploadResume)
				r.Post("/import", s.handleImport)
				r.Post("/import/accept", s.handleAcceptImport)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(types.RoleAdmin))

				r.Post("/users", auth.CreateUser)
				r.Post("/bulk-uploads", s.handleBulkUpload)
				r.Get("/bulk-uploads/{id}", s.handleGetBulkBatch)
				r.Get("/bulk-uploads/{id}/report.csv", s.handleBulkReport)
			})
		})
	})

	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.deps.Limiter.Stop()
	s.log.Info().Msg("server stopped")
	return err
}

// withLogging logs one line per request
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Info().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request")
	})
}

// withRecover turns a handler panic into a 500
func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				s.jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies per-client limits
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.deps.Limiter.Allow(clientID(r), r.URL.Path, r.Method)

		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}
		if !allowed {
			retryAfter := int(info.RetryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			s.log.Warn().
				Str("client", clientID(r)).
				Str("path", r.URL.Path).
				Int("limit", info.Limit).
				Msg("rate limit exceeded")
			s.jsonResponse(w, http.StatusTooManyRequests, ErrorResponse{
				Error:     "rate limit exceeded, please try again later",
				Retryable: true,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID identifies the caller by IP. RealIP has already applied X-Forwarded-For.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// handleHealth reports the state of each dependency
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Health))
	for name, check := range s.deps.Health {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := check(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	s.jsonResponse(w, status, body)
}

// writeJSON writes data as a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	if err := writeJSON(w, status, data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes err with the status it maps to
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error().
			Err(err).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	s.jsonResponse(w, status, errorBody(err, status))
}

// badRequest writes a 400 with message
func (s *Server) badRequest(w http.ResponseWriter, message string) {
	s.jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: message})
}
