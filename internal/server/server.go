package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"drivewatch/internal/logger"
	"drivewatch/internal/monitor"
)

// Checker runs one check-and-process pass. Satisfied by *monitor.Monitor.
type Checker interface {
	CheckOnce(ctx context.Context) (monitor.Summary, error)
}

// Server exposes the check operation over HTTP, mirroring the original
// cloud-function trigger.
type Server struct {
	checker Checker
	timeout time.Duration
}

// CheckResponse is the JSON body returned by the check endpoint.
type CheckResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Summary monitor.Summary `json:"summary"`
}

func New(checker Checker, timeout time.Duration) *Server {
	return &Server{checker: checker, timeout: timeout}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/check", s.handleCheck)
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	summary, err := s.checker.CheckOnce(ctx)
	if err != nil {
		logger.Error("Check failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, CheckResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	render.JSON(w, r, CheckResponse{
		Status:  "success",
		Summary: summary,
	})
}
