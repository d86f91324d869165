// Package http exposes the ledger and analytics operations as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"contas/internal/services"
)

type Server struct {
	http.Server
	service      *services.LedgerService
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, service *services.LedgerService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		service:     service,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/accounts", s.guard(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.guard(s.handleCreateAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.guard(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.guard(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/cards", s.guard(s.handleListCards))
	mux.HandleFunc("POST /api/cards", s.guard(s.handleCreateCard))
	mux.HandleFunc("PUT /api/cards/{id}", s.guard(s.handleUpdateCard))
	mux.HandleFunc("DELETE /api/cards/{id}", s.guard(s.handleDeleteCard))

	mux.HandleFunc("GET /api/transactions", s.guard(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.guard(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.guard(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.guard(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transactions/{id}/confirm", s.guard(s.handleConfirmTransaction))
	mux.HandleFunc("GET /api/transactions/pending", s.guard(s.handleListPending))

	mux.HandleFunc("GET /api/goals", s.guard(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.guard(s.handleCreateGoal))
	mux.HandleFunc("POST /api/goals/{id}/transfer", s.guard(s.handleGoalTransfer))
	mux.HandleFunc("POST /api/goals/{id}/withdraw", s.guard(s.handleGoalWithdraw))

	mux.HandleFunc("POST /api/recalculate", s.guard(s.handleRecalculate))

	mux.HandleFunc("GET /api/analysis/pattern", s.guard(s.handleSpendingPattern))
	mux.HandleFunc("GET /api/budget/daily", s.guard(s.handleDailyBudget))
	mux.HandleFunc("GET /api/health", s.guard(s.handleHealthScore))
	mux.HandleFunc("GET /api/insights", s.guard(s.handleInsights))

	return s
}

// guard adds rate limiting, security headers, and request logging.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			clientIP = strings.TrimSpace(strings.Split(forwarded, ",")[0])
		}
		if !s.rateLimiter.allow(clientIP) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		slog.InfoContext(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
