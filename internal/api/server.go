// Package api provides the HTTP server for the engagement core.
// It exposes the ledger surface (awards, daily login, profiles, leaderboard)
// and the award validator surface (QR validation, crediting, audit review).
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/e-serbisyo/engage/internal/app/ledger"
	"github.com/e-serbisyo/engage/internal/app/validator"
	"github.com/e-serbisyo/engage/internal/domain"
)

// Server is the engagement HTTP API server.
type Server struct {
	ledger         *ledger.Service
	validator      *validator.Service
	audit          domain.AuditStore
	feed           *Feed
	metricsEnabled bool
}

// NewServer creates a new API server over the two core services.
func NewServer(l *ledger.Service, v *validator.Service, audit domain.AuditStore) *Server {
	return &Server{ledger: l, validator: v, audit: audit}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetFeed sets the live engagement SSE feed hub.
func (s *Server) SetFeed(f *Feed) { s.feed = f }

// Feed returns the live feed hub (for wiring as the ledger notifier).
func (s *Server) Feed() *Feed { return s.feed }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	// Health check for container orchestrators
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": "0.1.0",
		})
	})

	// Engagement ledger endpoints
	r.Route("/api/ledger", func(r chi.Router) {
		r.Post("/award", s.handleAward)
		r.Post("/daily-login", s.handleDailyLogin)
		r.Get("/profile/{userID}", s.handleProfile)
		r.Get("/history/{userID}", s.handleHistory)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/badges", s.handleBadges)
	})

	// Award validator endpoints
	r.Route("/api/awards", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/credit", s.handleCredit)
	})

	// QR issuing
	r.Route("/api/qr", func(r chi.Router) {
		r.Post("/issue", s.handleIssueQR)
	})

	// Audit trail review
	r.Get("/api/audit", s.handleAudit)

	// Live engagement SSE feed
	if s.feed != nil {
		r.Get("/api/feed", s.feed.HandleSSE)
	}

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the web frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
