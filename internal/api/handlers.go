package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/e-serbisyo/engage/internal/domain"
)

// ─── Ledger Handlers ────────────────────────────────────────────────────────

type awardRequest struct {
	UserID       string            `json:"user_id"`
	ActivityType string            `json:"activity_type"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// handleAward credits points for one qualifying activity.
// POST /api/ledger/award
func (s *Server) handleAward(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.ActivityType == "" {
		writeError(w, http.StatusBadRequest, "user_id and activity_type are required")
		return
	}

	res, err := s.ledger.AwardPoints(r.Context(), req.UserID, domain.ActivityType(req.ActivityType), req.Metadata)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type dailyLoginRequest struct {
	UserID string `json:"user_id"`
}

// handleDailyLogin claims the once-per-day login bonus.
// POST /api/ledger/daily-login
func (s *Server) handleDailyLogin(w http.ResponseWriter, r *http.Request) {
	var req dailyLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	res, err := s.ledger.ClaimDailyLogin(r.Context(), req.UserID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleProfile returns the engagement snapshot for one user.
// GET /api/ledger/profile/{userID}
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	view, err := s.ledger.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleHistory returns the most recent activity records for one user.
// GET /api/ledger/history/{userID}?limit=50
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := queryInt(r, "limit", 50)

	recs, err := s.ledger.History(r.Context(), userID, limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    userID,
		"activities": recs,
	})
}

// handleLeaderboard returns the top users by all-time points.
// GET /api/ledger/leaderboard?limit=10
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)

	users, err := s.ledger.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": users,
	})
}

// handleBadges returns the badge catalog.
// GET /api/ledger/badges
func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"badges": s.ledger.Badges(),
	})
}

// ─── Validator Handlers ─────────────────────────────────────────────────────

type validateRequest struct {
	OperatorID            string   `json:"operator_id"`
	Payload               string   `json:"payload"`
	EventIDs              []string `json:"event_ids"`
	AcknowledgeDuplicates bool     `json:"acknowledge_duplicates,omitempty"`
}

// handleValidate runs the full validation pipeline without crediting.
// POST /api/awards/validate
//
// The response is always the full validation result; a rate-limit denial
// additionally gets status 429 with a Retry-After header.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OperatorID == "" {
		writeError(w, http.StatusBadRequest, "operator_id is required")
		return
	}

	res, err := s.validator.ValidateAward(r.Context(), req.OperatorID, r.RemoteAddr, req.Payload, req.EventIDs)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	status := http.StatusOK
	if res.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())+1))
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, res)
}

// handleCredit validates and, when authorized, credits in one call.
// POST /api/awards/credit
func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OperatorID == "" {
		writeError(w, http.StatusBadRequest, "operator_id is required")
		return
	}

	res, err := s.validator.ValidateAward(r.Context(), req.OperatorID, r.RemoteAddr, req.Payload, req.EventIDs)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if res.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())+1))
		writeJSON(w, http.StatusTooManyRequests, res)
		return
	}
	if !res.Authorized {
		writeJSON(w, http.StatusForbidden, res)
		return
	}

	out, err := s.validator.CreditAward(r.Context(), res, req.AcknowledgeDuplicates)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"validation": res,
		"credit":     out,
	})
}

type issueQRRequest struct {
	UserID string `json:"user_id"`
	Sealed bool   `json:"sealed,omitempty"`
}

// handleIssueQR issues a signed (optionally sealed) QR payload for a user.
// POST /api/qr/issue
func (s *Server) handleIssueQR(w http.ResponseWriter, r *http.Request) {
	var req issueQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var payload string
	var err error
	if req.Sealed {
		payload, err = s.validator.Codec().IssueSealed(req.UserID)
	} else {
		payload, err = s.validator.Codec().Issue(req.UserID)
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": req.UserID,
		"payload": payload,
		"sealed":  req.Sealed,
	})
}

// handleAudit returns the most recent validator audit entries.
// GET /api/audit?limit=50
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	entries, err := s.audit.RecentAudit(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"audit": entries,
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUserInactive),
		errors.Is(err, domain.ErrOperatorUnauthorized),
		errors.Is(err, domain.ErrNotAuthorized),
		errors.Is(err, domain.ErrTargetIneligible):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyClaimedToday),
		errors.Is(err, domain.ErrDuplicatesUnacked):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrInvalidActivityType),
		errors.Is(err, domain.ErrInvalidQRFormat),
		errors.Is(err, domain.ErrMissingUserID),
		errors.Is(err, domain.ErrInvalidUserID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQRExpired),
		errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
