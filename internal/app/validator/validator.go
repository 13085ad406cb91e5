// Package validator implements the award validator: the gate an
// administrative operator passes before crediting event-completion points
// via QR scan. It performs no mutation of points or badges itself — the
// crediting flow lives in CreditAward, which calls the ledger only after a
// passed validation is explicitly acknowledged.
//
// Validation runs all checks and accumulates errors/warnings rather than
// short-circuiting, except where a later step structurally requires an
// earlier step's output (nothing after decoding runs on an undecodable
// payload).
package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/e-serbisyo/engage/internal/domain"
	"github.com/e-serbisyo/engage/internal/infra/observability"
)

// Store is the document-store surface the validator needs. All access is
// read-only except the audit trail.
type Store interface {
	domain.UserStore
	domain.EventStore
	domain.AwardStore
	domain.AuditStore
}

// Config controls validator behavior.
type Config struct {
	Window      time.Duration // rate-limit sliding window
	MaxAttempts int           // scan attempts per window per (operator, address)
	MaxQRAge    time.Duration // freshness bound for timestamped payloads
	SigningKey  []byte
	SealKey     []byte // optional, 32 bytes for AES-256-GCM
}

// DefaultConfig returns the stock limits: 10 scans per 60 seconds, 24-hour
// QR freshness.
func DefaultConfig() Config {
	return Config{
		Window:      time.Minute,
		MaxAttempts: 10,
		MaxQRAge:    24 * time.Hour,
	}
}

// Service is the award validator.
type Service struct {
	cfg     Config
	store   Store
	ledger  Ledger
	codec   *Codec
	limiter RateLimiter
	metrics *observability.Metrics
	now     func() time.Time
}

// New creates a validator over the given store.
func New(cfg Config, store Store) *Service {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.MaxQRAge <= 0 {
		cfg.MaxQRAge = 24 * time.Hour
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		codec:   NewCodec(cfg.SigningKey, cfg.SealKey),
		limiter: NewSlidingWindow(cfg.Window, cfg.MaxAttempts),
		now:     time.Now,
	}
}

// SetLedger wires the crediting surface. Validation works without it;
// CreditAward does not.
func (s *Service) SetLedger(l Ledger) { s.ledger = l }

// SetRateLimiter swaps the rate limiter (e.g. for a shared implementation).
func (s *Service) SetRateLimiter(rl RateLimiter) { s.limiter = rl }

// SetMetrics sets the Prometheus metrics sink.
func (s *Service) SetMetrics(m *observability.Metrics) { s.metrics = m }

// Codec returns the QR codec, used by the issuing endpoint.
func (s *Service) Codec() *Codec { return s.codec }

// ─── Result Types ───────────────────────────────────────────────────────────

// Issue is one validation failure, carrying a stable kind and a short,
// user-presentable message.
type Issue struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// EventEligibility is one candidate event's verdict.
type EventEligibility struct {
	EventID string              `json:"event_id"`
	Event   *domain.EventRecord `json:"event,omitempty"`
	Valid   bool                `json:"valid"`
	Reason  string              `json:"reason,omitempty"`
}

// DuplicateWarning surfaces a prior award so the operator can make an
// informed override decision.
type DuplicateWarning struct {
	EventID    string    `json:"event_id"`
	OperatorID string    `json:"operator_id"`
	AwardedAt  time.Time `json:"awarded_at"`
}

// ValidationResult carries everything the caller needs to decide whether to
// credit: the authorization verdict, accumulated issues, the valid/invalid
// event partition, duplicate warnings, and the total the caller would
// credit if it proceeds.
type ValidationResult struct {
	Authorized  bool                `json:"authorized"`
	Issues      []Issue             `json:"issues,omitempty"`
	Warnings    []DuplicateWarning  `json:"warnings,omitempty"`
	Operator    *domain.UserAccount `json:"operator,omitempty"`
	TargetUser  *domain.UserAccount `json:"target_user,omitempty"`
	Payload     *domain.QRPayload   `json:"payload,omitempty"`
	ValidEvents []EventEligibility  `json:"valid_events,omitempty"`
	Invalid     []EventEligibility  `json:"invalid_events,omitempty"`
	TotalPoints int64               `json:"total_points"`
	RetryAfter  time.Duration       `json:"retry_after,omitempty"`
}

// HasKind reports whether an issue of the given kind was recorded.
func (r *ValidationResult) HasKind(kind domain.ErrorKind) bool {
	for _, is := range r.Issues {
		if is.Kind == kind {
			return true
		}
	}
	return false
}

func (r *ValidationResult) fail(kind domain.ErrorKind, msg string) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Message: msg})
}

// ─── Validation ─────────────────────────────────────────────────────────────

// ValidateAward decides whether an event-completion award to the
// QR-referenced user is authorized. Every invocation — pass or fail — writes
// one audit entry; security-sensitive failures additionally write classified
// security events. Only audit persistence can return an error.
func (s *Service) ValidateAward(ctx context.Context, operatorID, remoteAddr, rawPayload string, eventIDs []string) (*ValidationResult, error) {
	res := &ValidationResult{}

	// Step 1: operator authorization.
	operator, err := s.store.GetUser(ctx, operatorID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		res.fail(domain.KindOperatorUnauthorized, "operator account not found")
	case err != nil:
		res.fail(domain.KindPersistenceFailure, "operator lookup failed")
	case !operator.Admin:
		res.fail(domain.KindOperatorUnauthorized, "operator lacks administrative role")
	case !operator.Eligible():
		res.fail(domain.KindOperatorUnauthorized, fmt.Sprintf("operator account is %s", operator.Status))
	default:
		res.Operator = operator
	}
	if res.Operator == nil {
		s.security(ctx, domain.KindOperatorUnauthorized, domain.SeverityHigh, operatorID,
			"unauthorized operator attempted award validation")
	}

	// Step 2: rate limiting per (operator, remote address).
	decision := s.limiter.CheckAndRecord(operatorID + "|" + remoteAddr)
	if !decision.Allowed {
		res.fail(domain.KindRateLimitExceeded,
			fmt.Sprintf("too many scan attempts, retry in %s", decision.RetryAfter.Round(time.Second)))
		res.RetryAfter = decision.RetryAfter
		s.metrics.ObserveRateLimitDeny()
		s.security(ctx, domain.KindRateLimitExceeded, domain.SeverityMedium, operatorID,
			fmt.Sprintf("scan rate limit exceeded from %s", remoteAddr))
	}

	// Step 3: payload decoding. Later steps structurally require this one.
	payload, err := s.codec.Decode(rawPayload)
	if err != nil {
		res.fail(domain.KindInvalidQRFormat, "QR payload could not be decoded")
		s.security(ctx, domain.KindInvalidQRFormat, domain.SeverityLow, operatorID, "undecodable QR payload")
		return res, s.finish(ctx, res, operatorID, eventIDs)
	}
	res.Payload = &payload
	if payload.UserID == "" {
		res.fail(domain.KindMissingUserID, "QR payload has no user identifier")
		s.security(ctx, domain.KindMissingUserID, domain.SeverityLow, operatorID, "QR payload missing user identifier")
	}

	// Step 4: freshness. Payloads without a timestamp are non-expiring.
	if payload.HasTimestamp() {
		if age := s.now().Sub(payload.IssuedAt); age > s.cfg.MaxQRAge {
			res.fail(domain.KindQRExpired, fmt.Sprintf("QR code expired %s ago", (age - s.cfg.MaxQRAge).Round(time.Minute)))
			s.security(ctx, domain.KindQRExpired, domain.SeverityLow, operatorID,
				fmt.Sprintf("expired QR payload for %q", payload.UserID))
		}
	}

	// Step 5: signature. Unsigned payloads skip the check; a present but
	// wrong signature means tampering.
	if payload.Signed() && !s.codec.Verify(payload) {
		res.fail(domain.KindInvalidSignature, "QR signature mismatch")
		s.security(ctx, domain.KindInvalidSignature, domain.SeverityHigh, operatorID,
			fmt.Sprintf("signature mismatch on QR payload for %q — possible tampering", payload.UserID))
	}

	// Step 6: identifier sanitization.
	userID := SanitizeUserID(payload.UserID)
	if payload.UserID != "" && len(userID) < 3 {
		res.fail(domain.KindInvalidUserID, "user identifier is invalid after sanitization")
		s.security(ctx, domain.KindInvalidUserID, domain.SeverityLow, operatorID,
			fmt.Sprintf("rejected user identifier %q", payload.UserID))
	}

	// Step 7: target user eligibility.
	if len(userID) >= 3 {
		target, err := s.store.GetUser(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			res.fail(domain.KindTargetIneligible, "target user not found")
		case err != nil:
			res.fail(domain.KindPersistenceFailure, "target user lookup failed")
		case !target.Eligible():
			res.fail(domain.KindTargetIneligible, fmt.Sprintf("target user account is %s", target.Status))
		default:
			res.TargetUser = target
		}
	}

	// Step 8: event eligibility — a valid/invalid partition, never a batch
	// failure on one bad id.
	now := s.now()
	for _, id := range eventIDs {
		res.partitionEvent(ctx, s.store, id, now)
	}

	// Step 9: duplicate-award check. Warnings, not hard failures: the
	// caller may override, but only with the prior award in hand.
	if res.TargetUser != nil {
		for _, ee := range res.ValidEvents {
			prior, err := s.store.GetAward(ctx, res.TargetUser.ID, ee.EventID)
			if err != nil {
				res.fail(domain.KindPersistenceFailure, "duplicate-award lookup failed")
				continue
			}
			if prior != nil {
				res.Warnings = append(res.Warnings, DuplicateWarning{
					EventID:    ee.EventID,
					OperatorID: prior.OperatorID,
					AwardedAt:  prior.CreatedAt,
				})
				s.security(ctx, domain.KindDuplicateAward, domain.SeverityMedium, operatorID,
					fmt.Sprintf("duplicate award attempt: user %s already credited for event %s by %s",
						res.TargetUser.ID, ee.EventID, prior.OperatorID))
			}
		}
	}

	// Step 10: total the caller would credit.
	for _, ee := range res.ValidEvents {
		res.TotalPoints += ee.Event.Points
	}

	return res, s.finish(ctx, res, operatorID, eventIDs)
}

// partitionEvent applies the event eligibility rules and files the verdict.
func (r *ValidationResult) partitionEvent(ctx context.Context, store Store, id string, now time.Time) {
	ev, err := store.GetEvent(ctx, id)
	verdict := EventEligibility{EventID: id, Event: ev}
	switch {
	case err != nil:
		verdict.Reason = "event lookup failed"
	case ev == nil:
		verdict.Reason = "event not found"
	case ev.Status != domain.EventCompleted:
		verdict.Reason = fmt.Sprintf("event is %s, not completed", ev.Status)
	case ev.AwardsDisabled:
		verdict.Reason = "awards are disabled for this event"
	case ev.Points <= 0:
		verdict.Reason = "event has no point value"
	case ev.Deadline != nil && now.After(*ev.Deadline):
		verdict.Reason = "award deadline has passed"
	default:
		verdict.Valid = true
	}
	if verdict.Valid {
		r.ValidEvents = append(r.ValidEvents, verdict)
	} else {
		r.Invalid = append(r.Invalid, verdict)
	}
}

// finish computes the verdict and writes the audit entry.
func (s *Service) finish(ctx context.Context, res *ValidationResult, operatorID string, eventIDs []string) error {
	res.Authorized = s.authorized(res, len(eventIDs))
	s.metrics.ObserveValidation(res.Authorized)

	entry := domain.AuditEntry{
		ID:         uuid.NewString(),
		OperatorID: operatorID,
		EventIDs:   eventIDs,
		Authorized: res.Authorized,
		Issues:     describeIssues(res),
		CreatedAt:  s.now(),
	}
	if res.TargetUser != nil {
		entry.TargetID = res.TargetUser.ID
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("%w: append audit: %v", domain.ErrPersistence, err)
	}
	return nil
}

// authorized applies the overall verdict rule: any failure in steps 1-7
// denies; an entirely invalid candidate set denies; duplicate warnings do
// not deny on their own (the caller must acknowledge them to proceed).
func (s *Service) authorized(res *ValidationResult, candidates int) bool {
	if len(res.Issues) > 0 {
		return false
	}
	if candidates > 0 && len(res.ValidEvents) == 0 {
		return false
	}
	return res.Operator != nil && res.TargetUser != nil
}

func describeIssues(res *ValidationResult) []string {
	out := make([]string, 0, len(res.Issues)+len(res.Warnings))
	for _, is := range res.Issues {
		out = append(out, fmt.Sprintf("%s: %s", is.Kind, is.Message))
	}
	for _, w := range res.Warnings {
		out = append(out, fmt.Sprintf("%s: event %s previously awarded by %s", domain.KindDuplicateAward, w.EventID, w.OperatorID))
	}
	for _, ee := range res.Invalid {
		out = append(out, fmt.Sprintf("%s: %s: %s", domain.KindEventIneligible, ee.EventID, ee.Reason))
	}
	return out
}

// security writes one classified security event; failures are logged into
// the metric stream only, never surfaced, since the validation verdict must
// not depend on security-log availability.
func (s *Service) security(ctx context.Context, kind domain.ErrorKind, severity domain.SecuritySeverity, operatorID, detail string) {
	s.metrics.ObserveSecurityEvent(string(kind), string(severity))
	_ = s.store.AppendSecurityEvent(ctx, domain.SecurityEvent{
		ID:         uuid.NewString(),
		Kind:       string(kind),
		Severity:   severity,
		OperatorID: operatorID,
		Detail:     strings.TrimSpace(detail),
		CreatedAt:  s.now(),
	})
}
