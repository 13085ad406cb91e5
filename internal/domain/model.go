// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import "time"

// ─── Account Types ──────────────────────────────────────────────────────────

// UserStatus gates a user's eligibility for point awards.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserDisabled  UserStatus = "disabled"
	UserSuspended UserStatus = "suspended"
	UserBanned    UserStatus = "banned"
)

// UserAccount is the engagement view of a community member.
// Points are all-time cumulative and drive both level and badge thresholds;
// MonthlyPoints is a separate counter zeroed by the administrative monthly
// reset and never consulted by badge evaluation.
type UserAccount struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Status        UserStatus `json:"status"`
	Admin         bool       `json:"admin"`
	Points        int64      `json:"points"`
	MonthlyPoints int64      `json:"monthly_points"`
	Level         int        `json:"level"`
	Badges        []string   `json:"badges"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Eligible reports whether the account may receive point awards.
func (u *UserAccount) Eligible() bool {
	return u.Status == UserActive
}

// HasBadge reports whether the badge is already in the user's badge set.
func (u *UserAccount) HasBadge(badgeID string) bool {
	for _, b := range u.Badges {
		if b == badgeID {
			return true
		}
	}
	return false
}

// ─── Event Types ────────────────────────────────────────────────────────────

// Event completion states as written by the events subsystem.
const (
	EventCompleted = "completed"
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCancelled = "cancelled"
)

// EventRecord is the read-only view of a community event. The events
// subsystem owns these; the validator only consults them.
type EventRecord struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	Points         int64      `json:"points"`
	AwardsDisabled bool       `json:"awards_disabled"`
	Deadline       *time.Time `json:"deadline,omitempty"` // award deadline, nil = none
}

// ─── Award Types ────────────────────────────────────────────────────────────

// PointAwardRecord closes the duplicate-detection loop: at most one record
// may exist per (UserID, EventID) pair.
type PointAwardRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	EventID    string    `json:"event_id"`
	OperatorID string    `json:"operator_id"`
	Points     int64     `json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}

// ─── Engagement Events ──────────────────────────────────────────────────────

// EngagementEventType classifies notification-worthy ledger outcomes.
type EngagementEventType string

const (
	EventBadgeUnlocked EngagementEventType = "badge_unlocked"
	EventLevelUp       EngagementEventType = "level_up"
	EventPointsEarned  EngagementEventType = "points_earned"
)

// EngagementEvent is surfaced to the caller (toasts, SSE feed) when a ledger
// operation unlocks a badge, crosses a level boundary, or credits points.
// The core emits these; rendering is entirely the caller's concern.
type EngagementEvent struct {
	Type      EngagementEventType `json:"type"`
	UserID    string              `json:"user_id"`
	Points    int64               `json:"points,omitempty"`
	Level     int                 `json:"level,omitempty"`
	Badge     *BadgeDefinition    `json:"badge,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// ─── Audit Types ────────────────────────────────────────────────────────────

// AuditEntry records one validator invocation, pass or fail.
type AuditEntry struct {
	ID         string    `json:"id"`
	OperatorID string    `json:"operator_id"`
	TargetID   string    `json:"target_id,omitempty"` // empty if never resolved
	EventIDs   []string  `json:"event_ids"`
	Authorized bool      `json:"authorized"`
	Issues     []string  `json:"issues"`
	CreatedAt  time.Time `json:"created_at"`
}

// SecuritySeverity classifies security events: high for auth/signature
// failures, medium for rate-limit/duplicate, low for malformed input.
type SecuritySeverity string

const (
	SeverityHigh   SecuritySeverity = "high"
	SeverityMedium SecuritySeverity = "medium"
	SeverityLow    SecuritySeverity = "low"
)

// SecurityEvent is a distinct record for security-sensitive failures.
type SecurityEvent struct {
	ID         string           `json:"id"`
	Kind       string           `json:"kind"`
	Severity   SecuritySeverity `json:"severity"`
	OperatorID string           `json:"operator_id,omitempty"`
	Detail     string           `json:"detail"`
	CreatedAt  time.Time        `json:"created_at"`
}
