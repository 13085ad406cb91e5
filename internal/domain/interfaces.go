package domain

import "context"

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define the boundary to the document store. The store is
// expected to provide five primitives: fetch by identity, atomic numeric
// increment, atomic set union, append to an append-only collection, and
// equality/range queries. Infrastructure implements them; the application
// layer depends on them.

// UserStore reads and mutates the engagement fields of user accounts.
type UserStore interface {
	// GetUser fetches an account. Returns ErrUserNotFound if absent.
	GetUser(ctx context.Context, id string) (*UserAccount, error)

	// AddPoints atomically increments the all-time and monthly point
	// counters without a client-side read, and returns the new all-time
	// total. Concurrent callers for the same user never lose updates.
	AddPoints(ctx context.Context, id string, delta int64) (int64, error)

	// UnionBadges adds badge IDs to the user's badge set with add-if-absent
	// semantics. Safe to call concurrently with the same IDs.
	UnionBadges(ctx context.Context, id string, badgeIDs []string) error

	// SetLevel stores the recomputed cached level.
	SetLevel(ctx context.Context, id string, level int) error

	// TopUsers returns accounts ordered by descending all-time points.
	TopUsers(ctx context.Context, limit int) ([]UserAccount, error)

	// ResetMonthlyPoints zeroes every account's monthly counter and returns
	// the number of accounts touched. All-time points are untouched.
	ResetMonthlyPoints(ctx context.Context) (int64, error)
}

// ActivityStore appends and queries the immutable activity log.
type ActivityStore interface {
	AppendActivity(ctx context.Context, rec ActivityRecord) error

	// CountActivities counts a user's records of one type (first-event
	// bonus check).
	CountActivities(ctx context.Context, userID string, t ActivityType) (int64, error)

	// HasDailyClaim reports whether a daily_login record exists for the
	// given canonical date (YYYY-MM-DD).
	HasDailyClaim(ctx context.Context, userID, date string) (bool, error)

	RecentActivities(ctx context.Context, userID string, limit int) ([]ActivityRecord, error)
}

// AwardStore appends and queries point-award records for duplicate detection.
type AwardStore interface {
	AppendAward(ctx context.Context, rec PointAwardRecord) error

	// GetAward returns the prior award for (userID, eventID), or nil if
	// none exists.
	GetAward(ctx context.Context, userID, eventID string) (*PointAwardRecord, error)
}

// EventStore is the read-only view into the events subsystem.
type EventStore interface {
	// GetEvent returns the event, or nil if it does not exist.
	GetEvent(ctx context.Context, id string) (*EventRecord, error)
}

// AuditStore appends administrative audit entries and security events.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	AppendSecurityEvent(ctx context.Context, ev SecurityEvent) error
	RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

// Store is the full document-store surface the daemon wires up.
type Store interface {
	UserStore
	ActivityStore
	AwardStore
	EventStore
	AuditStore
}

// ─── Notification Boundary ──────────────────────────────────────────────────

// Notifier receives engagement events (badge unlocks, level-ups) for
// delivery to UIs. Delivery is fire-and-forget; the ledger never blocks on
// a notifier.
type Notifier interface {
	Notify(ev EngagementEvent)
}
