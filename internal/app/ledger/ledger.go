// Package ledger implements the engagement ledger: applying points for
// qualifying actions, recomputing levels, unlocking badges, and writing the
// immutable activity log.
//
// The award path:
//  1. Validates the activity type and the target account's eligibility
//  2. Appends the activity record (log first — a logged intent with no
//     credit is recoverable; a credit with no log is not)
//  3. Atomically increments the point counters on the store
//  4. Recomputes the level from the new total and applies the level-up bonus
//  5. Re-evaluates the badge catalog and unions newly unlocked badges
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/e-serbisyo/engage/internal/domain"
	"github.com/e-serbisyo/engage/internal/infra/observability"
)

// Store is the document-store surface the ledger needs.
type Store interface {
	domain.UserStore
	domain.ActivityStore
	domain.AuditStore
}

// Config controls ledger behavior. The point table and badge catalog are
// configuration, not hard-coded business logic.
type Config struct {
	Points    domain.PointTable
	Badges    domain.BadgeCatalog
	LevelSize int64

	// Location is the canonical time zone for daily-login claim dates.
	// Client local time never participates.
	Location *time.Location
}

// DefaultConfig returns the stock point table, badge catalog, a 100-point
// level curve, and UTC claim dates.
func DefaultConfig() Config {
	return Config{
		Points:    domain.DefaultPointTable(),
		Badges:    domain.DefaultBadgeCatalog(),
		LevelSize: 100,
		Location:  time.UTC,
	}
}

// Service is the engagement ledger.
type Service struct {
	cfg      Config
	store    Store
	notifier domain.Notifier
	metrics  *observability.Metrics
	now      func() time.Time
}

// New creates a ledger service over the given store.
func New(cfg Config, store Store) *Service {
	if cfg.Points == nil {
		cfg.Points = domain.DefaultPointTable()
	}
	if cfg.Badges == nil {
		cfg.Badges = domain.DefaultBadgeCatalog()
	}
	if cfg.LevelSize <= 0 {
		cfg.LevelSize = 100
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		cfg:   cfg,
		store: store,
		now:   time.Now,
	}
}

// SetNotifier sets the engagement-event sink (SSE feed, toasts).
func (s *Service) SetNotifier(n domain.Notifier) { s.notifier = n }

// SetMetrics sets the Prometheus metrics sink.
func (s *Service) SetMetrics(m *observability.Metrics) { s.metrics = m }

// ─── Award Result ───────────────────────────────────────────────────────────

// AwardResult is returned by AwardPoints.
type AwardResult struct {
	PointsAwarded int64                    `json:"points_awarded"` // base + bonuses, including level-up bonus
	BasePoints    int64                    `json:"base_points"`
	BonusPoints   int64                    `json:"bonus_points"`
	BonusMessage  string                   `json:"bonus_message,omitempty"`
	NewTotal      int64                    `json:"new_total"`
	Level         int                      `json:"level"`
	LeveledUp     bool                     `json:"leveled_up"`
	NewlyUnlocked []domain.BadgeDefinition `json:"newly_unlocked,omitempty"`
}

// ─── Operations ─────────────────────────────────────────────────────────────

// AwardPoints applies points for one qualifying action. NOT idempotent by
// design: every call appends a new activity record and increments the point
// total. Callers guard against double invocation for the same logical event
// (ClaimDailyLogin and the award validator's duplicate check do exactly
// that).
func (s *Service) AwardPoints(ctx context.Context, userID string, activityType domain.ActivityType, metadata map[string]string) (*AwardResult, error) {
	return s.timedAward(ctx, userID, activityType, nil, metadata)
}

// AwardEventPoints credits an event completion at the event's own point
// value instead of the table default. The validator's credit flow uses this,
// since every community event carries its configured reward.
func (s *Service) AwardEventPoints(ctx context.Context, userID string, points int64, metadata map[string]string) (*AwardResult, error) {
	return s.timedAward(ctx, userID, domain.ActivityCompleteEvent, &points, metadata)
}

func (s *Service) timedAward(ctx context.Context, userID string, activityType domain.ActivityType, baseOverride *int64, metadata map[string]string) (*AwardResult, error) {
	start := s.now()
	res, err := s.award(ctx, userID, activityType, baseOverride, metadata)
	var unlocks int
	var points int64
	leveledUp := false
	if res != nil {
		unlocks = len(res.NewlyUnlocked)
		points = res.PointsAwarded
		leveledUp = res.LeveledUp
	}
	s.metrics.ObserveAward(string(activityType), points, unlocks, leveledUp, s.now().Sub(start), err)
	return res, err
}

func (s *Service) award(ctx context.Context, userID string, activityType domain.ActivityType, baseOverride *int64, metadata map[string]string) (*AwardResult, error) {
	if !activityType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidActivityType, activityType)
	}
	base, ok := s.cfg.Points[activityType]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no point value", domain.ErrInvalidActivityType, activityType)
	}
	if baseOverride != nil {
		base = *baseOverride
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, persist("get user", err)
	}
	if !user.Eligible() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrUserInactive, user.Status)
	}

	// First-event bonus: only the very first join_event gets it.
	var bonus int64
	var bonusMsg string
	if activityType == domain.ActivityJoinEvent {
		prior, err := s.store.CountActivities(ctx, userID, domain.ActivityJoinEvent)
		if err != nil {
			return nil, persist("count activities", err)
		}
		if prior == 0 {
			bonus = s.cfg.Points[domain.BonusFirstEvent]
			bonusMsg = "First event joined! Bonus points awarded."
		}
	}

	if activityType == domain.ActivityDailyLogin {
		if metadata == nil {
			metadata = map[string]string{}
		}
		if _, ok := metadata[domain.MetaDate]; !ok {
			metadata[domain.MetaDate] = s.now().In(s.cfg.Location).Format(time.DateOnly)
		}
	}

	now := s.now()
	rec := domain.ActivityRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         activityType,
		Metadata:     metadata,
		BasePoints:   base,
		BonusPoints:  bonus,
		BonusMessage: bonusMsg,
		CreatedAt:    now,
	}

	// Log first, then credit: the worst-case partial failure is a logged
	// intent with no corresponding credit, which a reconciliation sweep can
	// repair. The reverse — silent uncredited audit loss — cannot be.
	if err := s.store.AppendActivity(ctx, rec); err != nil {
		return nil, persist("append activity", err)
	}
	newTotal, err := s.store.AddPoints(ctx, userID, rec.TotalPoints())
	if err != nil {
		return nil, persist("add points", err)
	}

	levelBefore := domain.LevelForPoints(user.Points, s.cfg.LevelSize)
	levelAfter := domain.LevelForPoints(newTotal, s.cfg.LevelSize)
	leveledUp := levelAfter.Level > levelBefore.Level

	totalAwarded := rec.TotalPoints()

	// The level-up bonus is recorded as its own activity. It never triggers
	// a second bonus even if it crosses another boundary.
	if leveledUp && activityType != domain.ActivityLevelUp {
		if levelBonus := s.cfg.Points[domain.BonusLevelUp]; levelBonus > 0 {
			bonusRec := domain.ActivityRecord{
				ID:     uuid.NewString(),
				UserID: userID,
				Type:   domain.ActivityLevelUp,
				Metadata: map[string]string{
					"level": fmt.Sprintf("%d", levelAfter.Level),
				},
				BonusPoints:  levelBonus,
				BonusMessage: fmt.Sprintf("Reached level %d!", levelAfter.Level),
				CreatedAt:    s.now(),
			}
			if err := s.store.AppendActivity(ctx, bonusRec); err != nil {
				return nil, persist("append level-up activity", err)
			}
			newTotal, err = s.store.AddPoints(ctx, userID, levelBonus)
			if err != nil {
				return nil, persist("add level-up bonus", err)
			}
			totalAwarded += levelBonus
			levelAfter = domain.LevelForPoints(newTotal, s.cfg.LevelSize)
		}
	}

	if err := s.store.SetLevel(ctx, userID, levelAfter.Level); err != nil {
		return nil, persist("set level", err)
	}

	// Re-evaluate badges on the just-updated total. Union semantics keep
	// concurrent evaluations from duplicating entries.
	eval := s.cfg.Badges.Evaluate(newTotal, user.Badges)
	if len(eval.NewlyUnlocked) > 0 {
		ids := make([]string, len(eval.NewlyUnlocked))
		for i, b := range eval.NewlyUnlocked {
			ids[i] = b.ID
		}
		if err := s.store.UnionBadges(ctx, userID, ids); err != nil {
			return nil, persist("union badges", err)
		}
	}

	s.emit(userID, leveledUp, levelAfter.Level, totalAwarded, eval.NewlyUnlocked, now)

	return &AwardResult{
		PointsAwarded: totalAwarded,
		BasePoints:    base,
		BonusPoints:   bonus,
		BonusMessage:  bonusMsg,
		NewTotal:      newTotal,
		Level:         levelAfter.Level,
		LeveledUp:     leveledUp,
		NewlyUnlocked: eval.NewlyUnlocked,
	}, nil
}

// ClaimDailyLogin awards the daily login bonus at most once per calendar
// date in the ledger's canonical time zone. The second claim on a date
// fails with ErrAlreadyClaimedToday and mutates nothing.
func (s *Service) ClaimDailyLogin(ctx context.Context, userID string) (*AwardResult, error) {
	date := s.now().In(s.cfg.Location).Format(time.DateOnly)

	claimed, err := s.store.HasDailyClaim(ctx, userID, date)
	if err != nil {
		return nil, persist("check daily claim", err)
	}
	if claimed {
		return nil, domain.ErrAlreadyClaimedToday
	}

	return s.AwardPoints(ctx, userID, domain.ActivityDailyLogin, map[string]string{
		domain.MetaDate: date,
	})
}

// ─── Read-Only Surfaces ─────────────────────────────────────────────────────

// ProfileView is the read-only engagement snapshot for one user.
type ProfileView struct {
	User   domain.UserAccount  `json:"user"`
	Level  domain.LevelInfo    `json:"level"`
	Badges []domain.BadgeState `json:"badges"`
}

// Profile returns the user's points, derived level, and badge states.
// Badge evaluation here is speculative/read-only: nothing is persisted.
func (s *Service) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, persist("get user", err)
	}
	eval := s.cfg.Badges.Evaluate(user.Points, user.Badges)
	return &ProfileView{
		User:   *user,
		Level:  domain.LevelForPoints(user.Points, s.cfg.LevelSize),
		Badges: eval.States,
	}, nil
}

// History returns the user's most recent activity records.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]domain.ActivityRecord, error) {
	recs, err := s.store.RecentActivities(ctx, userID, limit)
	if err != nil {
		return nil, persist("recent activities", err)
	}
	return recs, nil
}

// Leaderboard returns the top accounts by all-time points.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]domain.UserAccount, error) {
	users, err := s.store.TopUsers(ctx, limit)
	if err != nil {
		return nil, persist("top users", err)
	}
	return users, nil
}

// Badges returns the configured badge catalog.
func (s *Service) Badges() domain.BadgeCatalog { return s.cfg.Badges }

// ResetMonthlyPoints zeroes every account's monthly counter and records an
// audit entry. Badges and levels derive from all-time points, so a reset
// never strands a badge below its threshold.
func (s *Service) ResetMonthlyPoints(ctx context.Context, operatorID string) (int64, error) {
	n, err := s.store.ResetMonthlyPoints(ctx)
	if err != nil {
		return 0, persist("reset monthly points", err)
	}
	entry := domain.AuditEntry{
		ID:         uuid.NewString(),
		OperatorID: operatorID,
		Authorized: true,
		Issues:     []string{fmt.Sprintf("monthly reset: %d accounts", n)},
		CreatedAt:  s.now(),
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return n, persist("append audit", err)
	}
	return n, nil
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (s *Service) emit(userID string, leveledUp bool, level int, points int64, unlocked []domain.BadgeDefinition, at time.Time) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(domain.EngagementEvent{
		Type:      domain.EventPointsEarned,
		UserID:    userID,
		Points:    points,
		Timestamp: at,
	})
	if leveledUp {
		s.notifier.Notify(domain.EngagementEvent{
			Type:      domain.EventLevelUp,
			UserID:    userID,
			Level:     level,
			Timestamp: at,
		})
	}
	for i := range unlocked {
		s.notifier.Notify(domain.EngagementEvent{
			Type:      domain.EventBadgeUnlocked,
			UserID:    userID,
			Badge:     &unlocked[i],
			Timestamp: at,
		})
	}
}

// persist translates a store fault into ErrPersistence, keeping the original
// diagnostic for logs but matching errors.Is at the boundary.
func persist(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}
