package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/e-serbisyo/engage/internal/domain"
	"github.com/e-serbisyo/engage/internal/infra/sqlite"
)

// ─── Helpers ────────────────────────────────────────────────────────────────

func newTestLedger(t *testing.T) (*Service, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := New(DefaultConfig(), db)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return svc, db
}

func seedUser(t *testing.T, db *sqlite.DB, id string, points int64, status domain.UserStatus) {
	t.Helper()
	err := db.UpsertUser(context.Background(), domain.UserAccount{
		ID:     id,
		Name:   "Test " + id,
		Status: status,
		Points: points,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

type captureNotifier struct {
	events []domain.EngagementEvent
}

func (c *captureNotifier) Notify(ev domain.EngagementEvent) {
	c.events = append(c.events, ev)
}

// ─── AwardPoints Tests ──────────────────────────────────────────────────────

func TestAwardPoints_Basic(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0, domain.UserActive)

	res, err := svc.AwardPoints(ctx, "u1", domain.ActivitySignup, nil)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if res.BasePoints != 10 || res.BonusPoints != 0 {
		t.Errorf("base=%d bonus=%d, want 10/0", res.BasePoints, res.BonusPoints)
	}
	if res.NewTotal != 10 {
		t.Errorf("new total = %d, want 10", res.NewTotal)
	}

	// Exactly one activity record was written.
	n, _ := db.CountActivities(ctx, "u1", domain.ActivitySignup)
	if n != 1 {
		t.Errorf("activity count = %d, want 1", n)
	}
}

func TestAwardPoints_InvalidType(t *testing.T) {
	svc, db := newTestLedger(t)
	seedUser(t, db, "u1", 0, domain.UserActive)

	_, err := svc.AwardPoints(context.Background(), "u1", "hack_points", nil)
	if !errors.Is(err, domain.ErrInvalidActivityType) {
		t.Errorf("err = %v, want ErrInvalidActivityType", err)
	}
}

func TestAwardPoints_UserNotFound(t *testing.T) {
	svc, _ := newTestLedger(t)
	_, err := svc.AwardPoints(context.Background(), "ghost", domain.ActivitySignup, nil)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestAwardPoints_InactiveUser(t *testing.T) {
	svc, db := newTestLedger(t)
	for _, status := range []domain.UserStatus{domain.UserDisabled, domain.UserBanned, domain.UserSuspended} {
		seedUser(t, db, "u-"+string(status), 0, status)
		_, err := svc.AwardPoints(context.Background(), "u-"+string(status), domain.ActivitySignup, nil)
		if !errors.Is(err, domain.ErrUserInactive) {
			t.Errorf("status %q: err = %v, want ErrUserInactive", status, err)
		}
	}
}

func TestAwardPoints_FirstEventBonusOnce(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0, domain.UserActive)

	first, err := svc.AwardPoints(ctx, "u1", domain.ActivityJoinEvent, map[string]string{domain.MetaEventID: "E1"})
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if first.BonusPoints != 20 {
		t.Errorf("first join bonus = %d, want 20", first.BonusPoints)
	}
	if first.BonusMessage == "" {
		t.Error("first join should carry a bonus message")
	}

	second, err := svc.AwardPoints(ctx, "u1", domain.ActivityJoinEvent, map[string]string{domain.MetaEventID: "E2"})
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if second.BonusPoints != 0 {
		t.Errorf("second join bonus = %d, want 0", second.BonusPoints)
	}
}

func TestAwardPoints_SumIsExact(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0, domain.UserActive)

	// A run of awards whose total stays under the first level boundary, so
	// no level-up bonus muddies the arithmetic.
	var want int64
	for i := 0; i < 6; i++ {
		res, err := svc.AwardPoints(ctx, "u1", domain.ActivityDailyLogin, map[string]string{
			domain.MetaDate: time.Date(2026, 8, i+1, 0, 0, 0, 0, time.UTC).Format(time.DateOnly),
		})
		if err != nil {
			t.Fatalf("award %d: %v", i, err)
		}
		want += res.PointsAwarded
	}

	u, err := db.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Points != want {
		t.Errorf("points = %d, want sum of awards %d", u.Points, want)
	}
}

func TestAwardPoints_EndToEndScenario(t *testing.T) {
	// Spec scenario: user at 90 points, first join_event (base 15 +
	// first-event bonus 20) crosses both the level boundary and the
	// starter badge threshold at 100.
	svc, db := newTestLedger(t)
	ctx := context.Background()
	seedUser(t, db, "U1", 0, domain.UserActive)
	if _, err := db.AddPoints(ctx, "U1", 90); err != nil {
		t.Fatal(err)
	}

	res, err := svc.AwardPoints(ctx, "U1", domain.ActivityJoinEvent, map[string]string{
		domain.MetaEventID:    "E1",
		domain.MetaEventTitle: "Cleanup",
	})
	if err != nil {
		t.Fatalf("award: %v", err)
	}

	if res.BasePoints != 15 || res.BonusPoints != 20 {
		t.Errorf("base=%d bonus=%d, want 15/20", res.BasePoints, res.BonusPoints)
	}
	if res.BonusMessage == "" {
		t.Error("bonus message should be non-empty")
	}
	if !res.LeveledUp {
		t.Error("90 → 125 should cross the 100-point level boundary")
	}
	// 90 + 15 + 20 = 125, plus the 50-point level-up bonus = 175.
	if res.NewTotal != 175 {
		t.Errorf("new total = %d, want 175 (125 + level-up bonus 50)", res.NewTotal)
	}

	foundStarter := false
	for _, b := range res.NewlyUnlocked {
		if b.ID == "starter" {
			foundStarter = true
		}
	}
	if !foundStarter {
		t.Errorf("newly unlocked = %+v, want to include starter (125 >= 100)", res.NewlyUnlocked)
	}

	// The badge set was persisted with union semantics.
	u, _ := db.GetUser(ctx, "U1")
	if !u.HasBadge("starter") {
		t.Error("starter badge not persisted")
	}
	if u.Level != res.Level {
		t.Errorf("cached level = %d, result level = %d", u.Level, res.Level)
	}

	// The level-up bonus produced its own activity record.
	n, _ := db.CountActivities(ctx, "U1", domain.ActivityLevelUp)
	if n != 1 {
		t.Errorf("level_up records = %d, want 1", n)
	}
}

func TestAwardPoints_BadgesNeverRevoked(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0, domain.UserActive)
	if err := db.UnionBadges(ctx, "u1", []string{"champion"}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.AwardPoints(ctx, "u1", domain.ActivitySignup, nil)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	for _, b := range res.NewlyUnlocked {
		if b.ID == "champion" {
			t.Error("already-owned badge reported as newly unlocked")
		}
	}
	u, _ := db.GetUser(ctx, "u1")
	if !u.HasBadge("champion") {
		t.Error("owned badge disappeared")
	}
}

func TestAwardPoints_Notifications(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()
	n := &captureNotifier{}
	svc.SetNotifier(n)

	seedUser(t, db, "u1", 0, domain.UserActive)
	if _, err := db.AddPoints(ctx, "u1", 95); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AwardPoints(ctx, "u1", domain.ActivityJoinEvent, nil); err != nil {
		t.Fatalf("award: %v", err)
	}

	var gotPoints, gotLevel, gotBadge bool
	for _, ev := range n.events {
		switch ev.Type {
		case domain.EventPointsEarned:
			gotPoints = true
		case domain.EventLevelUp:
			gotLevel = true
		case domain.EventBadgeUnlocked:
			gotBadge = true
			if ev.Badge == nil {
				t.Error("badge event without badge payload")
			}
		}
	}
	if !gotPoints || !gotLevel || !gotBadge {
		t.Errorf("events = %+v, want points+level+badge", n.events)
	}
}

// ─── Daily Login Tests ──────────────────────────────────────────────────────

func TestClaimDailyLogin_SingleClaim(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0, domain.UserActive)

	res, err := svc.ClaimDailyLogin(ctx, "u1")
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if res.BasePoints != 5 {
		t.Errorf("daily login base = %d, want 5", res.BasePoints)
	}

	_, err = svc.ClaimDailyLogin(ctx, "u1")
	if !errors.Is(err, domain.ErrAlreadyClaimedToday) {
		t.Errorf("second claim err = %v, want ErrAlreadyClaimedToday", err)
	}

	// Exactly one record, exactly one credit.
	n, _ := db.CountActivities(ctx, "u1", domain.ActivityDailyLogin)
	if n != 1 {
		t.Errorf("daily_login records = %d, want 1", n)
	}
	u, _ := db.GetUser(ctx, "u1")
	if u.Points != 5 {
		t.Errorf("points = %d, want 5", u.Points)
	}
}

func TestClaimDailyLogin_NextDay(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0, domain.UserActive)

	if _, err := svc.ClaimDailyLogin(ctx, "u1"); err != nil {
		t.Fatalf("day one: %v", err)
	}

	svc.now = func() time.Time {
		return time.Date(2026, 8, 29, 0, 30, 0, 0, time.UTC)
	}
	if _, err := svc.ClaimDailyLogin(ctx, "u1"); err != nil {
		t.Fatalf("day two: %v", err)
	}

	n, _ := db.CountActivities(ctx, "u1", domain.ActivityDailyLogin)
	if n != 2 {
		t.Errorf("daily_login records = %d, want 2", n)
	}
}

// ─── Read Surface Tests ─────────────────────────────────────────────────────

func TestProfile(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0, domain.UserActive)
	if _, err := db.AddPoints(ctx, "u1", 250); err != nil {
		t.Fatal(err)
	}

	p, err := svc.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Level.Level != 3 {
		t.Errorf("level = %d, want 3 (250 points, 100/level)", p.Level.Level)
	}
	if len(p.Badges) != len(DefaultConfig().Badges) {
		t.Errorf("badge states = %d, want full catalog", len(p.Badges))
	}
	// Profile is read-only: speculative evaluation must not persist.
	u, _ := db.GetUser(ctx, "u1")
	if len(u.Badges) != 0 {
		t.Errorf("profile persisted badges %v, want none", u.Badges)
	}
}

func TestResetMonthlyPoints_Audited(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0, domain.UserActive)
	if _, err := db.AddPoints(ctx, "u1", 50); err != nil {
		t.Fatal(err)
	}

	n, err := svc.ResetMonthlyPoints(ctx, "admin")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n != 1 {
		t.Errorf("reset count = %d, want 1", n)
	}

	entries, err := db.RecentAudit(ctx, 10)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(entries) != 1 || entries[0].OperatorID != "admin" {
		t.Errorf("audit entries = %+v, want one by admin", entries)
	}
}
