package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/e-serbisyo/engage/internal/domain"
)

var _ domain.Store = (*DB)(nil)

// ─── Helpers ────────────────────────────────────────────────────────────────

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, id string, points int64) {
	t.Helper()
	err := db.UpsertUser(context.Background(), domain.UserAccount{
		ID:     id,
		Name:   "Test " + id,
		Status: domain.UserActive,
		Points: points,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

// ─── User Store Tests ───────────────────────────────────────────────────────

func TestGetUser_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetUser(context.Background(), "ghost")
	if err != domain.ErrUserNotFound {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestAddPoints_Atomic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0)

	// 20 concurrent increments of 5 must sum to exactly 100 — the increment
	// happens server-side with no client read, so no update is lost.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.AddPoints(ctx, "u1", 5); err != nil {
				t.Errorf("add points: %v", err)
			}
		}()
	}
	wg.Wait()

	u, err := db.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Points != 100 {
		t.Errorf("points = %d, want 100", u.Points)
	}
	if u.MonthlyPoints != 100 {
		t.Errorf("monthly points = %d, want 100", u.MonthlyPoints)
	}
}

func TestAddPoints_UnknownUser(t *testing.T) {
	db := openTestDB(t)
	_, err := db.AddPoints(context.Background(), "ghost", 10)
	if err != domain.ErrUserNotFound {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestUnionBadges_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0)

	if err := db.UnionBadges(ctx, "u1", []string{"starter", "helper"}); err != nil {
		t.Fatalf("union: %v", err)
	}
	if err := db.UnionBadges(ctx, "u1", []string{"starter"}); err != nil {
		t.Fatalf("union again: %v", err)
	}

	u, err := db.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(u.Badges) != 2 {
		t.Errorf("badges = %v, want 2 distinct entries", u.Badges)
	}
}

func TestResetMonthlyPoints(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", 0)
	seedUser(t, db, "u2", 0)

	if _, err := db.AddPoints(ctx, "u1", 40); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddPoints(ctx, "u2", 15); err != nil {
		t.Fatal(err)
	}

	n, err := db.ResetMonthlyPoints(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n != 2 {
		t.Errorf("reset count = %d, want 2", n)
	}

	u, _ := db.GetUser(ctx, "u1")
	if u.MonthlyPoints != 0 {
		t.Errorf("monthly points = %d, want 0", u.MonthlyPoints)
	}
	if u.Points != 40 {
		t.Errorf("all-time points = %d, want 40 (reset must not touch them)", u.Points)
	}
}

func TestTopUsers_Order(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "low", 10)
	seedUser(t, db, "high", 500)
	seedUser(t, db, "mid", 100)

	top, err := db.TopUsers(ctx, 2)
	if err != nil {
		t.Fatalf("top users: %v", err)
	}
	if len(top) != 2 || top[0].ID != "high" || top[1].ID != "mid" {
		t.Errorf("top users = %+v, want [high mid]", top)
	}
}

// ─── Activity Store Tests ───────────────────────────────────────────────────

func TestActivityAppendAndQuery(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec := domain.ActivityRecord{
		ID:         "a1",
		UserID:     "u1",
		Type:       domain.ActivityJoinEvent,
		Metadata:   map[string]string{domain.MetaEventID: "E1", domain.MetaEventTitle: "Cleanup"},
		BasePoints: 15,
		CreatedAt:  time.Now(),
	}
	if err := db.AppendActivity(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	n, err := db.CountActivities(ctx, "u1", domain.ActivityJoinEvent)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	recent, err := db.RecentActivities(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent = %d records, want 1", len(recent))
	}
	if recent[0].Metadata[domain.MetaEventID] != "E1" {
		t.Errorf("metadata round-trip lost event_id: %+v", recent[0].Metadata)
	}
}

func TestHasDailyClaim(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	claimed, err := db.HasDailyClaim(ctx, "u1", "2026-08-28")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if claimed {
		t.Error("claim should not exist yet")
	}

	rec := domain.ActivityRecord{
		ID:        "a1",
		UserID:    "u1",
		Type:      domain.ActivityDailyLogin,
		Metadata:  map[string]string{domain.MetaDate: "2026-08-28"},
		CreatedAt: time.Now(),
	}
	if err := db.AppendActivity(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	claimed, err = db.HasDailyClaim(ctx, "u1", "2026-08-28")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !claimed {
		t.Error("claim should exist")
	}

	// The partial unique index rejects a second claim for the same date.
	dup := rec
	dup.ID = "a2"
	if err := db.AppendActivity(ctx, dup); err == nil {
		t.Error("second daily claim for the same date should violate the unique index")
	}
}

// ─── Award Store Tests ──────────────────────────────────────────────────────

func TestAwardUniquePerUserEvent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec := domain.PointAwardRecord{
		ID: "aw1", UserID: "u1", EventID: "E1", OperatorID: "admin", Points: 30,
	}
	if err := db.AppendAward(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	dup := rec
	dup.ID = "aw2"
	if err := db.AppendAward(ctx, dup); err == nil {
		t.Error("duplicate (user, event) award should violate the unique constraint")
	}

	got, err := db.GetAward(ctx, "u1", "E1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.OperatorID != "admin" {
		t.Errorf("award = %+v, want operator admin", got)
	}

	none, err := db.GetAward(ctx, "u1", "E2")
	if err != nil {
		t.Fatalf("get none: %v", err)
	}
	if none != nil {
		t.Errorf("award for unawarded event = %+v, want nil", none)
	}
}

// ─── Event Store Tests ──────────────────────────────────────────────────────

func TestEventRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	deadline := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ev := domain.EventRecord{
		ID: "E1", Title: "Coastal Cleanup", Status: domain.EventCompleted,
		Points: 30, Deadline: &deadline,
	}
	if err := db.UpsertEvent(ctx, ev); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.GetEvent(ctx, "E1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "Coastal Cleanup" || got.Points != 30 {
		t.Errorf("event = %+v", got)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("deadline = %v, want %v", got.Deadline, deadline)
	}

	missing, err := db.GetEvent(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing event = %+v, want nil", missing)
	}
}

// ─── Audit Store Tests ──────────────────────────────────────────────────────

func TestAuditRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	entry := domain.AuditEntry{
		ID:         "audit1",
		OperatorID: "admin",
		TargetID:   "u1",
		EventIDs:   []string{"E1", "E2"},
		Authorized: true,
		Issues:     []string{"DuplicateAwardDetected: E2"},
	}
	if err := db.AppendAudit(ctx, entry); err != nil {
		t.Fatalf("append audit: %v", err)
	}
	if err := db.AppendSecurityEvent(ctx, domain.SecurityEvent{
		ID: "sec1", Kind: "DuplicateAwardDetected", Severity: domain.SeverityMedium,
		OperatorID: "admin", Detail: "prior award exists for E2",
	}); err != nil {
		t.Fatalf("append security event: %v", err)
	}

	got, err := db.RecentAudit(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(got))
	}
	if !got[0].Authorized || len(got[0].EventIDs) != 2 || len(got[0].Issues) != 1 {
		t.Errorf("audit entry round-trip mismatch: %+v", got[0])
	}
}
