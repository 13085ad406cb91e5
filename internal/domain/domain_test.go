package domain

import "testing"

// ─── Level Curve Tests ──────────────────────────────────────────────────────

func TestLevelForPoints(t *testing.T) {
	tests := []struct {
		points     int64
		wantLevel  int
		wantToNext int64
	}{
		{0, 1, 100},
		{99, 1, 1},
		{100, 2, 100},
		{125, 2, 75},
		{999, 10, 1},
		{1000, 11, 100},
	}

	for _, tt := range tests {
		got := LevelForPoints(tt.points, 100)
		if got.Level != tt.wantLevel {
			t.Errorf("LevelForPoints(%d).Level = %d, want %d", tt.points, got.Level, tt.wantLevel)
		}
		if got.PointsToNext != tt.wantToNext {
			t.Errorf("LevelForPoints(%d).PointsToNext = %d, want %d", tt.points, got.PointsToNext, tt.wantToNext)
		}
	}
}

func TestLevelForPoints_Monotonic(t *testing.T) {
	prev := 0
	for p := int64(0); p <= 2000; p += 7 {
		lvl := LevelForPoints(p, 100).Level
		if lvl < prev {
			t.Fatalf("level decreased: points=%d level=%d prev=%d", p, lvl, prev)
		}
		prev = lvl
	}
}

func TestLevelForPoints_NegativeAndZeroSize(t *testing.T) {
	if got := LevelForPoints(-5, 100); got.Level != 1 {
		t.Errorf("negative points level = %d, want 1", got.Level)
	}
	// Zero levelSize falls back to the default rather than dividing by zero.
	if got := LevelForPoints(250, 0); got.Level != 3 {
		t.Errorf("zero levelSize level = %d, want 3", got.Level)
	}
}

// ─── Badge Evaluation Tests ─────────────────────────────────────────────────

func TestEvaluate_ThresholdUnlock(t *testing.T) {
	catalog := DefaultBadgeCatalog()

	eval := catalog.Evaluate(250, nil)
	wantUnlocked := map[string]bool{"starter": true, "helper": true}
	for _, st := range eval.States {
		if st.Unlocked != wantUnlocked[st.Badge.ID] {
			t.Errorf("badge %q unlocked = %v, want %v", st.Badge.ID, st.Unlocked, wantUnlocked[st.Badge.ID])
		}
	}
	if len(eval.NewlyUnlocked) != 2 {
		t.Errorf("newly unlocked = %d, want 2", len(eval.NewlyUnlocked))
	}
}

func TestEvaluate_OwnedNeverRevoked(t *testing.T) {
	catalog := DefaultBadgeCatalog()

	// Points below every threshold, but "champion" already owned.
	eval := catalog.Evaluate(0, []string{"champion"})
	for _, st := range eval.States {
		if st.Badge.ID == "champion" && !st.Unlocked {
			t.Error("owned badge was revoked by evaluation")
		}
	}
	// Owned badges are never reported as newly unlocked.
	if len(eval.NewlyUnlocked) != 0 {
		t.Errorf("newly unlocked = %d, want 0", len(eval.NewlyUnlocked))
	}
}

func TestEvaluate_Monotonic(t *testing.T) {
	catalog := DefaultBadgeCatalog()

	unlockedAt := func(points int64) map[string]bool {
		set := make(map[string]bool)
		for _, st := range catalog.Evaluate(points, nil).States {
			if st.Unlocked {
				set[st.Badge.ID] = true
			}
		}
		return set
	}

	lo := unlockedAt(500)
	hi := unlockedAt(5000)
	for id := range lo {
		if !hi[id] {
			t.Errorf("badge %q unlocked at 500 points but not at 5000", id)
		}
	}
}

func TestEvaluate_Progress(t *testing.T) {
	catalog := BadgeCatalog{{ID: "b", Threshold: 200}}

	eval := catalog.Evaluate(50, nil)
	if got := eval.States[0].Progress; got != 0.25 {
		t.Errorf("progress = %f, want 0.25", got)
	}

	eval = catalog.Evaluate(400, nil)
	if got := eval.States[0].Progress; got != 1.0 {
		t.Errorf("progress = %f, want 1.0 (clamped)", got)
	}
}

// ─── Activity Type Tests ────────────────────────────────────────────────────

func TestActivityTypeValid(t *testing.T) {
	for _, valid := range []ActivityType{
		ActivitySignup, ActivityJoinEvent, ActivityDailyLogin, ActivityLevelUp,
	} {
		if !valid.Valid() {
			t.Errorf("%q should be valid", valid)
		}
	}
	for _, invalid := range []ActivityType{"", "hack_points", BonusFirstEvent, BonusLevelUp} {
		if invalid.Valid() {
			t.Errorf("%q should be invalid", invalid)
		}
	}
}

func TestDefaultPointTable(t *testing.T) {
	table := DefaultPointTable()
	if table[ActivityJoinEvent] != 15 {
		t.Errorf("join_event = %d, want 15", table[ActivityJoinEvent])
	}
	if table[BonusFirstEvent] != 20 {
		t.Errorf("first_event_bonus = %d, want 20", table[BonusFirstEvent])
	}
	if table[BonusLevelUp] != 50 {
		t.Errorf("level_up_bonus = %d, want 50", table[BonusLevelUp])
	}
}

func TestUserAccountEligible(t *testing.T) {
	tests := []struct {
		status UserStatus
		want   bool
	}{
		{UserActive, true},
		{UserDisabled, false},
		{UserSuspended, false},
		{UserBanned, false},
	}
	for _, tt := range tests {
		u := UserAccount{Status: tt.status}
		if u.Eligible() != tt.want {
			t.Errorf("Eligible(%q) = %v, want %v", tt.status, u.Eligible(), tt.want)
		}
	}
}
