package domain

import "time"

// ─── Activity Types ─────────────────────────────────────────────────────────

// ActivityType is the enumeration of point-earning actions.
type ActivityType string

const (
	ActivitySignup           ActivityType = "signup"
	ActivityJoinEvent        ActivityType = "join_event"
	ActivityCreateEvent      ActivityType = "create_event"
	ActivityCompleteEvent    ActivityType = "complete_event"
	ActivityDailyLogin       ActivityType = "daily_login"
	ActivityShareEvent       ActivityType = "share_event"
	ActivityReferUser        ActivityType = "refer_user"
	ActivityCommunityService ActivityType = "community_service"
	ActivityLevelUp          ActivityType = "level_up"
)

// Bonus keys in the point table. These are not awardable activity types;
// they name the bonus values layered on top of base awards.
const (
	BonusFirstEvent ActivityType = "first_event_bonus"
	BonusLevelUp    ActivityType = "level_up_bonus"
)

// Valid reports whether t is an awardable activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivitySignup, ActivityJoinEvent, ActivityCreateEvent,
		ActivityCompleteEvent, ActivityDailyLogin, ActivityShareEvent,
		ActivityReferUser, ActivityCommunityService, ActivityLevelUp:
		return true
	}
	return false
}

// PointTable maps activity types (and bonus keys) to base point values.
// This is configuration, not business logic — deployments override it.
type PointTable map[ActivityType]int64

// DefaultPointTable returns the stock E-SERBISYO point values.
func DefaultPointTable() PointTable {
	return PointTable{
		ActivitySignup:           10,
		ActivityJoinEvent:        15,
		ActivityCreateEvent:      25,
		ActivityCompleteEvent:    30,
		ActivityDailyLogin:       5,
		ActivityShareEvent:       10,
		ActivityReferUser:        50,
		ActivityCommunityService: 40,
		ActivityLevelUp:          0, // the level_up record itself carries only the bonus
		BonusFirstEvent:          20,
		BonusLevelUp:             50,
	}
}

// ─── Activity Records ───────────────────────────────────────────────────────

// MetaDate is the metadata key holding the canonical claim date
// (YYYY-MM-DD) for daily_login records.
const MetaDate = "date"

// Common metadata keys attached by callers for audit context.
const (
	MetaEventID    = "event_id"
	MetaEventTitle = "event_title"
	MetaOperatorID = "operator_id"
)

// ActivityRecord is an immutable audit-trail entry for one point-earning
// action. Created exactly once per qualifying action, never mutated.
type ActivityRecord struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	Type         ActivityType      `json:"type"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	BasePoints   int64             `json:"base_points"`
	BonusPoints  int64             `json:"bonus_points"`
	BonusMessage string            `json:"bonus_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// TotalPoints is the full credit the record represents.
func (r ActivityRecord) TotalPoints() int64 {
	return r.BasePoints + r.BonusPoints
}
