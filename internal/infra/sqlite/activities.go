package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/e-serbisyo/engage/internal/domain"
)

// ─── Activity Log Operations ────────────────────────────────────────────────
// The activity log is append-only: rows are inserted once and never updated
// or deleted by the core.

// AppendActivity inserts one immutable activity record. Records of type
// daily_login carry a claim_date; the partial unique index on
// (user_id, claim_date) makes the single-claim-per-day guarantee hold even
// under concurrent claims.
func (db *DB) AppendActivity(ctx context.Context, rec domain.ActivityRecord) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	var claimDate any
	if rec.Type == domain.ActivityDailyLogin {
		if d, ok := rec.Metadata[domain.MetaDate]; ok {
			claimDate = d
		}
	}

	_, err = db.db.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, type, metadata_json, base_points, bonus_points, bonus_message, claim_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, string(rec.Type), string(meta), rec.BasePoints, rec.BonusPoints, rec.BonusMessage, claimDate, encodeTime(rec.CreatedAt))
	return err
}

// CountActivities counts one user's records of a given type.
func (db *DB) CountActivities(ctx context.Context, userID string, t domain.ActivityType) (int64, error) {
	var n int64
	err := db.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activities WHERE user_id = ? AND type = ?
	`, userID, string(t)).Scan(&n)
	return n, err
}

// HasDailyClaim reports whether a daily_login record exists for the
// canonical date (YYYY-MM-DD).
func (db *DB) HasDailyClaim(ctx context.Context, userID, date string) (bool, error) {
	var n int64
	err := db.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activities WHERE user_id = ? AND claim_date = ?
	`, userID, date).Scan(&n)
	return n > 0, err
}

// RecentActivities returns a user's newest records first.
func (db *DB) RecentActivities(ctx context.Context, userID string, limit int) ([]domain.ActivityRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, user_id, type, metadata_json, base_points, bonus_points, bonus_message, created_at
		FROM activities WHERE user_id = ?
		ORDER BY created_at DESC, id LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActivityRecord
	for rows.Next() {
		var (
			rec       domain.ActivityRecord
			typ       string
			meta      string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &typ, &meta, &rec.BasePoints, &rec.BonusPoints, &rec.BonusMessage, &createdAt); err != nil {
			return nil, err
		}
		rec.Type = domain.ActivityType(typ)
		rec.CreatedAt = decodeTime(createdAt)
		if meta != "" && meta != "{}" && meta != "null" {
			if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
