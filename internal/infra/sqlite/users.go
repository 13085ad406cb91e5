package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/e-serbisyo/engage/internal/domain"
)

// ─── User Operations ────────────────────────────────────────────────────────

// UpsertUser inserts or replaces an account's engagement row. Used by the
// identity-sync path and by tests to seed accounts.
func (db *DB) UpsertUser(ctx context.Context, u domain.UserAccount) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	isAdmin := 0
	if u.Admin {
		isAdmin = 1
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO users (id, name, status, is_admin, points, monthly_points, level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name     = excluded.name,
			status   = excluded.status,
			is_admin = excluded.is_admin
	`, u.ID, u.Name, string(u.Status), isAdmin, u.Points, u.MonthlyPoints, u.Level, encodeTime(u.CreatedAt))
	return err
}

// GetUser fetches an account with its badge set.
func (db *DB) GetUser(ctx context.Context, id string) (*domain.UserAccount, error) {
	var (
		u         domain.UserAccount
		status    string
		isAdmin   int
		createdAt string
	)
	err := db.db.QueryRowContext(ctx, `
		SELECT id, name, status, is_admin, points, monthly_points, level, created_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &status, &isAdmin, &u.Points, &u.MonthlyPoints, &u.Level, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Status = domain.UserStatus(status)
	u.Admin = isAdmin == 1
	u.CreatedAt = decodeTime(createdAt)

	rows, err := db.db.QueryContext(ctx, `
		SELECT badge_id FROM user_badges WHERE user_id = ? ORDER BY unlocked_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var badge string
		if err := rows.Scan(&badge); err != nil {
			return nil, err
		}
		u.Badges = append(u.Badges, badge)
	}
	return &u, rows.Err()
}

// AddPoints atomically increments both point counters server-side — no
// client-side read — so concurrent awards for the same user never lose
// updates. Returns the new all-time total.
func (db *DB) AddPoints(ctx context.Context, id string, delta int64) (int64, error) {
	res, err := db.db.ExecContext(ctx, `
		UPDATE users SET points = points + ?, monthly_points = monthly_points + ?
		WHERE id = ?
	`, delta, delta, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.ErrUserNotFound
	}

	var total int64
	err = db.db.QueryRowContext(ctx, `SELECT points FROM users WHERE id = ?`, id).Scan(&total)
	return total, err
}

// UnionBadges adds badge IDs with add-if-absent semantics. Two concurrent
// evaluations unlocking the same badge produce one row.
func (db *DB) UnionBadges(ctx context.Context, id string, badgeIDs []string) error {
	if len(badgeIDs) == 0 {
		return nil
	}
	now := encodeTime(time.Now())
	for _, badge := range badgeIDs {
		_, err := db.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO user_badges (user_id, badge_id, unlocked_at)
			VALUES (?, ?, ?)
		`, id, badge, now)
		if err != nil {
			return fmt.Errorf("union badge %q: %w", badge, err)
		}
	}
	return nil
}

// SetLevel stores a recomputed cached level.
func (db *DB) SetLevel(ctx context.Context, id string, level int) error {
	_, err := db.db.ExecContext(ctx, `UPDATE users SET level = ? WHERE id = ?`, level, id)
	return err
}

// TopUsers returns accounts ordered by descending all-time points.
func (db *DB) TopUsers(ctx context.Context, limit int) ([]domain.UserAccount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, name, status, is_admin, points, monthly_points, level, created_at
		FROM users ORDER BY points DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserAccount
	for rows.Next() {
		var (
			u         domain.UserAccount
			status    string
			isAdmin   int
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.Name, &status, &isAdmin, &u.Points, &u.MonthlyPoints, &u.Level, &createdAt); err != nil {
			return nil, err
		}
		u.Status = domain.UserStatus(status)
		u.Admin = isAdmin == 1
		u.CreatedAt = decodeTime(createdAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

// ResetMonthlyPoints zeroes every monthly counter. All-time points, levels,
// and badges are untouched.
func (db *DB) ResetMonthlyPoints(ctx context.Context) (int64, error) {
	res, err := db.db.ExecContext(ctx, `UPDATE users SET monthly_points = 0 WHERE monthly_points <> 0`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
