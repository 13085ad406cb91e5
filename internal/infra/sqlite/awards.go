package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/e-serbisyo/engage/internal/domain"
)

// ─── Event Operations ───────────────────────────────────────────────────────

// UpsertEvent mirrors an event row from the events subsystem. The validator
// only ever reads these.
func (db *DB) UpsertEvent(ctx context.Context, ev domain.EventRecord) error {
	disabled := 0
	if ev.AwardsDisabled {
		disabled = 1
	}
	var deadline any
	if ev.Deadline != nil {
		deadline = encodeTime(*ev.Deadline)
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO events (id, title, status, points, awards_disabled, deadline)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title           = excluded.title,
			status          = excluded.status,
			points          = excluded.points,
			awards_disabled = excluded.awards_disabled,
			deadline        = excluded.deadline
	`, ev.ID, ev.Title, ev.Status, ev.Points, disabled, deadline)
	return err
}

// GetEvent returns the event, or nil if it does not exist.
func (db *DB) GetEvent(ctx context.Context, id string) (*domain.EventRecord, error) {
	var (
		ev       domain.EventRecord
		disabled int
		deadline sql.NullString
	)
	err := db.db.QueryRowContext(ctx, `
		SELECT id, title, status, points, awards_disabled, deadline
		FROM events WHERE id = ?
	`, id).Scan(&ev.ID, &ev.Title, &ev.Status, &ev.Points, &disabled, &deadline)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ev.AwardsDisabled = disabled == 1
	if deadline.Valid {
		t := decodeTime(deadline.String)
		ev.Deadline = &t
	}
	return &ev, nil
}

// ─── Point Award Operations ─────────────────────────────────────────────────

// AppendAward records a completed crediting. The UNIQUE(user_id, event_id)
// constraint enforces the at-most-one-award invariant at the store level.
func (db *DB) AppendAward(ctx context.Context, rec domain.PointAwardRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO point_awards (id, user_id, event_id, operator_id, points, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, rec.EventID, rec.OperatorID, rec.Points, encodeTime(rec.CreatedAt))
	return err
}

// GetAward returns the prior award for (userID, eventID), or nil if none.
func (db *DB) GetAward(ctx context.Context, userID, eventID string) (*domain.PointAwardRecord, error) {
	var (
		rec       domain.PointAwardRecord
		createdAt string
	)
	err := db.db.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, operator_id, points, created_at
		FROM point_awards WHERE user_id = ? AND event_id = ?
	`, userID, eventID).Scan(&rec.ID, &rec.UserID, &rec.EventID, &rec.OperatorID, &rec.Points, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = decodeTime(createdAt)
	return &rec, nil
}
