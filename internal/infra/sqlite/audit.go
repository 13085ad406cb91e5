package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/e-serbisyo/engage/internal/domain"
)

// ─── Audit Trail Operations ─────────────────────────────────────────────────

// AppendAudit inserts one administrative audit entry.
func (db *DB) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	eventIDs, err := json.Marshal(entry.EventIDs)
	if err != nil {
		return fmt.Errorf("encode event ids: %w", err)
	}
	issues, err := json.Marshal(entry.Issues)
	if err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	authorized := 0
	if entry.Authorized {
		authorized = 1
	}
	_, err = db.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, operator_id, target_id, event_ids, authorized, issues, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.OperatorID, entry.TargetID, string(eventIDs), authorized, string(issues), encodeTime(entry.CreatedAt))
	return err
}

// AppendSecurityEvent inserts one classified security event.
func (db *DB) AppendSecurityEvent(ctx context.Context, ev domain.SecurityEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO security_events (id, kind, severity, operator_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.Kind, string(ev.Severity), ev.OperatorID, ev.Detail, encodeTime(ev.CreatedAt))
	return err
}

// RecentAudit returns the newest audit entries first.
func (db *DB) RecentAudit(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, operator_id, target_id, event_ids, authorized, issues, created_at
		FROM audit_log ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			entry      domain.AuditEntry
			eventIDs   string
			authorized int
			issues     string
			createdAt  string
		)
		if err := rows.Scan(&entry.ID, &entry.OperatorID, &entry.TargetID, &eventIDs, &authorized, &issues, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(eventIDs), &entry.EventIDs); err != nil {
			return nil, fmt.Errorf("decode event ids for %s: %w", entry.ID, err)
		}
		if err := json.Unmarshal([]byte(issues), &entry.Issues); err != nil {
			return nil, fmt.Errorf("decode issues for %s: %w", entry.ID, err)
		}
		entry.Authorized = authorized == 1
		entry.CreatedAt = decodeTime(createdAt)
		out = append(out, entry)
	}
	return out, rows.Err()
}
