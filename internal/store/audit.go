package store

import (
	"context"
	"fmt"
	"time"
)

// AuditEntry is one recorded front-desk action. The trail is advisory
// history for disputes and shift handovers; it never drives state.
type AuditEntry struct {
	BookingID int64     `json:"booking_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordAction appends an entry to the audit trail.
func (db *DB) RecordAction(ctx context.Context, e AuditEntry) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (booking_id, action, detail, amount) VALUES (?, ?, ?, ?)`,
		e.BookingID, e.Action, e.Detail, e.Amount)
	if err != nil {
		return fmt.Errorf("record action %s for booking %d: %w", e.Action, e.BookingID, err)
	}
	return nil
}

// RecentActions returns the newest audit entries for a booking.
func (db *DB) RecentActions(ctx context.Context, bookingID int64, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx,
		`SELECT booking_id, action, COALESCE(detail, ''), amount, created_at
		 FROM audit_log WHERE booking_id = ? ORDER BY id DESC LIMIT ?`,
		bookingID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent actions for booking %d: %w", bookingID, err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.BookingID, &e.Action, &e.Detail, &e.Amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
