package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

const defaultNotificationLimit = 50

// SQLiteNotificationStore implements NotificationStore backed by SQLite.
type SQLiteNotificationStore struct {
	db *sql.DB
}

// NewSQLiteNotificationStore returns a new SQLiteNotificationStore.
func NewSQLiteNotificationStore(db *sql.DB) *SQLiteNotificationStore {
	return &SQLiteNotificationStore{db: db}
}

// LogNotification inserts a delivery record.
func (s *SQLiteNotificationStore) LogNotification(ctx context.Context, entry NotificationLogEntry) error {
	items := entry.Items
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notification_log (report_id, sink, items, subject, status, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ReportID, entry.Sink, string(raw), entry.Subject,
		entry.Status, entry.ErrorMsg, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting notification log: %w", err)
	}
	return nil
}

// ListNotifications returns the most recent entries ordered newest first.
func (s *SQLiteNotificationStore) ListNotifications(ctx context.Context, limit int) (entries []NotificationLogEntry, err error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_id, sink, items, subject, status, error_msg, created_at
		FROM notification_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notification log: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	entries = []NotificationLogEntry{}
	for rows.Next() {
		var (
			e   NotificationLogEntry
			raw string
		)
		if err := rows.Scan(&e.ID, &e.ReportID, &e.Sink, &raw, &e.Subject,
			&e.Status, &e.ErrorMsg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification log row: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &e.Items); err != nil {
			return nil, fmt.Errorf("decoding items of log entry %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification log rows: %w", err)
	}
	return entries, nil
}
