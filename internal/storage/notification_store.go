package storage

import (
	"context"
	"time"
)

// Delivery outcomes recorded in the notification log.
const (
	StatusSent    = "sent"
	StatusRefused = "refused"
	StatusFailed  = "failed"
)

// NotificationLogEntry records one alert delivery attempt by one sink.
type NotificationLogEntry struct {
	ID        int64     `json:"id"`
	ReportID  string    `json:"report_id"`
	Sink      string    `json:"sink"`
	Items     []string  `json:"items"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	ErrorMsg  string    `json:"error_msg"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationStore persists alert delivery attempts.
type NotificationStore interface {
	// LogNotification records a delivery attempt.
	LogNotification(ctx context.Context, entry NotificationLogEntry) error
	// ListNotifications returns the most recent entries, newest first.
	ListNotifications(ctx context.Context, limit int) ([]NotificationLogEntry, error)
}
