package service

import (
	"context"
	"time"

	"github.com/shaharia-lab/stockbell/internal/engine"
	"github.com/shaharia-lab/stockbell/internal/storage"
)

// Engine is the subset of *engine.Engine the monitor reports on.
type Engine interface {
	RunCheck(ctx context.Context) (engine.Outcome, error)
	Status(ctx context.Context) engine.Status
}

// NextRunner reports when the poll loop runs next.
type NextRunner interface {
	NextRun() time.Time
}

// HistoryLister lists processed report ids, oldest first.
type HistoryLister interface {
	List(ctx context.Context) []string
}

// EngineStatus is the engine status plus the next scheduled check.
type EngineStatus struct {
	engine.Status
	NextCheckAt *time.Time `json:"next_check_at,omitempty"`
}

// MonitorService exposes engine state, the history and the alert log.
type MonitorService interface {
	Status(ctx context.Context) EngineStatus
	// Check runs a check now and returns its outcome.
	Check(ctx context.Context) (engine.Outcome, error)
	History(ctx context.Context) []string
	// ListLog returns the most recent alert deliveries.
	ListLog(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error)
}

type monitorServiceImpl struct {
	engine  Engine
	next    NextRunner
	history HistoryLister
	store   storage.NotificationStore
}

// NewMonitorService creates a new MonitorService. next may be nil.
func NewMonitorService(e Engine, next NextRunner, history HistoryLister, store storage.NotificationStore) MonitorService {
	return &monitorServiceImpl{engine: e, next: next, history: history, store: store}
}

func (s *monitorServiceImpl) Status(ctx context.Context) EngineStatus {
	st := EngineStatus{Status: s.engine.Status(ctx)}
	if s.next != nil {
		if at := s.next.NextRun(); !at.IsZero() {
			st.NextCheckAt = &at
		}
	}
	return st
}

func (s *monitorServiceImpl) Check(ctx context.Context) (engine.Outcome, error) {
	out, err := s.engine.RunCheck(ctx)
	if err != nil {
		return out, &UpstreamError{Op: "check", Err: err}
	}
	return out, nil
}

func (s *monitorServiceImpl) History(ctx context.Context) []string {
	return s.history.List(ctx)
}

func (s *monitorServiceImpl) ListLog(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error) {
	if s.store == nil {
		return []storage.NotificationLogEntry{}, nil
	}
	return s.store.ListNotifications(ctx, limit)
}
