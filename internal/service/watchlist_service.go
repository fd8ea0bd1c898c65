package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaharia-lab/stockbell/internal/shop"
)

// WatchlistStore is the persisted watchlist.
type WatchlistStore interface {
	Get(ctx context.Context) []string
	Toggle(ctx context.Context, name string) ([]string, error)
	Set(ctx context.Context, names []string) ([]string, error)
	Clear(ctx context.Context) error
}

// Acknowledger marks the current report as processed without alerting.
type Acknowledger interface {
	Acknowledge(ctx context.Context) (*shop.Snapshot, error)
}

// Kicker asks the poll loop for a prompt check.
type Kicker interface {
	Trigger()
}

// WatchlistService edits the watchlist and signals the engine to
// re-evaluate after every change.
type WatchlistService interface {
	List(ctx context.Context) []string
	Toggle(ctx context.Context, name string) ([]string, error)
	Replace(ctx context.Context, names []string) ([]string, error)
	Clear(ctx context.Context) error
	// Acknowledge records the current snapshot so its items do not alert.
	Acknowledge(ctx context.Context) (*shop.Snapshot, error)
}

type watchlistServiceImpl struct {
	store  WatchlistStore
	ack    Acknowledger
	kicker Kicker
	logger *slog.Logger
}

// NewWatchlistService creates a new WatchlistService. ack and kicker may be
// nil when no engine runs in this process.
func NewWatchlistService(store WatchlistStore, ack Acknowledger, kicker Kicker, logger *slog.Logger) WatchlistService {
	return &watchlistServiceImpl{store: store, ack: ack, kicker: kicker, logger: logger}
}

func (s *watchlistServiceImpl) List(ctx context.Context) []string {
	return s.store.Get(ctx)
}

func (s *watchlistServiceImpl) Toggle(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "item name is required"}
	}

	names, err := s.store.Toggle(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("toggling %q: %w", name, err)
	}
	s.logger.Info("watchlist toggled", "item", name, "size", len(names))
	s.kick()
	return names, nil
}

func (s *watchlistServiceImpl) Replace(ctx context.Context, names []string) ([]string, error) {
	if names == nil {
		return nil, &ValidationError{Field: "items", Message: "items is required"}
	}

	saved, err := s.store.Set(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("saving watchlist: %w", err)
	}
	s.logger.Info("watchlist replaced", "size", len(saved))
	s.kick()
	return saved, nil
}

func (s *watchlistServiceImpl) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing watchlist: %w", err)
	}
	s.logger.Info("watchlist cleared")
	return nil
}

func (s *watchlistServiceImpl) Acknowledge(ctx context.Context) (*shop.Snapshot, error) {
	if s.ack == nil {
		return nil, fmt.Errorf("acknowledge: no engine running")
	}
	return s.ack.Acknowledge(ctx)
}

func (s *watchlistServiceImpl) kick() {
	if s.kicker != nil {
		s.kicker.Trigger()
	}
}
