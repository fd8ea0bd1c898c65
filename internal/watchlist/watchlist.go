// Package watchlist persists the set of item names the user wants alerts
// for. The set is stored as a JSON array under storage.KeyWatchlist and is
// read fresh on every call.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shaharia-lab/stockbell/internal/storage"
)

// Store reads and writes the watchlist. Unreadable data reads as empty.
type Store struct {
	kv     storage.KVStore
	logger *slog.Logger
	mu     sync.Mutex
}

// New returns a Store backed by kv.
func New(kv storage.KVStore, logger *slog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Get returns the watchlist sorted by name. It is empty when unset or
// unreadable.
func (s *Store) Get(ctx context.Context) []string {
	return toSorted(s.load(ctx))
}

// Toggle flips membership of name, persists the result and returns it.
func (s *Store) Toggle(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("item name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.load(ctx)
	if _, ok := set[name]; ok {
		delete(set, name)
	} else {
		set[name] = struct{}{}
	}

	names := toSorted(set)
	if err := s.save(ctx, names); err != nil {
		return nil, err
	}
	return names, nil
}

// Set replaces the watchlist. Blank and duplicate names are dropped.
func (s *Store) Set(ctx context.Context, names []string) ([]string, error) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := toSorted(set)
	if err := s.save(ctx, sorted); err != nil {
		return nil, err
	}
	return sorted, nil
}

// Clear empties the watchlist.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, storage.KeyWatchlist); err != nil {
		return fmt.Errorf("clearing watchlist: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) map[string]struct{} {
	set := make(map[string]struct{})

	raw, err := s.kv.Get(ctx, storage.KeyWatchlist)
	if errors.Is(err, storage.ErrNotFound) {
		return set
	}
	if err != nil {
		s.logger.Warn("reading watchlist, treating as empty", "error", err)
		return set
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		s.logger.Warn("corrupt watchlist, treating as empty", "error", err)
		return set
	}
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (s *Store) save(ctx context.Context, names []string) error {
	raw, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encoding watchlist: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyWatchlist, string(raw)); err != nil {
		return fmt.Errorf("saving watchlist: %w", err)
	}
	return nil
}

func toSorted(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
