// Package history keeps the bounded set of stock report ids that have
// already been processed. It is stored as a JSON array of strings under
// storage.KeyHistory, oldest first.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/shaharia-lab/stockbell/internal/storage"
)

// DefaultLimit is the number of ids kept when no limit is configured.
const DefaultLimit = 50

// Store is a bounded, insertion-ordered id set on top of a KVStore.
// Unreadable or corrupt data reads as empty; it is never an error.
type Store struct {
	kv     storage.KVStore
	limit  int
	logger *slog.Logger

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// New returns a Store keeping at most limit ids.
func New(kv storage.KVStore, limit int, logger *slog.Logger) *Store {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Store{kv: kv, limit: limit, logger: logger}
}

// Limit returns the configured bound.
func (s *Store) Limit() int { return s.limit }

// Has reports whether id was recorded. Storage failures read as false.
func (s *Store) Has(ctx context.Context, id string) bool {
	return slices.Contains(s.load(ctx), id)
}

// Add records id, evicting the oldest entries beyond the limit. Adding an id
// that is already present changes nothing. The write is complete when Add
// returns; a non-nil error means it did not happen.
func (s *Store) Add(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.load(ctx)
	if slices.Contains(ids, id) {
		return nil
	}
	ids = append(ids, id)
	if over := len(ids) - s.limit; over > 0 {
		ids = ids[over:]
	}

	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyHistory, string(raw)); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// List returns the recorded ids, oldest first.
func (s *Store) List(ctx context.Context) []string {
	return s.load(ctx)
}

// Size returns the number of recorded ids.
func (s *Store) Size(ctx context.Context) int {
	return len(s.load(ctx))
}

func (s *Store) load(ctx context.Context) []string {
	raw, err := s.kv.Get(ctx, storage.KeyHistory)
	if errors.Is(err, storage.ErrNotFound) {
		return []string{}
	}
	if err != nil {
		s.logger.Warn("reading notification history, treating as empty", "error", err)
		return []string{}
	}

	ids, err := decode(raw)
	if err != nil {
		s.logger.Warn("corrupt notification history, treating as empty", "error", err)
		return []string{}
	}
	return ids
}

// decode accepts the current string form and the older numeric form.
func decode(raw string) ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err == nil {
		if ids == nil {
			ids = []string{}
		}
		return ids, nil
	}

	var nums []int64
	if err := json.Unmarshal([]byte(raw), &nums); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	ids = make([]string, len(nums))
	for i, n := range nums {
		ids[i] = strconv.FormatInt(n, 10)
	}
	return ids, nil
}
