package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KVStore.Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Keys shared with the browser dashboard's localStorage layout.
const (
	KeyWatchlist = "pvbNotifyList"
	KeyHistory   = "pvbNotifiedStocks"
)

// KVStore is a durable string key/value store. Values are opaque to the
// store; callers serialize them. Set must be durable before it returns.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
