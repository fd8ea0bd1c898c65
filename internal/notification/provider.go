// Package notification delivers stock alerts. A Dispatcher fans one Alert
// out to every configured Sink (browser websocket hub, email) and
// records each delivery attempt.
package notification

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrSinkNotReady is returned by a Sink that cannot deliver yet, for
// example a browser sink with no unlocked client. It is not fatal.
var ErrSinkNotReady = errors.New("alert sink not ready")

// Alert is raised when a new stock report contains watchlist items.
type Alert struct {
	ReportID   string    `json:"report_id"`
	ReportedAt time.Time `json:"reported_at"`
	Items      []string  `json:"items"`
}

// Subject is the one-line summary used by sinks that need a title.
func (a Alert) Subject() string {
	return "In stock: " + strings.Join(a.Items, ", ")
}

// Sink is a single alert delivery backend.
type Sink interface {
	// Name returns the sink identifier (e.g. "smtp").
	Name() string
	// Ready reports whether Send can currently deliver.
	Ready() bool
	// Send delivers the alert. It returns ErrSinkNotReady when the sink
	// refuses because it is not ready.
	Send(ctx context.Context, alert Alert) error
}
