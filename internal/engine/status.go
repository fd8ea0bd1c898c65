package engine

import (
	"context"
	"time"

	"github.com/shaharia-lab/stockbell/internal/notification"
)

// State is the engine's lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateChecking State = "checking"
)

// Reasons the engine is suppressed.
const (
	ReasonWatchlistEmpty = "watchlist_empty"
	ReasonSinkNotReady   = "sink_not_ready"
)

// Status is a point-in-time view of the engine. Suppressed is true while no
// alert could be produced, because the watchlist is empty or the alert sink
// is not ready. Checks still run while suppressed.
type Status struct {
	State            State               `json:"state"`
	Suppressed       bool                `json:"suppressed"`
	SuppressedReason string              `json:"suppressed_reason,omitempty"`
	LastProcessedID  string              `json:"last_processed_id"`
	LastCheckAt      *time.Time          `json:"last_check_at,omitempty"`
	LastError        string              `json:"last_error,omitempty"`
	LastAlert        *notification.Alert `json:"last_alert,omitempty"`
	WatchlistSize    int                 `json:"watchlist_size"`
	SinkReady        bool                `json:"sink_ready"`
}

// Status reports the current state. The watchlist is read fresh.
func (e *Engine) Status(ctx context.Context) Status {
	watchlistSize := len(e.watchlist.Get(ctx))
	sinkReady := e.sink.Ready()

	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		State:           StateIdle,
		LastProcessedID: e.lastProcessedID,
		LastError:       e.lastError,
		WatchlistSize:   watchlistSize,
		SinkReady:       sinkReady,
	}
	if e.checking {
		st.State = StateChecking
	}
	if !e.lastCheckAt.IsZero() {
		at := e.lastCheckAt
		st.LastCheckAt = &at
	}
	if e.lastAlert != nil {
		a := *e.lastAlert
		st.LastAlert = &a
	}

	switch {
	case watchlistSize == 0:
		st.Suppressed = true
		st.SuppressedReason = ReasonWatchlistEmpty
	case !sinkReady:
		st.Suppressed = true
		st.SuppressedReason = ReasonSinkNotReady
	}
	return st
}
