package shop

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMalformedSnapshot is returned when a stock payload lacks the fields the
// notification engine depends on.
var ErrMalformedSnapshot = errors.New("malformed stock snapshot")

// Item is a single shop entry.
type Item struct {
	Name  string `json:"name"`
	Qty   int    `json:"qty"`
	Emoji string `json:"emoji,omitempty"`
}

// Snapshot is one immutable stock report, identified by ReportedAt.
// Two snapshots with the same ReportedAt are treated as the same report.
type Snapshot struct {
	ReportedAt   int64  `json:"reportedAt"`
	NextUpdateAt int64  `json:"nextUpdateAt"`
	Seeds        []Item `json:"seeds"`
	Gear         []Item `json:"gear"`
}

// ID returns the report identifier in its persisted string form.
func (s *Snapshot) ID() string {
	return strconv.FormatInt(s.ReportedAt, 10)
}

// Names returns every stocked item name, seeds first, in payload order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.Seeds)+len(s.Gear))
	for _, it := range s.Seeds {
		names = append(names, it.Name)
	}
	for _, it := range s.Gear {
		names = append(names, it.Name)
	}
	return names
}

// NextUpdate converts NextUpdateAt to a time. The zero time is returned when
// the shop did not report one.
func (s *Snapshot) NextUpdate() time.Time {
	if s.NextUpdateAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.NextUpdateAt)
}

// Validate reports ErrMalformedSnapshot when the report id or both item
// lists are missing. An explicitly empty list is valid.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: empty payload", ErrMalformedSnapshot)
	}
	if s.ReportedAt <= 0 {
		return fmt.Errorf("%w: missing reportedAt", ErrMalformedSnapshot)
	}
	if s.Seeds == nil && s.Gear == nil {
		return fmt.Errorf("%w: missing items", ErrMalformedSnapshot)
	}
	return nil
}

// Weather is the current weather event as reported by the shop.
type Weather struct {
	Active bool   `json:"active"`
	Name   string `json:"name"`
	Start  int64  `json:"start"`
	Now    int64  `json:"now"`
}

// LastSeenItem records when an item was last in stock.
type LastSeenItem struct {
	Name     string `json:"name"`
	LastSeen int64  `json:"lastSeen"`
}

// rawLastSeen is the wire format of the last-seen endpoint.
type rawLastSeen struct {
	UpdatedAt int64            `json:"updatedAt"`
	Items     map[string]int64 `json:"items"`
}

// StatusError is returned when the shop answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shop endpoint %s returned status %d", e.Endpoint, e.StatusCode)
}
