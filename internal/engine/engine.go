// Package engine decides when a stock report warrants an alert. It owns
// the check protocol: detect a new report, skip reports already in the
// history, match against the watchlist, record, then alert.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaharia-lab/stockbell/internal/metrics"
	"github.com/shaharia-lab/stockbell/internal/notification"
	"github.com/shaharia-lab/stockbell/internal/shop"
)

const tracerName = "github.com/shaharia-lab/stockbell/internal/engine"

// ErrCheckInProgress is returned by Acknowledge while a check is running.
var ErrCheckInProgress = errors.New("check in progress")

// Source yields the current stock snapshot.
type Source interface {
	Fetch(ctx context.Context) (*shop.Snapshot, error)
}

// HistoryStore is the bounded set of processed report ids. Has must treat
// unreadable storage as absent.
type HistoryStore interface {
	Has(ctx context.Context, id string) bool
	Add(ctx context.Context, id string) error
}

// WatchlistStore returns the watchlist, read fresh on every call.
type WatchlistStore interface {
	Get(ctx context.Context) []string
}

// AlertSink receives alerts for matched items.
type AlertSink interface {
	Ready() bool
	Send(ctx context.Context, alert notification.Alert) error
}

// Publisher shares freshly fetched snapshots with other execution contexts.
type Publisher interface {
	Publish(ctx context.Context, snap *shop.Snapshot) error
}

// Config holds the engine's collaborators. Publisher, Metrics and Logger are
// optional.
type Config struct {
	Source    Source
	History   HistoryStore
	Watchlist WatchlistStore
	Sink      AlertSink
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Outcome describes one finished check.
type Outcome struct {
	Result     string    `json:"result"`
	ReportID   string    `json:"report_id,omitempty"`
	Matches    []string  `json:"matches,omitempty"`
	NextUpdate time.Time `json:"next_update,omitempty"`
}

// Engine runs checks for one execution context. Only one check runs at a
// time; overlapping calls return immediately with metrics.ResultSkipped.
type Engine struct {
	source    Source
	history   HistoryStore
	watchlist WatchlistStore
	sink      AlertSink
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer

	inFlight atomic.Bool

	mu              sync.Mutex
	checking        bool
	lastProcessedID string
	lastCheckAt     time.Time
	lastError       string
	lastAlert       *notification.Alert
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:          cfg.Source,
		history:         cfg.History,
		watchlist:       cfg.Watchlist,
		sink:            cfg.Sink,
		publisher:       cfg.Publisher,
		metrics:         cfg.Metrics,
		logger:          logger,
		tracer:          otel.Tracer(tracerName),
		lastProcessedID: NoneID,
	}
}

// RunCheck fetches the current snapshot and processes it. A fetch failure or
// malformed snapshot is returned as an error and leaves the engine state
// untouched; every other problem is logged and degraded.
func (e *Engine) RunCheck(ctx context.Context) (Outcome, error) {
	return e.run(ctx, "engine.check", nil)
}

// Accept processes a snapshot pushed by another execution context instead
// of fetching one.
func (e *Engine) Accept(ctx context.Context, snap *shop.Snapshot) (Outcome, error) {
	if snap == nil {
		return Outcome{Result: metrics.ResultFailed}, shop.ErrMalformedSnapshot
	}
	return e.run(ctx, "engine.accept", snap)
}

func (e *Engine) run(ctx context.Context, spanName string, pushed *shop.Snapshot) (Outcome, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.metrics.CheckDone(ctx, metrics.ResultSkipped, 0)
		return Outcome{Result: metrics.ResultSkipped}, nil
	}
	defer e.inFlight.Store(false)

	ctx, span := e.tracer.Start(ctx, spanName)
	defer span.End()

	start := time.Now()
	e.setChecking(true)
	defer e.setChecking(false)

	out, err := e.check(ctx, pushed)

	e.metrics.CheckDone(ctx, out.Result, time.Since(start))
	span.SetAttributes(
		attribute.String("stockbell.result", out.Result),
		attribute.String("stockbell.report_id", out.ReportID),
		attribute.Int("stockbell.matches", len(out.Matches)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	e.finish(start, err)
	return out, err
}

func (e *Engine) check(ctx context.Context, pushed *shop.Snapshot) (Outcome, error) {
	snap := pushed
	if snap == nil {
		fetched, err := e.source.Fetch(ctx)
		if err != nil {
			e.logger.Warn("fetching stock snapshot", "error", err)
			return Outcome{Result: metrics.ResultFailed}, fmt.Errorf("fetching snapshot: %w", err)
		}
		snap = fetched
	}
	if err := snap.Validate(); err != nil {
		e.logger.Warn("discarding stock snapshot", "error", err)
		return Outcome{Result: metrics.ResultFailed}, err
	}

	id := snap.ID()
	out := Outcome{ReportID: id, NextUpdate: snap.NextUpdate()}

	if !IsNew(snap, e.LastProcessedID()) {
		out.Result = metrics.ResultUnchanged
		return out, nil
	}
	e.setLastProcessed(id)

	// Other contexts see the snapshot only after it is recorded here.
	if pushed == nil {
		defer e.publish(ctx, snap)
	}

	if e.history.Has(ctx, id) {
		e.logger.Debug("report already processed", "report_id", id)
		out.Result = metrics.ResultDuplicate
		return out, nil
	}

	watchlist := e.watchlist.Get(ctx)
	if len(watchlist) == 0 {
		e.record(ctx, id)
		out.Result = metrics.ResultNoWatchlist
		return out, nil
	}

	out.Matches = Matches(snap, watchlist)
	e.record(ctx, id)

	if len(out.Matches) == 0 {
		out.Result = metrics.ResultNoMatch
		return out, nil
	}

	out.Result = e.alert(ctx, snap, out.Matches)
	return out, nil
}

// Acknowledge marks the current report as processed without alerting. It
// shares the in-flight guard with checks and returns ErrCheckInProgress
// instead of waiting.
func (e *Engine) Acknowledge(ctx context.Context) (*shop.Snapshot, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCheckInProgress
	}
	defer e.inFlight.Store(false)

	ctx, span := e.tracer.Start(ctx, "engine.acknowledge")
	defer span.End()

	snap, err := e.source.Fetch(ctx)
	if err == nil {
		err = snap.Validate()
	} else {
		err = fmt.Errorf("fetching snapshot: %w", err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	id := snap.ID()
	if err := e.history.Add(ctx, id); err != nil {
		span.RecordError(err)
		e.metrics.StorageError(ctx, "history.add")
		return nil, fmt.Errorf("recording report %s: %w", id, err)
	}
	e.setLastProcessed(id)
	span.SetAttributes(attribute.String("stockbell.report_id", id))
	e.logger.Info("report acknowledged", "report_id", id)
	return snap, nil
}

// HandleSnapshot is a coordinator handler: it processes a snapshot pushed
// by another context and logs a rejection.
func (e *Engine) HandleSnapshot(ctx context.Context, snap *shop.Snapshot) {
	e.metrics.CoordinatorMessage(ctx, "received")
	if _, err := e.Accept(ctx, snap); err != nil {
		e.logger.Warn("rejected pushed snapshot", "error", err)
	}
}

func (e *Engine) alert(ctx context.Context, snap *shop.Snapshot, matches []string) string {
	a := notification.Alert{
		ReportID:   snap.ID(),
		ReportedAt: time.UnixMilli(snap.ReportedAt),
		Items:      matches,
	}
	e.metrics.AlertRaised(ctx, len(matches))

	err := e.sink.Send(ctx, a)
	switch {
	case errors.Is(err, notification.ErrSinkNotReady):
		e.logger.Info("alert sink not ready, alert dropped", "report_id", a.ReportID, "items", matches)
		return metrics.ResultRefused
	case err != nil:
		e.logger.Warn("delivering alert", "report_id", a.ReportID, "error", err)
		return metrics.ResultAlertFailed
	default:
		e.logger.Info("alert delivered", "report_id", a.ReportID, "items", matches)
	}

	e.mu.Lock()
	e.lastAlert = &a
	e.mu.Unlock()
	return metrics.ResultAlerted
}

// record adds id to the history. Failures are logged; the engine keeps
// going.
func (e *Engine) record(ctx context.Context, id string) {
	if err := e.history.Add(ctx, id); err != nil {
		e.metrics.StorageError(ctx, "history.add")
		e.logger.Warn("recording report in history", "report_id", id, "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, snap *shop.Snapshot) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, snap); err != nil {
		e.logger.Warn("publishing snapshot", "report_id", snap.ID(), "error", err)
		return
	}
	e.metrics.CoordinatorMessage(ctx, "published")
}

// LastProcessedID returns the id of the last report that passed change
// detection, or NoneID.
func (e *Engine) LastProcessedID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastProcessedID
}

func (e *Engine) setLastProcessed(id string) {
	e.mu.Lock()
	e.lastProcessedID = id
	e.mu.Unlock()
}

func (e *Engine) setChecking(v bool) {
	e.mu.Lock()
	e.checking = v
	e.mu.Unlock()
}

func (e *Engine) finish(at time.Time, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastCheckAt = at
	e.lastError = ""
	if err != nil {
		e.lastError = err.Error()
	}
}
