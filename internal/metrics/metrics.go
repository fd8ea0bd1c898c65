// Package metrics defines the OpenTelemetry instruments stockbell records.
// They are exported through the Prometheus registry served on /metrics and,
// when configured, over OTLP.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/shaharia-lab/stockbell"

// Check outcomes.
const (
	ResultSkipped     = "skipped"
	ResultFailed      = "failed"
	ResultUnchanged   = "unchanged"
	ResultDuplicate   = "duplicate"
	ResultNoWatchlist = "no_watchlist"
	ResultNoMatch     = "no_match"
	ResultAlerted     = "alerted"
	ResultRefused     = "sink_refused"
	ResultAlertFailed = "alert_failed"
)

// Metrics groups the instruments. A nil *Metrics records nothing.
type Metrics struct {
	checks        metric.Int64Counter
	checkDuration metric.Float64Histogram
	alerts        metric.Int64Counter
	matchedItems  metric.Int64Counter
	deliveries    metric.Int64Counter
	storageErrors metric.Int64Counter
	coordinator   metric.Int64Counter
}

// New creates the instruments on mp.
func New(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.checks, err = meter.Int64Counter("stockbell.engine.checks",
		metric.WithDescription("Stock checks by outcome.")); err != nil {
		return nil, fmt.Errorf("creating checks counter: %w", err)
	}
	if m.checkDuration, err = meter.Float64Histogram("stockbell.engine.check.duration",
		metric.WithDescription("Duration of stock checks."),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating check duration histogram: %w", err)
	}
	if m.alerts, err = meter.Int64Counter("stockbell.engine.alerts",
		metric.WithDescription("Alerts raised for new snapshots.")); err != nil {
		return nil, fmt.Errorf("creating alerts counter: %w", err)
	}
	if m.matchedItems, err = meter.Int64Counter("stockbell.engine.matched_items",
		metric.WithDescription("Watchlist items found in new snapshots.")); err != nil {
		return nil, fmt.Errorf("creating matched items counter: %w", err)
	}
	if m.deliveries, err = meter.Int64Counter("stockbell.alert.deliveries",
		metric.WithDescription("Alert deliveries by sink and status.")); err != nil {
		return nil, fmt.Errorf("creating deliveries counter: %w", err)
	}
	if m.storageErrors, err = meter.Int64Counter("stockbell.storage.errors",
		metric.WithDescription("Storage failures that were degraded.")); err != nil {
		return nil, fmt.Errorf("creating storage errors counter: %w", err)
	}
	if m.coordinator, err = meter.Int64Counter("stockbell.coordinator.messages",
		metric.WithDescription("Snapshots published to or received from other contexts.")); err != nil {
		return nil, fmt.Errorf("creating coordinator counter: %w", err)
	}
	return m, nil
}

// Noop returns Metrics backed by a no-op provider.
func Noop() *Metrics {
	m, _ := New(noop.NewMeterProvider())
	return m
}

// CheckDone records one finished check.
func (m *Metrics) CheckDone(ctx context.Context, result string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	m.checks.Add(ctx, 1, attrs)
	m.checkDuration.Record(ctx, d.Seconds(), attrs)
}

// AlertRaised records an alert carrying n matched items.
func (m *Metrics) AlertRaised(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.alerts.Add(ctx, 1)
	m.matchedItems.Add(ctx, int64(n))
}

// Delivery records one sink delivery attempt.
func (m *Metrics) Delivery(ctx context.Context, sink, status string) {
	if m == nil {
		return
	}
	m.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sink", sink),
		attribute.String("status", status),
	))
}

// StorageError records a storage failure on op.
func (m *Metrics) StorageError(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.storageErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// CoordinatorMessage records a snapshot crossing the coordinator.
// direction is "published" or "received".
func (m *Metrics) CoordinatorMessage(ctx context.Context, direction string) {
	if m == nil {
		return
	}
	m.coordinator.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", direction)))
}
