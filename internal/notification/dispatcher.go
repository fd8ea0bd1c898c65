package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaharia-lab/stockbell/internal/metrics"
	"github.com/shaharia-lab/stockbell/internal/storage"
)

const sendTimeout = 30 * time.Second

// Dispatcher delivers one alert to every sink and records each attempt in
// the notification log. It satisfies the engine's alert sink contract.
type Dispatcher struct {
	sinks   []Sink
	store   storage.NotificationStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher. store and m may be nil.
func NewDispatcher(store storage.NotificationStore, m *metrics.Metrics, logger *slog.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, store: store, metrics: m, logger: logger}
}

// Ready reports whether at least one sink can deliver.
func (d *Dispatcher) Ready() bool {
	for _, s := range d.sinks {
		if s.Ready() {
			return true
		}
	}
	return false
}

// Send delivers alert to every sink. It returns ErrSinkNotReady when no
// sink was ready, and the joined delivery errors when none succeeded.
func (d *Dispatcher) Send(ctx context.Context, alert Alert) error {
	var (
		sent, refused int
		errs          []error
	)

	for _, s := range d.sinks {
		entry := storage.NotificationLogEntry{
			ReportID:  alert.ReportID,
			Sink:      s.Name(),
			Items:     alert.Items,
			Subject:   alert.Subject(),
			Status:    storage.StatusSent,
			CreatedAt: time.Now().UTC(),
		}

		err := d.deliver(ctx, s, alert)
		switch {
		case errors.Is(err, ErrSinkNotReady):
			refused++
			entry.Status = storage.StatusRefused
			entry.ErrorMsg = err.Error()
			d.logger.Info("alert sink not ready", "sink", s.Name(), "report_id", alert.ReportID)
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			entry.Status = storage.StatusFailed
			entry.ErrorMsg = err.Error()
			d.logger.Warn("alert delivery failed", "sink", s.Name(), "report_id", alert.ReportID, "error", err)
		default:
			sent++
			d.logger.Info("alert delivered", "sink", s.Name(), "report_id", alert.ReportID, "items", alert.Items)
		}

		d.metrics.Delivery(ctx, s.Name(), entry.Status)
		d.record(ctx, entry)
	}

	switch {
	case sent > 0:
		return nil
	case len(errs) > 0:
		return errors.Join(errs...)
	default:
		return ErrSinkNotReady
	}
}

func (d *Dispatcher) deliver(ctx context.Context, s Sink, alert Alert) error {
	if !s.Ready() {
		return ErrSinkNotReady
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return s.Send(ctx, alert)
}

func (d *Dispatcher) record(ctx context.Context, entry storage.NotificationLogEntry) {
	if d.store == nil {
		return
	}
	if err := d.store.LogNotification(ctx, entry); err != nil {
		d.metrics.StorageError(ctx, "notification_log.insert")
		d.logger.Warn("failed to log alert delivery", "sink", entry.Sink, "report_id", entry.ReportID, "error", err)
	}
}
