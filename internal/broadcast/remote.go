package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaharia-lab/stockbell/internal/shop"
)

// relay is the part shared by the remote coordinators: a local Bus for
// in-process subscribers plus an origin id so a process ignores the echo of
// its own messages.
type relay struct {
	origin string
	local  *Bus
	logger *slog.Logger
}

func newRelay(logger *slog.Logger) relay {
	if logger == nil {
		logger = slog.Default()
	}
	return relay{
		origin: uuid.NewString(),
		local:  NewBus(defaultWorkers, logger),
		logger: logger,
	}
}

// encode delivers snap locally and returns the envelope to send remotely.
func (r *relay) encode(ctx context.Context, snap *shop.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, shop.ErrMalformedSnapshot
	}
	if err := r.local.Publish(ctx, snap); err != nil && !errors.Is(err, ErrBufferFull) {
		return nil, err
	}
	data, err := json.Marshal(Message{Origin: r.origin, SentAt: time.Now().UTC(), Snapshot: snap})
	if err != nil {
		return nil, fmt.Errorf("encoding broadcast message: %w", err)
	}
	return data, nil
}

// receive decodes a remote message and hands it to local subscribers.
func (r *relay) receive(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		r.logger.Warn("discarding undecodable broadcast message", "error", err)
		return
	}
	if msg.Origin == r.origin {
		return
	}
	if err := msg.Snapshot.Validate(); err != nil {
		r.logger.Warn("discarding broadcast snapshot", "origin", msg.Origin, "error", err)
		return
	}
	_ = r.local.Publish(context.Background(), msg.Snapshot)
}
