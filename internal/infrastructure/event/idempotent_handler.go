package event

import (
	"context"
	"sync/atomic"

	"github.com/rentflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyMetrics counts the outcomes of one wrapped handler.
type IdempotencyMetrics struct {
	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

func (m *IdempotencyMetrics) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: m.processed.Load(),
		EventsDuplicate: m.duplicate.Load(),
		EventsFailed:    m.failed.Load(),
	}
}

// IdempotentHandler delivers each logical occurrence to the wrapped handler
// once. Paid and overdue notices both fire from retried reconciliations, so
// events that implement shared.DedupKeyer are keyed on obligation and
// reached status instead of event id.
type IdempotentHandler struct {
	next    shared.EventHandler
	store   shared.IdempotencyStore
	cfg     shared.IdempotencyConfig
	prefix  string
	log     *zap.Logger
	metrics *IdempotencyMetrics
}

type IdempotentHandlerOption func(*IdempotentHandler)

func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.cfg = cfg }
}

func WithIdempotencyMetrics(m *IdempotencyMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.metrics = m }
}

// WithKeyPrefix lets the notifier and the receipt writer share a store
// without claiming each other's keys.
func WithKeyPrefix(prefix string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.prefix = prefix }
}

func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, log *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		next:    next,
		store:   store,
		cfg:     shared.DefaultIdempotencyConfig(),
		log:     log,
		metrics: &IdempotencyMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string { return h.next.EventTypes() }

// Key is the store key claimed for ev.
func (h *IdempotentHandler) Key(ev shared.DomainEvent) string {
	key := ev.EventID().String()
	if k, ok := ev.(shared.DedupKeyer); ok {
		if dk := k.DedupKey(); dk != "" {
			key = dk
		}
	}
	if h.prefix == "" {
		return key
	}
	return h.prefix + ":" + key
}

// Handle claims the key, then delegates. A store outage lets the event
// through; a handler failure releases the claim for the next delivery.
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if !h.cfg.Enabled {
		return h.next.Handle(ctx, ev)
	}
	key := h.Key(ev)
	fields := []zap.Field{zap.String("key", key), zap.String("event_type", ev.EventType())}

	fresh, err := h.store.MarkProcessed(ctx, key, h.cfg.TTL)
	if err != nil {
		h.log.Warn("idempotency store unavailable, delivering anyway", append(fields, zap.Error(err))...)
	} else if !fresh {
		h.metrics.duplicate.Add(1)
		h.log.Debug("duplicate event skipped", fields...)
		return nil
	}

	if err := h.next.Handle(ctx, ev); err != nil {
		h.metrics.failed.Add(1)
		if uerr := h.store.Unmark(ctx, key); uerr != nil {
			h.log.Warn("idempotency key not released", append(fields, zap.Error(uerr))...)
		}
		return err
	}
	h.metrics.processed.Add(1)
	return nil
}

func (h *IdempotentHandler) GetMetrics() *IdempotencyMetrics { return h.metrics }

var _ shared.EventHandler = (*IdempotentHandler)(nil)
