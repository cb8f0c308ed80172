package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rentflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusFull is returned by an asynchronous bus whose queue is saturated
var ErrBusFull = errors.New("event bus queue is full")

// InMemoryEventBus implements shared.EventBus with in-process pub/sub.
// Publish is synchronous by default. WithAsync moves dispatch to a single
// worker goroutine so that callers returning from a committed transaction
// are not held up by slow sinks.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool

	// mu guards queue closing against concurrent enqueues
	mu    sync.RWMutex
	queue chan envelope
	wg    sync.WaitGroup
}

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// BusOption configures an InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithAsync dispatches events from a buffered queue of the given size
func WithAsync(queueSize int) BusOption {
	return func(b *InMemoryEventBus) {
		if queueSize < 1 {
			queueSize = 1
		}
		b.queue = make(chan envelope, queueSize)
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event_bus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers events to every registered handler. Handler failures are
// logged and never propagate to the publisher.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	if b.queue == nil || !b.running.Load() {
		b.mu.RUnlock()
		for _, ev := range events {
			b.dispatch(ctx, ev)
		}
		return nil
	}
	defer b.mu.RUnlock()

	// Detach from request cancellation; the worker outlives the request.
	detached := context.WithoutCancel(ctx)
	for _, ev := range events {
		select {
		case b.queue <- envelope{ctx: detached, event: ev}:
		default:
			b.logger.Error("dropping event, queue full",
				zap.String("event_type", ev.EventType()),
				zap.String("event_id", ev.EventID().String()))
			return ErrBusFull
		}
	}
	return nil
}

// Subscribe registers a handler, defaulting to the handler's own event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the dispatch worker when the bus is asynchronous
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	b.mu.RLock()
	queue := b.queue
	b.mu.RUnlock()
	if queue != nil {
		b.wg.Add(1)
		go b.worker(queue)
	}
	b.logger.Info("event bus started", zap.Bool("async", queue != nil))
	return nil
}

// Stop drains queued events and waits for the worker, bounded by ctx
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running.CompareAndSwap(true, false) || b.queue == nil {
		b.mu.Unlock()
		return nil
	}
	close(b.queue)
	// a stopped bus delivers synchronously
	b.queue = nil
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) worker(queue <-chan envelope) {
	defer b.wg.Done()
	for env := range queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, ev shared.DomainEvent) {
	for _, handler := range b.registry.GetHandlers(ev.EventType()) {
		if err := b.safeHandle(ctx, handler, ev); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", ev.EventType()),
				zap.String("event_id", ev.EventID().String()),
				zap.String("aggregate_id", ev.AggregateID().String()),
				zap.Error(err))
		}
	}
}

func (b *InMemoryEventBus) safeHandle(ctx context.Context, handler shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", ev.EventType()),
				zap.Any("panic", r))
		}
	}()
	return handler.Handle(ctx, ev)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
