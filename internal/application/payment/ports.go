// Package payment runs the payment lifecycle: initiating gateway
// transactions, reconciling gateway callbacks and sweeping overdue
// obligations and stale transactions.
package payment

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
)

// GatewayRegistry resolves the client for a rail
type GatewayRegistry interface {
	Client(rail payment.Rail) (payment.GatewayClient, error)
}

// Metrics receives business counters. Labels are low-cardinality strings.
type Metrics interface {
	RecordInitiate(ctx context.Context, rail payment.Rail, result string)
	RecordReconciliation(ctx context.Context, rail payment.Rail, result string)
	RecordOverdue(ctx context.Context, transitioned, skipped int)
	RecordExpired(ctx context.Context, expired int)
}

type nopMetrics struct{}

func (nopMetrics) RecordInitiate(context.Context, payment.Rail, string)       {}
func (nopMetrics) RecordReconciliation(context.Context, payment.Rail, string) {}
func (nopMetrics) RecordOverdue(context.Context, int, int)                    {}
func (nopMetrics) RecordExpired(context.Context, int)                         {}

// PolicyStore holds the fee policy in effect. It is swapped whole when the
// configuration file changes.
type PolicyStore struct {
	current atomic.Pointer[obligation.FeePolicy]
}

// NewPolicyStore creates a store holding p
func NewPolicyStore(p obligation.FeePolicy) *PolicyStore {
	s := &PolicyStore{}
	s.current.Store(&p)
	return s
}

// Load returns the policy in effect
func (s *PolicyStore) Load() obligation.FeePolicy {
	return *s.current.Load()
}

// Store validates and installs p. An invalid policy leaves the old one in place.
func (s *PolicyStore) Store(p obligation.FeePolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.current.Store(&p)
	return nil
}

// Clock returns the current time; tests pin it
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// publishAfterCommit hands events to the publisher once the unit of work has
// committed. Delivery failures are logged by the caller, never rolled back.
func publishAfterCommit(ctx context.Context, pub shared.EventPublisher, events []shared.DomainEvent) error {
	if pub == nil || len(events) == 0 {
		return nil
	}
	return pub.Publish(ctx, events...)
}
