package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceptionService_ListAndResolve(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := NewExceptionService(h.uow, h.exceptions, h.transactions, nil)
	svc.now = h.clock.Now

	for _, id := range []string{"gw-a", "gw-b", "gw-c"} {
		_, err := h.reconciler.Reconcile(ctx, h.callback(payment.RailMobileMoney, id, payment.OutcomeSuccess, "10.00"))
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, payment.ExceptionFilter{Filter: shared.Filter{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	resolved, err := svc.Resolve(ctx, page.Items[0].ID, "matched to bank statement")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "matched to bank statement", resolved.ResolutionNote)

	open, err := svc.List(ctx, payment.ExceptionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), open.Total)

	all, err := svc.List(ctx, payment.ExceptionFilter{IncludeResolved: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)

	_, err = svc.Resolve(ctx, resolved.ID, "again")
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestExceptionService_ResolvedOrphanCanReopen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := NewExceptionService(h.uow, h.exceptions, h.transactions, nil)
	cb := h.callback(payment.RailCard, "gw-late", payment.OutcomeFailed, "0")

	_, err := h.reconciler.Reconcile(ctx, cb)
	require.NoError(t, err)
	page, err := svc.List(ctx, payment.ExceptionFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	_, err = svc.Resolve(ctx, page.Items[0].ID, "ignored")
	require.NoError(t, err)

	_, err = h.reconciler.Reconcile(ctx, cb)
	require.NoError(t, err)
	all, err := svc.List(ctx, payment.ExceptionFilter{IncludeResolved: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func TestExceptionService_ResolveUnknown(t *testing.T) {
	h := newHarness(t)
	svc := NewExceptionService(h.uow, h.exceptions, h.transactions, nil)

	_, err := svc.Resolve(context.Background(), uuid.New(), "note")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
