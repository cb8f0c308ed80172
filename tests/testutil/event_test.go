package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventHandler(t *testing.T) {
	handler := NewMockEventHandler("ObligationPaid", "ObligationOverdue")
	assert.Equal(t, []string{"ObligationPaid", "ObligationOverdue"}, handler.EventTypes())
	assert.Zero(t, handler.HandledCount())

	paid := NewTestEvent("ObligationPaid", uuid.New())
	require.NoError(t, handler.Handle(context.Background(), paid))
	require.NoError(t, handler.Handle(context.Background(), NewTestEvent("ObligationOverdue", uuid.New())))
	require.NoError(t, handler.Handle(context.Background(), NewTestEvent("ObligationPaid", uuid.New())))

	assert.Equal(t, 3, handler.HandledCount())
	assert.Equal(t, 2, handler.CountOf("ObligationPaid"))
	assert.Same(t, paid, handler.Handled()[0])
}

func TestMockEventHandler_SetErrorAndReset(t *testing.T) {
	handler := NewMockEventHandler()
	handler.SetError(assert.AnError)

	err := handler.Handle(context.Background(), NewTestEvent("ObligationPaid", uuid.New()))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, handler.HandledCount())

	handler.Reset()
	assert.Zero(t, handler.HandledCount())
	assert.NoError(t, handler.Handle(context.Background(), NewTestEvent("ObligationPaid", uuid.New())))
}

func TestNewTestEvent(t *testing.T) {
	aggregateID := uuid.New()
	ev := NewTestEvent("ObligationPaid", aggregateID)

	assert.NotEqual(t, uuid.Nil, ev.EventID())
	assert.Equal(t, "ObligationPaid", ev.EventType())
	assert.Equal(t, aggregateID, ev.AggregateID())
	assert.Equal(t, "TestAggregate", ev.AggregateType())
	assert.WithinDuration(t, time.Now(), ev.OccurredAt(), time.Second)
}

func TestNewTestEventWithID(t *testing.T) {
	eventID := uuid.New()
	first := NewTestEventWithID(eventID, "ObligationPaid", uuid.New())
	redelivered := NewTestEventWithID(eventID, "ObligationPaid", first.AggregateID())

	assert.Equal(t, eventID, first.EventID())
	assert.Equal(t, first.EventID(), redelivered.EventID())
}
