package shared

// BaseAggregateRoot is embedded by obligations, transactions and split
// plans. Version is the optimistic lock column: repositories update
// WHERE version = old and fail with ErrConcurrencyConflict on zero rows.
// Pending events are published only after the surrounding transaction
// commits.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	pending []DomainEvent
}

// NewBaseAggregateRoot starts an aggregate at version 1.
func NewBaseAggregateRoot(entity BaseEntity) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: entity, Version: 1}
}

func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// AddDomainEvent queues event for publication.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns queued events without draining them.
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.pending }

// PullDomainEvents drains the queue.
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	out := a.pending
	a.pending = nil
	return out
}
