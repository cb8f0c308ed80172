package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the id and UTC audit stamps every persisted record has.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh id, stamped at now.
func NewBaseEntity(now time.Time) BaseEntity {
	now = now.UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

func (e *BaseEntity) GetID() uuid.UUID { return e.ID }

// Touch records a mutation at now.
func (e *BaseEntity) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
}
