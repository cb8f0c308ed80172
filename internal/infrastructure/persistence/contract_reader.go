package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/contract"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormContractReader implements contract.Reader over the rental_contracts read model
type GormContractReader struct {
	db *gorm.DB
}

// NewGormContractReader creates a new GormContractReader
func NewGormContractReader(db *gorm.DB) *GormContractReader {
	return &GormContractReader{db: db}
}

// GetContract finds a contract by ID
func (r *GormContractReader) GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	var model models.ContractModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "contract", id)
	}
	return model.ToDomain(), nil
}

// ListByOwner returns the contracts of one owner
func (r *GormContractReader) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]contract.Contract, error) {
	var rows []models.ContractModel
	if err := conn(ctx, r.db).Where("owner_id = ?", ownerID).Order("start_date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]contract.Contract, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Upsert writes a replicated contract row. Used by the replication job and
// by fixtures.
func (r *GormContractReader) Upsert(ctx context.Context, c *contract.Contract) error {
	model := &models.ContractModel{}
	model.FromDomain(c, time.Now().UTC())
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"owner_id", "tenant_id", "property_id", "monthly_rent", "deposit", "currency",
			"start_date", "end_date", "due_day", "status", "updated_at",
		}),
	}).Create(model).Error
}

var _ contract.Reader = (*GormContractReader)(nil)
