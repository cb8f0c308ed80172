package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/dashboard"
	"github.com/rentflow/backend/internal/domain/obligation"
	"gorm.io/gorm"
)

// GormDashboardRepository runs the read-only dashboard aggregates
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// SumByPropertyAndStatus totals obligations per property and status for
// obligations due inside the query window.
func (r *GormDashboardRepository) SumByPropertyAndStatus(ctx context.Context, q dashboard.Query) ([]dashboard.StatusSum, error) {
	var rows []dashboard.StatusSum
	query := conn(ctx, r.db).
		Table("payment_obligations AS o").
		Select("c.property_id AS property_id, o.status AS status, "+
			"COALESCE(SUM(o.amount), 0) AS amount, COALESCE(SUM(o.late_fee), 0) AS late_fee, COUNT(*) AS count").
		Joins("JOIN rental_contracts AS c ON c.id = o.contract_id").
		Where("c.owner_id = ?", q.OwnerID).
		Where("o.due_date >= ? AND o.due_date < ?", q.From.UTC(), q.To.UTC())
	if q.ContractID != nil {
		query = query.Where("o.contract_id = ?", *q.ContractID)
	}
	if err := query.Group("c.property_id, o.status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// PaidRows returns settled obligations whose paid date falls in the window
func (r *GormDashboardRepository) PaidRows(ctx context.Context, q dashboard.Query) ([]dashboard.PaidRow, error) {
	var rows []dashboard.PaidRow
	query := conn(ctx, r.db).
		Table("payment_obligations AS o").
		Select("o.paid_date AS paid_date, o.amount AS amount, o.late_fee AS late_fee").
		Joins("JOIN rental_contracts AS c ON c.id = o.contract_id").
		Where("c.owner_id = ? AND o.status = ?", q.OwnerID, obligation.StatusPaid).
		Where("o.paid_date >= ? AND o.paid_date < ?", q.From.UTC(), q.To.UTC())
	if q.ContractID != nil {
		query = query.Where("o.contract_id = ?", *q.ContractID)
	}
	if err := query.Order("o.paid_date ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountContractsByProperty counts an owner's contracts per property and status
func (r *GormDashboardRepository) CountContractsByProperty(ctx context.Context, ownerID uuid.UUID) ([]dashboard.ContractCount, error) {
	var rows []dashboard.ContractCount
	if err := conn(ctx, r.db).
		Table("rental_contracts").
		Select("property_id, status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Group("property_id, status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

var _ dashboard.Repository = (*GormDashboardRepository)(nil)
