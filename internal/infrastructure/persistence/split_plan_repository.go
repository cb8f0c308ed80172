package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSplitPlanRepository implements splitplan.Repository using GORM.
// Plans and their legs are always written in one transaction.
type GormSplitPlanRepository struct {
	db *gorm.DB
}

// NewGormSplitPlanRepository creates a new GormSplitPlanRepository
func NewGormSplitPlanRepository(db *gorm.DB) *GormSplitPlanRepository {
	return &GormSplitPlanRepository{db: db}
}

// FindByID loads the plan and both legs
func (r *GormSplitPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*splitplan.SplitPlan, error) {
	db := conn(ctx, r.db)
	var model models.SplitPlanModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "split plan", id)
	}
	return r.withLegs(db, &model)
}

// FindByContract lists plans of a contract, newest first
func (r *GormSplitPlanRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*splitplan.SplitPlan, error) {
	db := conn(ctx, r.db)
	var rows []models.SplitPlanModel
	if err := db.Where("contract_id = ?", contractID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	plans := make([]*splitplan.SplitPlan, 0, len(rows))
	for i := range rows {
		p, err := r.withLegs(db, &rows[i])
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (r *GormSplitPlanRepository) withLegs(db *gorm.DB, model *models.SplitPlanModel) (*splitplan.SplitPlan, error) {
	var legs []models.ObligationModel
	if err := db.Where("id IN ?", []uuid.UUID{model.DepositObligationID, model.BalanceObligationID}).Find(&legs).Error; err != nil {
		return nil, err
	}
	var deposit, balance *obligation.PaymentObligation
	for i := range legs {
		switch legs[i].ID {
		case model.DepositObligationID:
			deposit = legs[i].ToDomain()
		case model.BalanceObligationID:
			balance = legs[i].ToDomain()
		}
	}
	if deposit == nil || balance == nil {
		return nil, shared.NewNotFoundError("split plan leg", model.ID)
	}
	return model.ToDomain(deposit, balance), nil
}

// Create inserts the plan and both legs atomically
func (r *GormSplitPlanRepository) Create(ctx context.Context, plan *splitplan.SplitPlan) error {
	return withinTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(models.SplitPlanModelFromDomain(plan)).Error; err != nil {
			return translate(err, "split plan", plan.ID)
		}
		legs := []*models.ObligationModel{
			models.ObligationModelFromDomain(plan.Deposit),
			models.ObligationModelFromDomain(plan.Balance),
		}
		if err := tx.Create(&legs).Error; err != nil {
			return translate(err, "split plan leg", plan.ID)
		}
		plan.MarkPersisted()
		return nil
	})
}

// SaveWithLock persists the plan and the legs it changed, each guarded by its version
func (r *GormSplitPlanRepository) SaveWithLock(ctx context.Context, plan *splitplan.SplitPlan) error {
	return withinTx(ctx, r.db, func(tx *gorm.DB) error {
		model := models.SplitPlanModelFromDomain(plan)
		result := tx.Model(&models.SplitPlanModel{}).
			Where("id = ? AND version = ?", plan.ID, plan.Version-1).
			Updates(model.MutableColumns())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewConcurrencyConflictError("split plan", plan.ID)
		}

		for _, leg := range plan.ChangedLegs() {
			legModel := models.ObligationModelFromDomain(leg)
			res := tx.Model(&models.ObligationModel{}).
				Where("id = ? AND version = ?", leg.ID, leg.Version-1).
				Updates(legModel.MutableColumns())
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return shared.NewConcurrencyConflictError("obligation", leg.ID)
			}
		}
		plan.MarkPersisted()
		return nil
	})
}

var _ splitplan.Repository = (*GormSplitPlanRepository)(nil)
