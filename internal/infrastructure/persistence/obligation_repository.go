package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormObligationRepository implements obligation.Repository using GORM
type GormObligationRepository struct {
	db *gorm.DB
}

// NewGormObligationRepository creates a new GormObligationRepository
func NewGormObligationRepository(db *gorm.DB) *GormObligationRepository {
	return &GormObligationRepository{db: db}
}

// FindByID finds an obligation by ID
func (r *GormObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*obligation.PaymentObligation, error) {
	var model models.ObligationModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "obligation", id)
	}
	return model.ToDomain(), nil
}

// FindBySplitPlan returns the legs of a split plan
func (r *GormObligationRepository) FindBySplitPlan(ctx context.Context, planID uuid.UUID) ([]obligation.PaymentObligation, error) {
	var rows []models.ObligationModel
	if err := conn(ctx, r.db).
		Where("split_plan_id = ?", planID).
		Order("due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toObligations(rows), nil
}

// List returns one page of obligations and the total match count
func (r *GormObligationRepository) List(ctx context.Context, filter obligation.Filter) ([]obligation.PaymentObligation, int64, error) {
	page := filter.Filter.Normalize()
	query := r.applyFilter(conn(ctx, r.db).Model(&models.ObligationModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ObligationModel
	if err := query.
		Order("due_date ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toObligations(rows), total, nil
}

func (r *GormObligationRepository) applyFilter(query *gorm.DB, filter obligation.Filter) *gorm.DB {
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.SplitPlanID != nil {
		query = query.Where("split_plan_id = ?", *filter.SplitPlanID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", filter.DueFrom.UTC())
	}
	if filter.DueTo != nil {
		query = query.Where("due_date < ?", filter.DueTo.UTC())
	}
	return query
}

// Create inserts a new obligation
func (r *GormObligationRepository) Create(ctx context.Context, o *obligation.PaymentObligation) error {
	model := models.ObligationModelFromDomain(o)
	return translate(conn(ctx, r.db).Create(model).Error, "obligation", o.ID)
}

// CreateIfAbsent inserts installments, skipping ones already scheduled
func (r *GormObligationRepository) CreateIfAbsent(ctx context.Context, obligations []*obligation.PaymentObligation) (int, error) {
	if len(obligations) == 0 {
		return 0, nil
	}
	rows := make([]*models.ObligationModel, 0, len(obligations))
	for _, o := range obligations {
		rows = append(rows, models.ObligationModelFromDomain(o))
	}
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if result.Error != nil {
		return 0, translate(result.Error, "obligation", obligations[0].ContractID)
	}
	return int(result.RowsAffected), nil
}

// SaveWithLock persists o only if the stored version is o.Version-1
func (r *GormObligationRepository) SaveWithLock(ctx context.Context, o *obligation.PaymentObligation) error {
	model := models.ObligationModelFromDomain(o)
	result := conn(ctx, r.db).
		Model(&models.ObligationModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version-1).
		Updates(model.MutableColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("obligation", o.ID)
	}
	return nil
}

// FindPastDue returns PENDING obligations with due_date < now, oldest first
func (r *GormObligationRepository) FindPastDue(ctx context.Context, now time.Time, limit int) ([]obligation.PaymentObligation, error) {
	var rows []models.ObligationModel
	query := conn(ctx, r.db).
		Where("status = ? AND due_date < ?", obligation.StatusPending, now.UTC()).
		Order("due_date ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toObligations(rows), nil
}

// MarkOverdueIfPending is a conditional update: the row only changes while
// its status is still PENDING, so a concurrent settlement always wins.
func (r *GormObligationRepository) MarkOverdueIfPending(ctx context.Context, id uuid.UUID, lateFee decimal.Decimal, at time.Time) (bool, error) {
	at = at.UTC()
	result := conn(ctx, r.db).
		Model(&models.ObligationModel{}).
		Where("id = ? AND status = ?", id, obligation.StatusPending).
		Updates(map[string]any{
			"status":     obligation.StatusOverdue,
			"late_fee":   lateFee,
			"overdue_at": at,
			"updated_at": at,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func toObligations(rows []models.ObligationModel) []obligation.PaymentObligation {
	out := make([]obligation.PaymentObligation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ obligation.Repository = (*GormObligationRepository)(nil)
