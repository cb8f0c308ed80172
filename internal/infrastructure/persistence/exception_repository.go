package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormExceptionRepository implements payment.ExceptionRepository using GORM
type GormExceptionRepository struct {
	db *gorm.DB
}

// NewGormExceptionRepository creates a new GormExceptionRepository
func NewGormExceptionRepository(db *gorm.DB) *GormExceptionRepository {
	return &GormExceptionRepository{db: db}
}

// Record stores an exception unless the same open entry already exists
func (r *GormExceptionRepository) Record(ctx context.Context, e *payment.ReconciliationException) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.ExceptionModelFromDomain(e))
	if result.Error != nil {
		return false, translate(result.Error, "reconciliation exception", e.GatewayTransactionID)
	}
	return result.RowsAffected == 1, nil
}

// FindByID finds an exception by ID
func (r *GormExceptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.ReconciliationException, error) {
	var model models.ExceptionModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "reconciliation exception", id)
	}
	return model.ToDomain(), nil
}

// List returns one page of exceptions, newest first
func (r *GormExceptionRepository) List(ctx context.Context, filter payment.ExceptionFilter) ([]payment.ReconciliationException, int64, error) {
	page := filter.Filter.Normalize()
	query := conn(ctx, r.db).Model(&models.ExceptionModel{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if !filter.IncludeResolved {
		query = query.Where("resolved = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ExceptionModel
	if err := query.
		Order("created_at DESC, id ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]payment.ReconciliationException, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save writes the resolution fields back
func (r *GormExceptionRepository) Save(ctx context.Context, e *payment.ReconciliationException) error {
	result := conn(ctx, r.db).
		Model(&models.ExceptionModel{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"resolved":        e.Resolved,
			"resolved_at":     e.ResolvedAt,
			"resolution_note": e.ResolutionNote,
			"updated_at":      e.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "reconciliation exception", e.ID)
	}
	return nil
}

// CountOpen returns the number of unresolved exceptions per kind
func (r *GormExceptionRepository) CountOpen(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Kind  string
		Count int64
	}
	if err := conn(ctx, r.db).
		Model(&models.ExceptionModel{}).
		Select("kind, COUNT(*) AS count").
		Where("resolved = ?", false).
		Group("kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Kind] = row.Count
	}
	return out, nil
}

var _ payment.ExceptionRepository = (*GormExceptionRepository)(nil)
