package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransactionRepository implements payment.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	var model models.TransactionModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "transaction", id)
	}
	return model.ToDomain(), nil
}

// FindByGatewayID looks a transaction up by its reconciliation key
func (r *GormTransactionRepository) FindByGatewayID(ctx context.Context, rail payment.Rail, gatewayTransactionID string) (*payment.Transaction, error) {
	var model models.TransactionModel
	if err := conn(ctx, r.db).
		First(&model, "rail = ? AND gateway_transaction_id = ?", rail, gatewayTransactionID).Error; err != nil {
		return nil, translate(err, "transaction", gatewayTransactionID)
	}
	return model.ToDomain(), nil
}

// FindPending returns the open transaction for an obligation on a rail
func (r *GormTransactionRepository) FindPending(ctx context.Context, obligationID uuid.UUID, rail payment.Rail) (*payment.Transaction, error) {
	var model models.TransactionModel
	if err := conn(ctx, r.db).
		First(&model, "obligation_id = ? AND rail = ? AND status = ?", obligationID, rail, payment.TransactionStatusPending).Error; err != nil {
		return nil, translate(err, "pending transaction", obligationID)
	}
	return model.ToDomain(), nil
}

// FindByObligation lists every attempt against an obligation, oldest first
func (r *GormTransactionRepository) FindByObligation(ctx context.Context, obligationID uuid.UUID) ([]payment.Transaction, error) {
	var rows []models.TransactionModel
	if err := conn(ctx, r.db).
		Where("obligation_id = ?", obligationID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

// Create inserts a transaction, reporting ALREADY_EXISTS on a unique conflict
func (r *GormTransactionRepository) Create(ctx context.Context, tx *payment.Transaction) error {
	return translate(conn(ctx, r.db).Create(models.TransactionModelFromDomain(tx)).Error, "transaction", tx.GatewayTransactionID)
}

// SaveWithLock persists tx only if the stored version is tx.Version-1
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, tx *payment.Transaction) error {
	result := conn(ctx, r.db).
		Model(&models.TransactionModel{}).
		Where("id = ? AND version = ?", tx.ID, tx.Version-1).
		Updates(map[string]any{
			"status":          tx.Status,
			"review_required": tx.ReviewRequired,
			"processed_at":    tx.ProcessedAt,
			"version":         tx.Version,
			"updated_at":      tx.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("transaction", tx.ID)
	}
	return nil
}

// FindStale returns PENDING transactions created before cutoff that are not held for review
func (r *GormTransactionRepository) FindStale(ctx context.Context, cutoff time.Time, limit int) ([]payment.Transaction, error) {
	var rows []models.TransactionModel
	query := conn(ctx, r.db).
		Where("status = ? AND review_required = ? AND created_at <= ?", payment.TransactionStatusPending, false, cutoff.UTC()).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

func toTransactions(rows []models.TransactionModel) []payment.Transaction {
	out := make([]payment.Transaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ payment.TransactionRepository = (*GormTransactionRepository)(nil)
