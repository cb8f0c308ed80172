package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ExceptionService lists and resolves reconciliation exceptions
type ExceptionService struct {
	uow          shared.UnitOfWork
	repo         payment.ExceptionRepository
	transactions payment.TransactionRepository
	logger       *zap.Logger
	now          Clock
}

// NewExceptionService creates an ExceptionService
func NewExceptionService(
	uow shared.UnitOfWork,
	repo payment.ExceptionRepository,
	transactions payment.TransactionRepository,
	logger *zap.Logger,
) *ExceptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExceptionService{uow: uow, repo: repo, transactions: transactions, logger: logger, now: systemClock}
}

// List returns exceptions, open ones only unless the filter says otherwise
func (s *ExceptionService) List(ctx context.Context, filter payment.ExceptionFilter) (shared.Paginated[payment.ReconciliationException], error) {
	filter.Filter = filter.Filter.Normalize()
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return shared.Paginated[payment.ReconciliationException]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Resolve closes an exception after manual review. Resolving an amount
// mismatch also cancels the transaction it held open, which frees the rail
// for a new attempt.
func (s *ExceptionService) Resolve(ctx context.Context, id uuid.UUID, note string) (*payment.ReconciliationException, error) {
	var exc *payment.ReconciliationException
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		found, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if err := found.Resolve(note, now); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, found); err != nil {
			return err
		}
		if err := s.releaseTransaction(ctx, found, now); err != nil {
			return err
		}
		exc = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reconciliation exception resolved",
		zap.String("exception_id", id.String()),
		zap.String("kind", string(exc.Kind)))
	return exc, nil
}

func (s *ExceptionService) releaseTransaction(ctx context.Context, exc *payment.ReconciliationException, now time.Time) error {
	if exc.Kind != payment.ExceptionAmountMismatch || exc.TransactionID == nil {
		return nil
	}
	tx, err := s.transactions.FindByID(ctx, *exc.TransactionID)
	if err != nil {
		return err
	}
	// a later callback may have settled it already
	if tx.Status.IsTerminal() {
		return nil
	}
	if err := tx.Cancel(now); err != nil {
		return err
	}
	if err := s.transactions.SaveWithLock(ctx, tx); err != nil {
		return err
	}
	s.logger.Info("held transaction cancelled",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("obligation_id", tx.ObligationID.String()))
	return nil
}
