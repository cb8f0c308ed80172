package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ClientContext describes who initiated a payment
type ClientContext struct {
	IP          string
	UserAgent   string
	Description string
	ReturnURL   string
}

// Transaction is one attempt to settle an obligation through a gateway
type Transaction struct {
	shared.BaseAggregateRoot
	ObligationID         uuid.UUID
	GatewayTransactionID string
	Amount               decimal.Decimal
	Currency             string
	Rail                 Rail
	Status               TransactionStatus
	RedirectURL          string
	ClientIP             string
	UserAgent            string
	Description          string
	ReviewRequired       bool
	ProcessedAt          *time.Time
}

// NewTransaction records a PENDING transaction returned by a gateway
func NewTransaction(
	obligationID uuid.UUID,
	rail Rail,
	gatewayTransactionID string,
	amount decimal.Decimal,
	currency string,
	redirectURL string,
	client ClientContext,
	now time.Time,
) (*Transaction, error) {
	if obligationID == uuid.Nil {
		return nil, shared.NewValidationError("obligation id is required")
	}
	if !rail.IsValid() {
		return nil, shared.NewValidationError("unknown rail %q", rail)
	}
	if gatewayTransactionID == "" {
		return nil, shared.NewValidationError("gateway transaction id is required")
	}
	if err := shared.ValidatePositiveAmount("amount", amount); err != nil {
		return nil, err
	}

	return &Transaction{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(shared.NewBaseEntity(now)),
		ObligationID:         obligationID,
		GatewayTransactionID: gatewayTransactionID,
		Amount:               amount,
		Currency:             currency,
		Rail:                 rail,
		Status:               TransactionStatusPending,
		RedirectURL:          redirectURL,
		ClientIP:             client.IP,
		UserAgent:            client.UserAgent,
		Description:          client.Description,
	}, nil
}

// ApplyOutcome moves a PENDING transaction to the reported terminal status.
// A transaction that already reached a terminal status yields DUPLICATE_CALLBACK.
func (t *Transaction) ApplyOutcome(outcome Outcome, processedAt, now time.Time) error {
	if !outcome.IsValid() {
		return shared.NewValidationError("unknown outcome %q", outcome)
	}
	if t.Status.IsTerminal() {
		return shared.ErrDuplicateCallback
	}
	if processedAt.IsZero() {
		processedAt = now
	}
	at := processedAt.UTC()
	t.Status = outcome.Status()
	t.ProcessedAt = &at
	t.Touch(now)
	t.IncrementVersion()
	return nil
}

// Expire closes a PENDING transaction that never received a callback
func (t *Transaction) Expire(now time.Time) error {
	return t.ApplyOutcome(OutcomeExpired, now, now)
}

// Cancel closes a PENDING transaction that will never be completed: a newer
// quote replaced it or an operator resolved its review.
func (t *Transaction) Cancel(now time.Time) error {
	return t.ApplyOutcome(OutcomeCancelled, now, now)
}

// FlagForReview keeps the transaction PENDING but excludes it from expiry
// until an operator resolves the discrepancy.
func (t *Transaction) FlagForReview(now time.Time) {
	if t.ReviewRequired {
		return
	}
	t.ReviewRequired = true
	t.Touch(now)
	t.IncrementVersion()
}

// IsStale reports whether a PENDING transaction outlived the expiry window
func (t *Transaction) IsStale(now time.Time, window time.Duration) bool {
	return t.Status == TransactionStatusPending && !t.ReviewRequired && !t.CreatedAt.Add(window).After(now)
}
