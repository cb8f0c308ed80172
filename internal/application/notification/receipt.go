package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptContentType is the media type of stored receipts
const ReceiptContentType = "application/json"

// ReceiptStore persists settlement receipts
type ReceiptStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// Receipt is the document written for every settled obligation
type Receipt struct {
	ObligationID   uuid.UUID       `json:"obligation_id"`
	ContractID     uuid.UUID       `json:"contract_id"`
	SplitPlanID    *uuid.UUID      `json:"split_plan_id,omitempty"`
	Kind           string          `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	LateFee        decimal.Decimal `json:"late_fee"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	PaymentMethod  string          `json:"payment_method"`
	TransactionRef string          `json:"transaction_ref"`
	PaidDate       time.Time       `json:"paid_date"`
	IssuedAt       time.Time       `json:"issued_at"`
}

// ReceiptHandler writes a receipt to the store when an obligation is paid.
// The receipt key is derived from the obligation, so a redelivered event
// overwrites the same object.
type ReceiptHandler struct {
	store  ReceiptStore
	logger *zap.Logger
	now    func() time.Time
}

// NewReceiptHandler creates a ReceiptHandler
func NewReceiptHandler(store ReceiptStore, logger *zap.Logger) *ReceiptHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptHandler{
		store:  store,
		logger: logger.Named("receipt"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ReceiptHandler) EventTypes() []string {
	return []string{obligation.EventTypeObligationPaid}
}

// Handle stores the receipt of a paid obligation
func (h *ReceiptHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	paid, ok := ev.(*obligation.ObligationPaidEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			obligation.EventTypeObligationPaid, ev.EventType())
	}
	if paid.ReceiptRef == "" {
		h.logger.Warn("paid obligation has no receipt reference",
			zap.String("obligation_id", paid.ObligationID.String()))
		return nil
	}

	body, err := json.Marshal(Receipt{
		ObligationID:   paid.ObligationID,
		ContractID:     paid.ContractID,
		SplitPlanID:    paid.SplitPlanID,
		Kind:           paid.Kind.String(),
		Amount:         paid.Amount,
		LateFee:        paid.LateFee,
		Total:          paid.Amount.Add(paid.LateFee),
		Currency:       paid.Currency,
		PaymentMethod:  paid.PaymentMethod,
		TransactionRef: paid.TransactionRef,
		PaidDate:       paid.PaidDate,
		IssuedAt:       h.now(),
	})
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	if err := h.store.Upload(ctx, paid.ReceiptRef, body, ReceiptContentType); err != nil {
		h.logger.Error("failed to store receipt",
			zap.String("obligation_id", paid.ObligationID.String()),
			zap.String("key", paid.ReceiptRef),
			zap.Error(err))
		return err
	}
	h.logger.Info("receipt stored",
		zap.String("obligation_id", paid.ObligationID.String()),
		zap.String("key", paid.ReceiptRef))
	return nil
}

// ReceiptService hands out download links for stored receipts
type ReceiptService struct {
	obligations obligation.Repository
	store       ReceiptStore
	ttl         time.Duration
}

// NewReceiptService creates a ReceiptService. Links expire after ttl.
func NewReceiptService(obligations obligation.Repository, store ReceiptStore, ttl time.Duration) *ReceiptService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ReceiptService{obligations: obligations, store: store, ttl: ttl}
}

// ReceiptLink is a time-limited download link
type ReceiptLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Link returns a download link for the receipt of a paid obligation
func (s *ReceiptService) Link(ctx context.Context, obligationID uuid.UUID) (*ReceiptLink, error) {
	o, err := s.obligations.FindByID(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if o.ReceiptRef == "" {
		return nil, shared.NewNotFoundError("receipt", obligationID)
	}
	exists, err := s.store.ObjectExists(ctx, o.ReceiptRef)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewNotFoundError("receipt", obligationID)
	}
	url, expiresAt, err := s.store.GenerateDownloadURL(ctx, o.ReceiptRef, s.ttl)
	if err != nil {
		return nil, err
	}
	return &ReceiptLink{URL: url, ExpiresAt: expiresAt}, nil
}
