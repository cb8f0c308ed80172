package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest asks a gateway to open a remote transaction
type CreateTransactionRequest struct {
	// IdempotencyKey lets the gateway collapse retried requests
	IdempotencyKey string
	ObligationID   uuid.UUID
	ContractID     uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Description    string
	// ReturnURL is where the payer is redirected after a hosted checkout
	ReturnURL string
	// PayerReference is rail specific, e.g. a mobile number for MOBILE_MONEY
	PayerReference string
	ClientIP       string
	ExpiresAt      time.Time
}

// Validate validates the create transaction request
func (r *CreateTransactionRequest) Validate() error {
	if r.ObligationID == uuid.Nil {
		return shared.NewValidationError("obligation id is required")
	}
	if err := shared.ValidatePositiveAmount("amount", r.Amount); err != nil {
		return err
	}
	if r.Currency == "" {
		return shared.NewValidationError("currency is required")
	}
	return nil
}

// CreateTransactionResponse is what the gateway returned
type CreateTransactionResponse struct {
	GatewayTransactionID string
	// RedirectURL is empty for rails without a hosted checkout
	RedirectURL string
	RawResponse string
}

// GatewayClient creates remote transactions on one rail. Implementations
// return GATEWAY_UNAVAILABLE for transient failures and GATEWAY_REJECTED
// when the gateway refused the request.
type GatewayClient interface {
	Rail() Rail
	CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*CreateTransactionResponse, error)
}

// SignatureVerifier checks webhook payloads against a rail's shared secret
type SignatureVerifier interface {
	Verify(rail Rail, payload []byte, signature string) error
}
