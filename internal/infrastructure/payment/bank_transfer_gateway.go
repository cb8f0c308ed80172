package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// bankReferenceNamespace seeds the name-based UUIDs behind transfer references
var bankReferenceNamespace = uuid.MustParse("6f1c4b0e-8a7d-5c2e-9b3f-2d4e6a8c0b1d")

// BankTransferInstructions is what the payer needs to push the transfer
type BankTransferInstructions struct {
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	// Account is the collection account the payer credits
	Account string `json:"account,omitempty"`
}

// BankTransferGateway issues payment references for push transfers. Nothing
// is called remotely; the bank's statement feed reports the outcome through
// the webhook with the reference as gateway transaction id.
type BankTransferGateway struct {
	account string
	logger  *zap.Logger
}

// NewBankTransferGateway creates a bank transfer gateway. account is shown
// to the payer in the instructions.
func NewBankTransferGateway(account string, logger *zap.Logger) *BankTransferGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BankTransferGateway{account: account, logger: logger.Named("bank_transfer_gateway")}
}

// Rail returns the rail served by this client
func (g *BankTransferGateway) Rail() payment.Rail {
	return payment.RailBankTransfer
}

// CreateTransaction derives the transfer reference. The same idempotency key
// always yields the same reference.
func (g *BankTransferGateway) CreateTransaction(_ context.Context, req *payment.CreateTransactionRequest) (*payment.CreateTransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	seed := req.IdempotencyKey
	if seed == "" {
		seed = uuid.NewString()
	}
	ref := Reference(seed)

	raw, err := json.Marshal(BankTransferInstructions{
		Reference: ref,
		Amount:    req.Amount.StringFixed(shared.MoneyScale),
		Currency:  req.Currency,
		Account:   g.account,
	})
	if err != nil {
		return nil, fmt.Errorf("bank transfer: failed to encode instructions: %w", err)
	}

	g.logger.Debug("Issued transfer reference",
		zap.String("obligation_id", req.ObligationID.String()),
		zap.String("reference", ref))

	return &payment.CreateTransactionResponse{
		GatewayTransactionID: ref,
		RawResponse:          string(raw),
	}, nil
}

// Reference returns the short uppercase transfer reference for seed
func Reference(seed string) string {
	id := uuid.NewSHA1(bankReferenceNamespace, []byte(seed))
	return "BT" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:14])
}
