package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest starts a gateway transaction for an obligation
type InitiatePaymentRequest struct {
	Rail           string `json:"rail" binding:"required,rail"`
	PayerReference string `json:"payer_reference" binding:"omitempty,max=64"`
	Description    string `json:"description" binding:"omitempty,max=255"`
	ReturnURL      string `json:"return_url" binding:"omitempty,url,max=2048"`
}

// AdminActionRequest carries the reason for a cancel or refund
type AdminActionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ListObligationsRequest filters the obligation listing
type ListObligationsRequest struct {
	ListRequest
	ContractID  string `form:"contract_id" binding:"omitempty,uuid"`
	SplitPlanID string `form:"split_plan_id" binding:"omitempty,uuid"`
	Status      string `form:"status" binding:"omitempty,oneof=PENDING PAID OVERDUE CANCELLED REFUNDED"`
	Kind        string `form:"kind" binding:"omitempty,oneof=RENT_INSTALLMENT SPLIT_DEPOSIT SPLIT_BALANCE"`
	DueFrom     string `form:"due_from" binding:"omitempty,datetime=2006-01-02"`
	DueTo       string `form:"due_to" binding:"omitempty,datetime=2006-01-02"`
}

// CreateSplitPlanRequest divides a total into a deposit and a balance leg
type CreateSplitPlanRequest struct {
	ContractID        string `json:"contract_id" binding:"required,uuid"`
	TotalAmount       string `json:"total_amount" binding:"required,decimal_positive"`
	DepositPercentage int    `json:"deposit_percentage" binding:"required,min=1,max=99"`
	Description       string `json:"description" binding:"omitempty,max=500"`
}

// WebhookPayload is the body a gateway posts to the webhook ingress
type WebhookPayload struct {
	GatewayTransactionID string `json:"gateway_transaction_id" binding:"required,max=128"`
	Outcome              string `json:"outcome" binding:"required,oneof=SUCCESS FAILED CANCELLED EXPIRED"`
	Amount               string `json:"amount" binding:"required,decimal_positive"`
	Currency             string `json:"currency" binding:"required,len=3"`
	ProcessedAt          string `json:"processed_at" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ResolveExceptionRequest closes a reconciliation exception
type ResolveExceptionRequest struct {
	Note string `json:"note" binding:"required,max=1000"`
}

// ListExceptionsRequest filters the exception listing
type ListExceptionsRequest struct {
	ListRequest
	Kind            string `form:"kind" binding:"omitempty,oneof=ORPHAN_CALLBACK AMOUNT_MISMATCH"`
	IncludeResolved bool   `form:"include_resolved"`
}

// DashboardRequest is the date window of a dashboard query
type DashboardRequest struct {
	From       string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	ContractID string `form:"contract_id" binding:"omitempty,uuid"`
}

// ObligationResponse is the API view of a payment obligation
type ObligationResponse struct {
	ID             uuid.UUID       `json:"id"`
	ContractID     uuid.UUID       `json:"contract_id"`
	SplitPlanID    *uuid.UUID      `json:"split_plan_id,omitempty"`
	Kind           string          `json:"kind"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	LateFee        decimal.Decimal `json:"late_fee"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	Currency       string          `json:"currency"`
	DueDate        time.Time       `json:"due_date"`
	PaidDate       *time.Time      `json:"paid_date,omitempty"`
	OverdueAt      *time.Time      `json:"overdue_at,omitempty"`
	RefundedAt     *time.Time      `json:"refunded_at,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	TransactionRef string          `json:"transaction_ref,omitempty"`
	ReceiptRef     string          `json:"receipt_ref,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewObligationResponse converts a domain obligation
func NewObligationResponse(o *obligation.PaymentObligation) ObligationResponse {
	due := o.Amount.Add(o.LateFee)
	if !o.Status.IsPayable() {
		due = decimal.Zero
	}
	return ObligationResponse{
		ID:             o.ID,
		ContractID:     o.ContractID,
		SplitPlanID:    o.SplitPlanID,
		Kind:           o.Kind.String(),
		Status:         o.Status.String(),
		Amount:         o.Amount,
		LateFee:        o.LateFee,
		AmountDue:      due,
		Currency:       o.Currency,
		DueDate:        o.DueDate,
		PaidDate:       o.PaidDate,
		OverdueAt:      o.OverdueAt,
		RefundedAt:     o.RefundedAt,
		PaymentMethod:  o.PaymentMethod,
		TransactionRef: o.TransactionRef,
		ReceiptRef:     o.ReceiptRef,
		Notes:          o.Notes,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// SplitPlanResponse is the API view of a split plan and its legs
type SplitPlanResponse struct {
	ID                    uuid.UUID           `json:"id"`
	ContractID            uuid.UUID           `json:"contract_id"`
	Status                string              `json:"status"`
	TotalAmount           decimal.Decimal     `json:"total_amount"`
	DepositPercentage     int                 `json:"deposit_percentage"`
	DepositAmount         decimal.Decimal     `json:"deposit_amount"`
	BalanceAmount         decimal.Decimal     `json:"balance_amount"`
	Currency              string              `json:"currency"`
	Description           string              `json:"description,omitempty"`
	DepositFailedAttempts int                 `json:"deposit_failed_attempts"`
	Deposit               *ObligationResponse `json:"deposit,omitempty"`
	Balance               *ObligationResponse `json:"balance,omitempty"`
	Version               int                 `json:"version"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// NewSplitPlanResponse converts a domain split plan
func NewSplitPlanResponse(p *splitplan.SplitPlan) SplitPlanResponse {
	resp := SplitPlanResponse{
		ID:                    p.ID,
		ContractID:            p.ContractID,
		Status:                p.Status.String(),
		TotalAmount:           p.TotalAmount,
		DepositPercentage:     p.DepositPercentage,
		DepositAmount:         p.DepositAmount,
		BalanceAmount:         p.BalanceAmount,
		Currency:              p.Currency,
		Description:           p.Description,
		DepositFailedAttempts: p.DepositFailedAttempts,
		Version:               p.Version,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if p.Deposit != nil {
		leg := NewObligationResponse(p.Deposit)
		resp.Deposit = &leg
	}
	if p.Balance != nil {
		leg := NewObligationResponse(p.Balance)
		resp.Balance = &leg
	}
	return resp
}

// ExceptionResponse is the API view of a reconciliation exception
type ExceptionResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Kind                 string          `json:"kind"`
	Rail                 string          `json:"rail"`
	GatewayTransactionID string          `json:"gateway_transaction_id"`
	TransactionID        *uuid.UUID      `json:"transaction_id,omitempty"`
	ObligationID         *uuid.UUID      `json:"obligation_id,omitempty"`
	Outcome              string          `json:"outcome"`
	ExpectedAmount       decimal.Decimal `json:"expected_amount"`
	ReportedAmount       decimal.Decimal `json:"reported_amount"`
	Currency             string          `json:"currency"`
	Detail               string          `json:"detail,omitempty"`
	Resolved             bool            `json:"resolved"`
	ResolvedAt           *time.Time      `json:"resolved_at,omitempty"`
	ResolutionNote       string          `json:"resolution_note,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// NewExceptionResponse converts a domain reconciliation exception
func NewExceptionResponse(e *payment.ReconciliationException) ExceptionResponse {
	return ExceptionResponse{
		ID:                   e.ID,
		Kind:                 string(e.Kind),
		Rail:                 e.Rail.String(),
		GatewayTransactionID: e.GatewayTransactionID,
		TransactionID:        e.TransactionID,
		ObligationID:         e.ObligationID,
		Outcome:              e.Outcome.String(),
		ExpectedAmount:       e.ExpectedAmount,
		ReportedAmount:       e.ReportedAmount,
		Currency:             e.Currency,
		Detail:               e.Detail,
		Resolved:             e.Resolved,
		ResolvedAt:           e.ResolvedAt,
		ResolutionNote:       e.ResolutionNote,
		CreatedAt:            e.CreatedAt,
	}
}

// WebhookAck is returned to gateways for every accepted callback
type WebhookAck struct {
	Received bool   `json:"received"`
	Status   string `json:"status"`
}
