package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/notification"
	obligationapp "github.com/rentflow/backend/internal/application/obligation"
	paymentapp "github.com/rentflow/backend/internal/application/payment"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/interfaces/http/dto"
)

// ObligationService is the obligation use-case surface used by the API
type ObligationService interface {
	ScheduleInstallments(ctx context.Context, contractID uuid.UUID) (*obligationapp.ScheduleResult, error)
	Get(ctx context.Context, id uuid.UUID) (*obligation.PaymentObligation, error)
	List(ctx context.Context, filter obligation.Filter) (shared.Paginated[obligation.PaymentObligation], error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*obligation.PaymentObligation, error)
	Refund(ctx context.Context, id uuid.UUID, reason string) (*obligation.PaymentObligation, error)
}

// PaymentInitiator opens gateway transactions
type PaymentInitiator interface {
	Initiate(ctx context.Context, cmd paymentapp.InitiateCommand) (*paymentapp.InitiateResult, error)
}

// ReceiptLinker hands out receipt download links
type ReceiptLinker interface {
	Link(ctx context.Context, obligationID uuid.UUID) (*notification.ReceiptLink, error)
}

// ObligationHandler serves obligation endpoints
type ObligationHandler struct {
	BaseHandler
	obligations ObligationService
	payments    PaymentInitiator
	receipts    ReceiptLinker
}

// NewObligationHandler creates an ObligationHandler
func NewObligationHandler(obligations ObligationService, payments PaymentInitiator, receipts ReceiptLinker) *ObligationHandler {
	return &ObligationHandler{obligations: obligations, payments: payments, receipts: receipts}
}

// Get returns one obligation.
//
//	@Summary		Get an obligation
//	@Tags			obligations
//	@Produce		json
//	@Param			id	path		string	true	"Obligation ID"
//	@Success		200	{object}	dto.Response{data=dto.ObligationResponse}
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/obligations/{id} [get]
func (h *ObligationHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.obligations.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewObligationResponse(o))
}

// List pages through obligations.
//
//	@Summary		List obligations
//	@Tags			obligations
//	@Produce		json
//	@Param			contract_id	query	string	false	"Contract ID"
//	@Param			split_plan_id	query	string	false	"Split plan ID"
//	@Param			status		query	string	false	"Status"	Enums(PENDING, PAID, OVERDUE, CANCELLED, REFUNDED)
//	@Param			kind		query	string	false	"Kind"	Enums(RENT_INSTALLMENT, SPLIT_DEPOSIT, SPLIT_BALANCE)
//	@Param			due_from	query	string	false	"Earliest due date (YYYY-MM-DD)"
//	@Param			due_to		query	string	false	"Latest due date (YYYY-MM-DD)"
//	@Param			page		query	int		false	"Page"
//	@Param			page_size	query	int		false	"Page size"
//	@Success		200	{object}	dto.Response{data=[]dto.ObligationResponse}
//	@Failure		400	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/obligations [get]
func (h *ObligationHandler) List(c *gin.Context) {
	var req dto.ListObligationsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.obligations.List(c.Request.Context(), obligation.Filter{
		Filter:      req.Filter(),
		ContractID:  optionalUUID(req.ContractID),
		SplitPlanID: optionalUUID(req.SplitPlanID),
		Status:      obligation.Status(req.Status),
		Kind:        obligation.Kind(req.Kind),
		DueFrom:     optionalDate(req.DueFrom),
		DueTo:       optionalDate(req.DueTo),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page, dto.NewObligationResponse))
}

// Initiate opens a gateway transaction for the obligation. Repeating the call
// for the same rail returns the transaction already in flight.
//
//	@Summary		Start a payment
//	@Tags			obligations
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string						true	"Obligation ID"
//	@Param			request	body	dto.InitiatePaymentRequest	true	"Rail and return URL"
//	@Success		200	{object}	dto.Response{data=payment.InitiateResult}	"Transaction already in flight"
//	@Success		201	{object}	dto.Response{data=payment.InitiateResult}
//	@Failure		400	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		429	{object}	dto.Response
//	@Failure		502	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/obligations/{id}/payments [post]
func (h *ObligationHandler) Initiate(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.InitiatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rail, _ := payment.ParseRail(req.Rail)

	result, err := h.payments.Initiate(c.Request.Context(), paymentapp.InitiateCommand{
		ObligationID:   id,
		Rail:           rail,
		PayerReference: req.PayerReference,
		Client: payment.ClientContext{
			IP:          c.ClientIP(),
			UserAgent:   c.Request.UserAgent(),
			Description: req.Description,
			ReturnURL:   req.ReturnURL,
		},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Reused {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// Cancel cancels a payable obligation.
//
//	@Summary		Cancel an obligation
//	@Tags			obligations
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Obligation ID"
//	@Param			request	body	dto.AdminActionRequest	false	"Reason"
//	@Success		200	{object}	dto.Response{data=dto.ObligationResponse}
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/obligations/{id}/cancel [post]
func (h *ObligationHandler) Cancel(c *gin.Context) {
	h.administer(c, h.obligations.Cancel)
}

// Refund refunds a paid obligation.
//
//	@Summary		Refund a paid obligation
//	@Tags			obligations
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Obligation ID"
//	@Param			request	body	dto.AdminActionRequest	false	"Reason"
//	@Success		200	{object}	dto.Response{data=dto.ObligationResponse}
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/obligations/{id}/refund [post]
func (h *ObligationHandler) Refund(c *gin.Context) {
	h.administer(c, h.obligations.Refund)
}

func (h *ObligationHandler) administer(c *gin.Context, action func(context.Context, uuid.UUID, string) (*obligation.PaymentObligation, error)) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AdminActionRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	o, err := action(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewObligationResponse(o))
}

// Receipt returns a time-limited download link for a paid obligation's receipt.
//
//	@Summary		Get a receipt link
//	@Tags			obligations
//	@Produce		json
//	@Param			id	path		string	true	"Obligation ID"
//	@Success		200	{object}	dto.Response{data=notification.ReceiptLink}
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/obligations/{id}/receipt [get]
func (h *ObligationHandler) Receipt(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	link, err := h.receipts.Link(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// ScheduleInstallments creates the monthly rent installments of a contract.
//
//	@Summary		Schedule rent installments
//	@Tags			contracts
//	@Produce		json
//	@Param			id	path		string	true	"Contract ID"
//	@Success		200	{object}	dto.Response{data=obligation.ScheduleResult}	"Already scheduled"
//	@Success		201	{object}	dto.Response{data=obligation.ScheduleResult}
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/contracts/{id}/installments [post]
func (h *ObligationHandler) ScheduleInstallments(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.obligations.ScheduleInstallments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Created == 0 {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}
