package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	splitplanapp "github.com/rentflow/backend/internal/application/splitplan"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/rentflow/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// SplitPlanService is the split plan use-case surface used by the API
type SplitPlanService interface {
	Create(ctx context.Context, cmd splitplanapp.CreateCommand) (*splitplan.SplitPlan, error)
	Get(ctx context.Context, id uuid.UUID) (*splitplan.SplitPlan, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]*splitplan.SplitPlan, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*splitplan.SplitPlan, error)
}

// SplitPlanHandler serves split plan endpoints
type SplitPlanHandler struct {
	BaseHandler
	plans SplitPlanService
}

// NewSplitPlanHandler creates a SplitPlanHandler
func NewSplitPlanHandler(plans SplitPlanService) *SplitPlanHandler {
	return &SplitPlanHandler{plans: plans}
}

// Create divides a total into deposit and balance obligations.
//
//	@Summary		Create a split plan
//	@Tags			split-plans
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateSplitPlanRequest	true	"Total and deposit percentage"
//	@Success		201	{object}	dto.Response{data=dto.SplitPlanResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/split-plans [post]
func (h *SplitPlanHandler) Create(c *gin.Context) {
	var req dto.CreateSplitPlanRequest
	if !h.bindJSON(c, &req) {
		return
	}

	total, err := decimal.NewFromString(strings.TrimSpace(req.TotalAmount))
	if err != nil {
		h.BadRequest(c, "Invalid total amount")
		return
	}

	plan, err := h.plans.Create(c.Request.Context(), splitplanapp.CreateCommand{
		ContractID:        uuid.MustParse(req.ContractID),
		TotalAmount:       total,
		DepositPercentage: req.DepositPercentage,
		Description:       req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewSplitPlanResponse(plan))
}

// Get returns a split plan with both legs.
//
//	@Summary		Get a split plan
//	@Tags			split-plans
//	@Produce		json
//	@Param			id	path		string	true	"Split plan ID"
//	@Success		200	{object}	dto.Response{data=dto.SplitPlanResponse}
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/split-plans/{id} [get]
func (h *SplitPlanHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	plan, err := h.plans.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewSplitPlanResponse(plan))
}

// ListByContract returns every split plan of a contract.
//
//	@Summary		List the split plans of a contract
//	@Tags			contracts
//	@Produce		json
//	@Param			id	path		string	true	"Contract ID"
//	@Success		200	{object}	dto.Response{data=[]dto.SplitPlanResponse}
//	@Security		BearerAuth
//	@Router			/contracts/{id}/split-plans [get]
func (h *SplitPlanHandler) ListByContract(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	plans, err := h.plans.ListByContract(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := make([]dto.SplitPlanResponse, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, dto.NewSplitPlanResponse(p))
	}
	h.Success(c, resp)
}

// Cancel cancels a plan whose legs are still payable.
//
//	@Summary		Cancel a split plan
//	@Tags			split-plans
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Split plan ID"
//	@Param			request	body	dto.AdminActionRequest	false	"Reason"
//	@Success		200	{object}	dto.Response{data=dto.SplitPlanResponse}
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/split-plans/{id}/cancel [post]
func (h *SplitPlanHandler) Cancel(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AdminActionRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	plan, err := h.plans.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewSplitPlanResponse(plan))
}
