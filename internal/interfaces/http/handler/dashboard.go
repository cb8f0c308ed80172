package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/domain/dashboard"
	"github.com/rentflow/backend/internal/interfaces/http/dto"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
)

// DashboardService computes the owner rollups
type DashboardService interface {
	Summary(ctx context.Context, q dashboard.Query) (*dashboard.Totals, error)
	Properties(ctx context.Context, q dashboard.Query) ([]dashboard.PropertyBreakdown, error)
	Monthly(ctx context.Context, q dashboard.Query) ([]dashboard.MonthlyIncome, error)
}

// DashboardHandler serves the owner dashboard. The owner is always the
// authenticated user.
type DashboardHandler struct {
	BaseHandler
	dashboard DashboardService
}

// NewDashboardHandler creates a DashboardHandler
func NewDashboardHandler(svc DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: svc}
}

// Summary returns collected, pending and overdue totals.
//
//	@Summary		Owner payment totals
//	@Tags			dashboard
//	@Produce		json
//	@Param			from			query	string	false	"From date (YYYY-MM-DD)"
//	@Param			to				query	string	false	"To date, inclusive (YYYY-MM-DD)"
//	@Param			contract_id	query	string	false	"Contract ID"
//	@Success		200	{object}	dto.Response{data=dashboard.Totals}
//	@Security		BearerAuth
//	@Router			/dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	totals, err := h.dashboard.Summary(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, totals)
}

// Properties returns the per-property breakdown.
//
//	@Summary		Per-property breakdown
//	@Tags			dashboard
//	@Produce		json
//	@Param			from			query	string	false	"From date (YYYY-MM-DD)"
//	@Param			to				query	string	false	"To date, inclusive (YYYY-MM-DD)"
//	@Success		200	{object}	dto.Response{data=[]dashboard.PropertyBreakdown}
//	@Security		BearerAuth
//	@Router			/dashboard/properties [get]
func (h *DashboardHandler) Properties(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	rows, err := h.dashboard.Properties(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Monthly returns collected income per paid month.
//
//	@Summary		Monthly collected income
//	@Tags			dashboard
//	@Produce		json
//	@Param			from			query	string	false	"From date (YYYY-MM-DD)"
//	@Param			to				query	string	false	"To date, inclusive (YYYY-MM-DD)"
//	@Success		200	{object}	dto.Response{data=[]dashboard.MonthlyIncome}
//	@Security		BearerAuth
//	@Router			/dashboard/monthly [get]
func (h *DashboardHandler) Monthly(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	series, err := h.dashboard.Monthly(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, series)
}

func (h *DashboardHandler) query(c *gin.Context) (dashboard.Query, bool) {
	owner, ok := middleware.GetOwnerID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return dashboard.Query{}, false
	}
	var req dto.DashboardRequest
	if !h.bindQuery(c, &req) {
		return dashboard.Query{}, false
	}
	q := dashboard.Query{
		OwnerID:    owner,
		ContractID: optionalUUID(req.ContractID),
		From:       dateOrZero(req.From),
	}
	// to is inclusive on the wire, exclusive in the query
	if to := optionalDate(req.To); to != nil {
		q.To = to.AddDate(0, 0, 1)
	}
	return q, true
}
