package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/interfaces/http/dto"
)

// ExceptionService exposes the manual review queue
type ExceptionService interface {
	List(ctx context.Context, filter payment.ExceptionFilter) (shared.Paginated[payment.ReconciliationException], error)
	Resolve(ctx context.Context, id uuid.UUID, note string) (*payment.ReconciliationException, error)
}

// ReconciliationHandler serves the reconciliation exception queue
type ReconciliationHandler struct {
	BaseHandler
	exceptions ExceptionService
}

// NewReconciliationHandler creates a ReconciliationHandler
func NewReconciliationHandler(exceptions ExceptionService) *ReconciliationHandler {
	return &ReconciliationHandler{exceptions: exceptions}
}

// ListExceptions pages through exceptions, open ones only unless
// include_resolved is set.
//
//	@Summary		List reconciliation exceptions
//	@Tags			reconciliation
//	@Produce		json
//	@Param			kind				query	string	false	"Kind"	Enums(ORPHAN_CALLBACK, AMOUNT_MISMATCH)
//	@Param			include_resolved	query	bool	false	"Include resolved exceptions"
//	@Param			page				query	int		false	"Page"
//	@Param			page_size			query	int		false	"Page size"
//	@Success		200	{object}	dto.Response{data=[]dto.ExceptionResponse}
//	@Failure		403	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/reconciliation/exceptions [get]
func (h *ReconciliationHandler) ListExceptions(c *gin.Context) {
	var req dto.ListExceptionsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.exceptions.List(c.Request.Context(), payment.ExceptionFilter{
		Filter:          req.Filter(),
		Kind:            payment.ExceptionKind(req.Kind),
		IncludeResolved: req.IncludeResolved,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page, dto.NewExceptionResponse))
}

// ResolveException closes an exception with a note.
//
//	@Summary		Resolve a reconciliation exception
//	@Description	Resolving an amount mismatch also cancels the transaction it held open.
//	@Tags			reconciliation
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string						true	"Exception ID"
//	@Param			request	body	dto.ResolveExceptionRequest	true	"Resolution note"
//	@Success		200	{object}	dto.Response{data=dto.ExceptionResponse}
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/reconciliation/exceptions/{id}/resolve [post]
func (h *ReconciliationHandler) ResolveException(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveExceptionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	e, err := h.exceptions.Resolve(c.Request.Context(), id, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewExceptionResponse(e))
}
