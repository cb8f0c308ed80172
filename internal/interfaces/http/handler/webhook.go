package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	paymentapp "github.com/rentflow/backend/internal/application/payment"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/logger"
	"github.com/rentflow/backend/internal/interfaces/http/dto"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxWebhookBytes is the default cap on the callback body read before
// signature verification
const MaxWebhookBytes int64 = 64 << 10

// CallbackReconciler applies verified gateway callbacks
type CallbackReconciler interface {
	Reconcile(ctx context.Context, cmd paymentapp.ReconcileCommand) (*paymentapp.ReconcileResult, error)
}

// WebhookHandler is the ingress for gateway callbacks. These endpoints are
// called by the gateways and authenticate through the body signature only.
type WebhookHandler struct {
	BaseHandler
	reconciler CallbackReconciler
	verifier   payment.SignatureVerifier
	signature  string
	maxBytes   int64
}

// NewWebhookHandler creates a WebhookHandler reading the signature from header
func NewWebhookHandler(reconciler CallbackReconciler, verifier payment.SignatureVerifier, header string) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, verifier: verifier, signature: header, maxBytes: MaxWebhookBytes}
}

// SetMaxBytes overrides the body cap. Non-positive values keep the default.
func (h *WebhookHandler) SetMaxBytes(n int64) {
	if n > 0 {
		h.maxBytes = n
	}
}

// Receive verifies and reconciles one callback. Nothing is parsed or stored
// before the signature checks out. Orphan and duplicate callbacks are
// acknowledged with 200 so the gateway stops retrying.
//
//	@Summary		Receive a gateway callback
//	@Description	Authenticated by the HMAC signature header, not a bearer token.
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			rail				path	string				true	"Rail"	Enums(card, mobile-money, bank-transfer)
//	@Param			X-Webhook-Signature	header	string				true	"Hex HMAC-SHA256 of the body"
//	@Param			request				body	dto.WebhookPayload	true	"Callback"
//	@Success		200	{object}	dto.Response{data=dto.WebhookAck}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		422	{object}	dto.Response
//	@Router			/webhooks/{rail} [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	rail, ok := payment.ParseRail(c.Param("rail"))
	if !ok {
		h.NotFound(c, "Unknown payment rail")
		return
	}
	c.Request = c.Request.WithContext(logger.WithRail(c.Request.Context(), rail.String()))
	log := logger.GetGinLogger(c).With(zap.String("rail", rail.String()))

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes))
	if err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.verifier.Verify(rail, body, c.GetHeader(h.signature)); err != nil {
		log.Warn("webhook rejected", zap.Error(err))
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Invalid webhook signature")
		return
	}

	var payload dto.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if err := binding.Validator.ValidateStruct(&payload); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	// decimal_positive trims the same way
	amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
	if err != nil {
		h.BadRequest(c, "Invalid callback amount")
		return
	}

	cmd := paymentapp.ReconcileCommand{
		Rail:                 rail,
		GatewayTransactionID: payload.GatewayTransactionID,
		Amount:               amount,
		Currency:             payload.Currency,
	}
	cmd.Outcome, _ = payment.ParseOutcome(payload.Outcome)
	if payload.ProcessedAt != "" {
		cmd.ProcessedAt, _ = time.Parse(time.RFC3339, payload.ProcessedAt)
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), cmd)
	switch {
	case errors.Is(err, shared.ErrDuplicateCallback):
		h.Success(c, dto.WebhookAck{Received: true, Status: string(paymentapp.ResultDuplicate)})
		return
	case err != nil:
		log.Warn("webhook reconciliation failed",
			zap.String("gateway_tx", cmd.GatewayTransactionID), zap.Error(err))
		h.HandleError(c, err)
		return
	}

	log.Info("webhook reconciled",
		zap.String("gateway_tx", cmd.GatewayTransactionID),
		zap.String("result", string(result.Status)))
	h.Success(c, dto.WebhookAck{Received: true, Status: string(result.Status)})
}
