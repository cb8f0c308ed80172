package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"go.uber.org/zap"
)

// CardGateway opens hosted card checkouts as Stripe Checkout Sessions. The
// session id is the gateway transaction id.
type CardGateway struct {
	config   RailConfig
	sessions *session.Client
	logger   *zap.Logger
}

// NewCardGateway creates a card gateway. An empty base URL targets the
// public Stripe API.
func NewCardGateway(cfg RailConfig, logger *zap.Logger) (*CardGateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if !strings.HasPrefix(cfg.APIKey, "sk_") && !strings.HasPrefix(cfg.APIKey, "rk_") {
		return nil, ErrInvalidCardKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Card gateway configured",
		zap.Bool("live_mode", strings.Contains(cfg.APIKey, "_live_")),
		zap.Int("max_retries", cfg.MaxRetries))

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.timeout()},
		MaxNetworkRetries: stripe.Int64(int64(cfg.MaxRetries)),
		LeveledLogger:     logger.Named("stripe").Sugar(),
	}
	if cfg.BaseURL != "" {
		backendConfig.URL = stripe.String(cfg.BaseURL)
	}

	return &CardGateway{
		config: cfg,
		sessions: &session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
			Key: cfg.APIKey,
		},
		logger: logger.Named("card_gateway"),
	}, nil
}

// Rail returns the rail served by this client
func (g *CardGateway) Rail() payment.Rail {
	return payment.RailCard
}

// CreateTransaction opens a checkout session for the obligation amount
func (g *CardGateway) CreateTransaction(ctx context.Context, req *payment.CreateTransactionRequest) (*payment.CreateTransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ReturnURL == "" {
		return nil, shared.NewValidationError("return url is required for card payments")
	}
	unitAmount, err := minorUnits(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Rent payment %s", req.ObligationID)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.ReturnURL),
		CancelURL:         stripe.String(req.ReturnURL),
		ClientReferenceID: stripe.String(req.ObligationID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(unitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Description: stripe.String(description),
			Metadata: map[string]string{
				"obligation_id": req.ObligationID.String(),
				"contract_id":   req.ContractID.String(),
			},
		},
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	params.Context = ctx
	params.AddMetadata("obligation_id", req.ObligationID.String())
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := g.sessions.New(params)
	if err != nil {
		g.logger.Error("Failed to create checkout session",
			zap.String("obligation_id", req.ObligationID.String()),
			zap.Error(err))
		return nil, classifyStripeError(err)
	}

	g.logger.Info("Created checkout session",
		zap.String("obligation_id", req.ObligationID.String()),
		zap.String("session_id", s.ID))

	resp := &payment.CreateTransactionResponse{
		GatewayTransactionID: s.ID,
		RedirectURL:          s.URL,
	}
	if s.LastResponse != nil {
		resp.RawResponse = string(s.LastResponse.RawJSON)
	}
	return resp, nil
}

// classifyStripeError maps API errors onto the gateway error codes. Anything
// that is not an API error response is a transport failure.
func classifyStripeError(err error) error {
	rail := payment.RailCard.String()
	var se *stripe.Error
	if !errors.As(err, &se) {
		return shared.NewGatewayUnavailableError(rail, err)
	}
	if se.HTTPStatusCode >= http.StatusInternalServerError || se.HTTPStatusCode == http.StatusTooManyRequests {
		return shared.NewGatewayUnavailableError(rail, err)
	}
	return shared.NewGatewayRejectedError(rail, err)
}
