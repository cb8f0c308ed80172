package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const mobileMoneyCollectPath = "/v1/collections"

// maxResponseBytes caps how much of a gateway response is read
const maxResponseBytes = 1 << 20

type mobileMoneyCollectRequest struct {
	Reference   string `json:"reference"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Payer       string `json:"payer"`
	Description string `json:"description,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

type mobileMoneyCollectResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	// AuthorizationURL is set by providers that confirm on a hosted page
	// instead of a push prompt on the handset
	AuthorizationURL string `json:"authorization_url"`
}

type mobileMoneyErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MobileMoneyGateway requests collections from a mobile money aggregator
// over its JSON API. The payer approves the charge on their handset.
type MobileMoneyGateway struct {
	config     RailConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMobileMoneyGateway creates a mobile money gateway
func NewMobileMoneyGateway(cfg RailConfig, logger *zap.Logger) (*MobileMoneyGateway, error) {
	if err := cfg.validateRemote(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MobileMoneyGateway{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.timeout(),
		},
		logger: logger.Named("mobile_money_gateway"),
	}, nil
}

// Rail returns the rail served by this client
func (g *MobileMoneyGateway) Rail() payment.Rail {
	return payment.RailMobileMoney
}

// CreateTransaction asks the aggregator to push a collection request to the payer
func (g *MobileMoneyGateway) CreateTransaction(ctx context.Context, req *payment.CreateTransactionRequest) (*payment.CreateTransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.PayerReference == "" {
		return nil, shared.NewValidationError("payer phone number is required for mobile money")
	}

	body := mobileMoneyCollectRequest{
		Reference:   req.ObligationID.String(),
		Amount:      req.Amount.StringFixed(shared.MoneyScale),
		Currency:    req.Currency,
		Payer:       req.PayerReference,
		Description: req.Description,
		CallbackURL: g.config.CallbackURL,
	}
	if !req.ExpiresAt.IsZero() {
		body.ExpiresAt = req.ExpiresAt.UTC().Format(time.RFC3339)
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("mobile money: failed to marshal request: %w", err)
	}

	respBody, err := g.doRequestWithRetry(ctx, http.MethodPost, mobileMoneyCollectPath, bodyBytes, req.IdempotencyKey)
	if err != nil && shared.CodeOf(err) == "" {
		// The retry loop gave up on a cancelled or expired context
		err = shared.NewGatewayUnavailableError(g.Rail().String(), err)
	}
	if err != nil {
		g.logger.Warn("Collection request failed",
			zap.String("obligation_id", req.ObligationID.String()),
			zap.Error(err))
		return nil, err
	}

	var respData mobileMoneyCollectResponse
	if err := json.Unmarshal(respBody, &respData); err != nil {
		return nil, shared.NewGatewayUnavailableError(g.Rail().String(), fmt.Errorf("failed to parse response: %w", err))
	}
	if respData.TransactionID == "" {
		return nil, shared.NewGatewayRejectedError(g.Rail().String(), fmt.Errorf("response carried no transaction id"))
	}

	g.logger.Info("Collection requested",
		zap.String("obligation_id", req.ObligationID.String()),
		zap.String("gateway_tx", respData.TransactionID),
		zap.String("status", respData.Status))

	return &payment.CreateTransactionResponse{
		GatewayTransactionID: respData.TransactionID,
		RedirectURL:          respData.AuthorizationURL,
		RawResponse:          string(respBody),
	}, nil
}

// doRequestWithRetry retries transient failures with exponential backoff.
// The idempotency key makes the retried request safe on the aggregator side.
func (g *MobileMoneyGateway) doRequestWithRetry(ctx context.Context, method, path string, body []byte, idempotencyKey string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	if g.config.RetryBackoff > 0 {
		b.InitialInterval = g.config.RetryBackoff
	}
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(g.config.MaxRetries, 0))), ctx)

	attempt := 0
	return backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		resp, err := g.doRequest(ctx, method, path, body, idempotencyKey)
		if err != nil && !shared.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		if err != nil {
			g.logger.Debug("Retrying gateway request",
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return resp, err
	}, policy)
}

func (g *MobileMoneyGateway) doRequest(ctx context.Context, method, path string, body []byte, idempotencyKey string) ([]byte, error) {
	rail := g.Rail().String()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("mobile money: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewGatewayUnavailableError(rail, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, shared.NewGatewayUnavailableError(rail, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		cause := fmt.Errorf("HTTP %d", resp.StatusCode)
		var errResp mobileMoneyErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Code != "" {
			cause = fmt.Errorf("HTTP %d: %s - %s", resp.StatusCode, errResp.Code, errResp.Message)
		}
		return nil, classifyStatus(rail, resp.StatusCode, cause)
	}
	return respBody, nil
}

// classifyStatus maps an HTTP error status onto the gateway error codes
func classifyStatus(rail string, status int, cause error) error {
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return shared.NewGatewayUnavailableError(rail, cause)
	}
	return shared.NewGatewayRejectedError(rail, cause)
}
