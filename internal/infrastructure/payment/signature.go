package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/config"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body
const SignatureHeader = "X-Webhook-Signature"

// HMACVerifier checks webhook signatures with each rail's shared secret
type HMACVerifier struct {
	secrets map[payment.Rail][]byte
}

// NewHMACVerifier creates a verifier. Rails without a secret reject every payload.
func NewHMACVerifier(secrets map[payment.Rail]string) *HMACVerifier {
	v := &HMACVerifier{secrets: make(map[payment.Rail][]byte, len(secrets))}
	for rail, secret := range secrets {
		if secret != "" {
			v.secrets[rail] = []byte(secret)
		}
	}
	return v
}

// NewHMACVerifierFromConfig takes the webhook secret of every configured rail
func NewHMACVerifierFromConfig(cfg config.GatewaysConfig) *HMACVerifier {
	secrets := make(map[payment.Rail]string)
	for name, gw := range cfg.ByRail() {
		if rail, ok := payment.ParseRail(name); ok {
			secrets[rail] = gw.WebhookSecret
		}
	}
	return NewHMACVerifier(secrets)
}

// Verify returns UNAUTHORIZED unless signature is the hex HMAC of payload
func (v *HMACVerifier) Verify(rail payment.Rail, payload []byte, signature string) error {
	secret, ok := v.secrets[rail]
	if !ok {
		return shared.NewUnauthorizedError("no webhook secret configured for %s", rail)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return shared.NewUnauthorizedError("missing %s header", SignatureHeader)
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return shared.NewUnauthorizedError("malformed webhook signature")
	}
	if !hmac.Equal(got, mac(secret, payload)) {
		return shared.NewUnauthorizedError("webhook signature mismatch")
	}
	return nil
}

// Sign returns the hex signature a gateway sends for payload
func Sign(secret string, payload []byte) string {
	return hex.EncodeToString(mac([]byte(secret), payload))
}

func mac(secret, payload []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return h.Sum(nil)
}
