// Package payment holds the gateway clients behind each payment rail and
// the webhook signature check.
package payment

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rentflow/backend/internal/infrastructure/config"
)

// Errors for configuration validation
var (
	ErrMissingAPIKey     = errors.New("gateway: missing API key")
	ErrMissingBaseURL    = errors.New("gateway: missing base URL")
	ErrInvalidBaseURL    = errors.New("gateway: base URL must be absolute")
	ErrMissingWebhookKey = errors.New("gateway: missing webhook secret")
	ErrInvalidCardKey    = errors.New("gateway: card key must be a secret or restricted key")
)

// RailConfig is the validated configuration of one rail's client
type RailConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	CallbackURL   string
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
}

// RailConfigFrom converts a loaded gateway section
func RailConfigFrom(c config.GatewayConfig) RailConfig {
	return RailConfig{
		BaseURL:       strings.TrimRight(c.BaseURL, "/"),
		APIKey:        c.APIKey,
		WebhookSecret: c.WebhookSecret,
		CallbackURL:   c.CallbackURL,
		Timeout:       c.Timeout,
		MaxRetries:    c.MaxRetries,
		RetryBackoff:  c.RetryBackoff,
	}
}

// validateRemote checks the settings every remote rail needs
func (c RailConfig) validateRemote() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() {
		return ErrInvalidBaseURL
	}
	return nil
}

func (c RailConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}
