package payment

import (
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Registry resolves the gateway client of each enabled rail
type Registry struct {
	clients map[payment.Rail]payment.GatewayClient
}

// NewRegistry creates a registry over clients
func NewRegistry(clients ...payment.GatewayClient) *Registry {
	r := &Registry{clients: make(map[payment.Rail]payment.GatewayClient, len(clients))}
	for _, c := range clients {
		r.clients[c.Rail()] = c
	}
	return r
}

// NewRegistryFromConfig builds a client for every enabled rail
func NewRegistryFromConfig(cfg config.GatewaysConfig, logger *zap.Logger) (*Registry, error) {
	var clients []payment.GatewayClient
	if cfg.Card.Enabled {
		card, err := NewCardGateway(RailConfigFrom(cfg.Card), logger)
		if err != nil {
			return nil, err
		}
		clients = append(clients, card)
	}
	if cfg.MobileMoney.Enabled {
		mm, err := NewMobileMoneyGateway(RailConfigFrom(cfg.MobileMoney), logger)
		if err != nil {
			return nil, err
		}
		clients = append(clients, mm)
	}
	if cfg.BankTransfer.Enabled {
		clients = append(clients, NewBankTransferGateway(cfg.BankTransfer.Account, logger))
	}
	return NewRegistry(clients...), nil
}

// Client returns the client for rail
func (r *Registry) Client(rail payment.Rail) (payment.GatewayClient, error) {
	if !rail.IsValid() {
		return nil, shared.NewValidationError("unknown rail %q", rail)
	}
	c, ok := r.clients[rail]
	if !ok {
		return nil, shared.NewValidationError("rail %s is not enabled", rail)
	}
	return c, nil
}

// Rails lists the enabled rails
func (r *Registry) Rails() []payment.Rail {
	rails := make([]payment.Rail, 0, len(r.clients))
	for _, rail := range payment.AllRails() {
		if _, ok := r.clients[rail]; ok {
			rails = append(rails, rail)
		}
	}
	return rails
}
