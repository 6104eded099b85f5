package gateway

import (
	"fmt"

	"github.com/venuehub/venue-booking/internal/config"
)

// New builds the gateway selected by configuration.
func New(cfg *config.GatewayConfig) (Gateway, error) {
	switch cfg.Provider {
	case "http":
		return NewHTTPGateway(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	case "stripe":
		return NewStripeGateway(&StripeGatewayConfig{SecretKey: cfg.SecretKey})
	case "mock":
		return NewMockGateway(nil), nil
	default:
		return nil, fmt.Errorf("unknown gateway provider: %s", cfg.Provider)
	}
}
