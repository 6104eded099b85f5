package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockGateway implements Gateway for development and load testing. Orders it
// has never seen resolve to a random outcome drawn from the configured
// distribution; the outcome is remembered so repeat checks stay consistent.
type MockGateway struct {
	config    *MockGatewayConfig
	outcomes  sync.Map // map[orderReference]OrderStatus
	overrides sync.Map // map[orderReference]OrderStatus, set by tests
}

// MockGatewayConfig holds configuration for the mock gateway
type MockGatewayConfig struct {
	// PaidRate is the probability an unseen order resolves to Paid.
	PaidRate float64
	// PendingRate is the probability an unseen order is still Pending.
	PendingRate float64
	// DelayMs is the simulated provider latency in milliseconds.
	DelayMs int
	// FailureStatuses are drawn uniformly for the remaining probability mass.
	FailureStatuses []OrderStatus
}

// DefaultMockGatewayConfig returns default configuration
func DefaultMockGatewayConfig() *MockGatewayConfig {
	return &MockGatewayConfig{
		PaidRate:    0.80,
		PendingRate: 0.10,
		DelayMs:     50,
		FailureStatuses: []OrderStatus{
			OrderStatusDeclined,
			OrderStatusCancelled,
			OrderStatusExpired,
			OrderStatusFailed,
		},
	}
}

// NewMockGateway creates a new mock gateway
func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = DefaultMockGatewayConfig()
	}
	if config.PaidRate < 0 {
		config.PaidRate = 0
	}
	if config.PaidRate+config.PendingRate > 1 {
		config.PendingRate = 1 - config.PaidRate
	}
	if len(config.FailureStatuses) == 0 {
		config.FailureStatuses = []OrderStatus{OrderStatusDeclined}
	}
	return &MockGateway{config: config}
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

// SetOutcome pins the status the mock will report for an order.
func (g *MockGateway) SetOutcome(orderReference string, status OrderStatus) {
	g.overrides.Store(orderReference, status)
}

// CreateOrder issues a fresh order reference. The outcome is not drawn until
// the first status check, mirroring a provider that has not seen a payment
// attempt yet.
func (g *MockGateway) CreateOrder(ctx context.Context, req *OrderRequest) (*Snapshot, error) {
	if req == nil || req.MerchantReference == "" {
		return nil, fmt.Errorf("merchant reference is required")
	}
	return &Snapshot{
		OrderReference:    "mock-" + uuid.New().String(),
		OrderStatus:       OrderStatusPending,
		TransactionStatus: string(OrderStatusPending),
		Amount:            req.Amount,
		Currency:          req.Currency,
	}, nil
}

// CheckTransaction reports the (possibly freshly drawn) outcome for an order.
func (g *MockGateway) CheckTransaction(ctx context.Context, orderReference string) (*Snapshot, error) {
	if orderReference == "" {
		return nil, fmt.Errorf("order reference is required")
	}

	if g.config.DelayMs > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
		}
	}

	if v, ok := g.overrides.Load(orderReference); ok {
		return g.snapshot(orderReference, v.(OrderStatus)), nil
	}

	if v, ok := g.outcomes.Load(orderReference); ok {
		return g.snapshot(orderReference, v.(OrderStatus)), nil
	}

	status := g.draw()
	actual, _ := g.outcomes.LoadOrStore(orderReference, status)
	return g.snapshot(orderReference, actual.(OrderStatus)), nil
}

func (g *MockGateway) draw() OrderStatus {
	roll := rand.Float64()
	switch {
	case roll < g.config.PaidRate:
		return OrderStatusPaid
	case roll < g.config.PaidRate+g.config.PendingRate:
		return OrderStatusPending
	default:
		return g.config.FailureStatuses[rand.Intn(len(g.config.FailureStatuses))]
	}
}

func (g *MockGateway) snapshot(orderReference string, status OrderStatus) *Snapshot {
	return &Snapshot{
		OrderReference:    orderReference,
		OrderStatus:       status,
		TransactionStatus: string(status),
	}
}
