package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/venuehub/venue-booking/internal/domain"
)

// HTTPGateway queries the payment provider's transaction-status endpoint.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPGateway creates a new HTTPGateway
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the gateway name
func (g *HTTPGateway) Name() string {
	return "http"
}

// CreateOrder registers an order with the provider and returns the snapshot
// carrying the provider-issued order reference.
func (g *HTTPGateway) CreateOrder(ctx context.Context, req *OrderRequest) (*Snapshot, error) {
	if req == nil || req.MerchantReference == "" {
		return nil, fmt.Errorf("merchant reference is required")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"merchant_reference": req.MerchantReference,
		"amount":             req.Amount,
		"currency":           req.Currency,
		"description":        req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode order request: %w", err)
	}

	endpoint := g.baseURL + "/api/v1/orders"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: unexpected status code %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var body struct {
		OrderReference    string `json:"order_reference"`
		OrderStatus       string `json:"order_status"`
		TransactionStatus string `json:"transaction_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if body.OrderReference == "" {
		return nil, fmt.Errorf("gateway returned no order reference")
	}

	return &Snapshot{
		OrderReference:    body.OrderReference,
		OrderStatus:       Normalize(body.OrderStatus),
		TransactionStatus: body.TransactionStatus,
		Amount:            req.Amount,
		Currency:          req.Currency,
	}, nil
}

// CheckTransaction retrieves the current gateway status for an order.
// Transport failures surface as ErrGatewayUnavailable so the sweeper defers
// the booking to the next cycle instead of retrying inline.
func (g *HTTPGateway) CheckTransaction(ctx context.Context, orderReference string) (*Snapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/transactions/%s", g.baseURL, url.PathEscape(orderReference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var body struct {
		OrderReference    string  `json:"order_reference"`
		OrderStatus       string  `json:"order_status"`
		TransactionStatus string  `json:"transaction_status"`
		Amount            float64 `json:"amount"`
		Currency          string  `json:"currency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &Snapshot{
		OrderReference:    body.OrderReference,
		OrderStatus:       Normalize(body.OrderStatus),
		TransactionStatus: body.TransactionStatus,
		Amount:            body.Amount,
		Currency:          body.Currency,
	}, nil
}
