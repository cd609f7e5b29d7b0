package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kidhood/bird-trading-platform/pkg/httpclient"
)

// ChargeRequest holds the parameters for collecting a payment.
type ChargeRequest struct {
	PackageOrderID string `json:"package_order_id"`
	AccountID      string `json:"account_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// ChargeResult is the gateway's reply to a successful charge.
type ChargeResult struct {
	PaymentID string `json:"payment_id"`
	PayerID   string `json:"payer_id"`
	Status    string `json:"status"`
}

// RefundRequest holds the parameters for returning a collected payment.
type RefundRequest struct {
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Reason    string `json:"reason,omitempty"`
}

// Gateway collects and refunds payments for package orders.
type Gateway interface {
	// Charge collects the payment for a package order.
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)

	// Refund returns a previously collected payment.
	Refund(ctx context.Context, req *RefundRequest) error
}

// RESTGateway implements Gateway against the payment provider's REST API.
// Calls go through a circuit breaker so a struggling provider does not drag
// checkout down with it.
type RESTGateway struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
}

// NewRESTGateway creates a payment gateway client for the provider at baseURL.
func NewRESTGateway(client *httpclient.CircuitBreakerClient, baseURL string) *RESTGateway {
	return &RESTGateway{
		client:  client,
		baseURL: baseURL,
	}
}

// Charge collects the payment for a package order.
func (g *RESTGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	resp, err := g.client.Post(ctx, g.baseURL+"/payments", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("charge package order %s: %w", req.PackageOrderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "payment gateway")
	}

	var result ChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}

	return &result, nil
}

// Refund returns a previously collected payment.
func (g *RESTGateway) Refund(ctx context.Context, req *RefundRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal refund request: %w", err)
	}

	resp, err := g.client.Post(ctx, g.baseURL+"/refunds", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("refund payment %s: %w", req.PaymentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return httpclient.ParseResponseError(resp, "payment gateway")
	}

	return nil
}
