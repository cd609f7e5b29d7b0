package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
	"github.com/kidhood/bird-trading-platform/pkg/httpclient"
	"github.com/kidhood/bird-trading-platform/pkg/logger"
)

func newTestGateway(baseURL string) *RESTGateway {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 2 * time.Second
	cfg.MaxRetries = 0

	cbCfg := httpclient.DefaultCircuitBreakerConfig("payment-gateway-test")
	client := httpclient.NewCircuitBreakerClient(httpclient.New(cfg), cbCfg, logger.New("test", "error"))

	return NewRESTGateway(client, baseURL)
}

func TestRESTGateway_Charge_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)

		var req ChargeRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "pkg-1", req.PackageOrderID)
		assert.Equal(t, int64(2_030_000), req.Amount)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(ChargeResult{
			PaymentID: "pay-77",
			PayerID:   "payer-9",
			Status:    "captured",
		})
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)

	result, err := g.Charge(context.Background(), &ChargeRequest{
		PackageOrderID: "pkg-1",
		AccountID:      "acc-1",
		Amount:         2_030_000,
		Currency:       "VND",
	})

	require.NoError(t, err)
	assert.Equal(t, "pay-77", result.PaymentID)
	assert.Equal(t, "payer-9", result.PayerID)
}

func TestRESTGateway_Charge_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "PAYMENT_FAILED",
			"message": "card declined",
		})
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)

	result, err := g.Charge(context.Background(), &ChargeRequest{
		PackageOrderID: "pkg-1",
		Amount:         100,
		Currency:       "VND",
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPaymentFailed), "expected ErrPaymentFailed, got: %v", err)
}

func TestRESTGateway_Refund_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/refunds", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)

	err := g.Refund(context.Background(), &RefundRequest{
		PaymentID: "pay-77",
		Amount:    100,
		Currency:  "VND",
	})

	assert.NoError(t, err)
}
