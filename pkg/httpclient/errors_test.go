package httpclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

func errorResponse(status int, body string) *http.Response {
	rec := httptest.NewRecorder()
	rec.WriteHeader(status)
	_, _ = rec.WriteString(body)
	return rec.Result()
}

func TestParseResponseError_StructuredBody(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"not found", http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"order not found"}}`, apperrors.ErrNotFound},
		{"bad request", http.StatusBadRequest, `{"error":{"code":"INVALID_INPUT","message":"bad payload"}}`, apperrors.ErrInvalidInput},
		{"conflict", http.StatusConflict, `{"error":{"code":"ALREADY_EXISTS","message":"duplicate"}}`, apperrors.ErrAlreadyExists},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"code":"UNAUTHORIZED","message":"no token"}}`, apperrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, `{"error":{"code":"FORBIDDEN","message":"denied"}}`, apperrors.ErrForbidden},
		{"payment failed", http.StatusUnprocessableEntity, `{"error":{"code":"PAYMENT_FAILED","message":"declined"}}`, apperrors.ErrPaymentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(errorResponse(tt.status, tt.body), "payment-gateway")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), "payment-gateway")
		})
	}
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	err := ParseResponseError(errorResponse(http.StatusBadGateway, "upstream exploded"), "payment-gateway")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestParseResponseError_ServerErrorWithCode(t *testing.T) {
	body := `{"error":{"code":"INTERNAL_ERROR","message":"boom"}}`
	err := ParseResponseError(errorResponse(http.StatusInternalServerError, body), "payment-gateway")
	require.Error(t, err)

	var appErr *apperrors.AppError
	assert.NotErrorAs(t, err, &appErr)
	assert.Contains(t, err.Error(), "500")
}

func TestParseResponseError_ConsumesBody(t *testing.T) {
	resp := errorResponse(http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"gone"}}`)
	_ = ParseResponseError(resp, "storage")

	_, err := resp.Body.Read(make([]byte, 1))
	assert.Equal(t, io.EOF, err)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(http.StatusBadRequest))
	assert.True(t, IsClientError(http.StatusNotFound))
	assert.False(t, IsClientError(http.StatusOK))
	assert.False(t, IsClientError(http.StatusInternalServerError))
}

func TestParseResponseError_LargeBodyIsTruncated(t *testing.T) {
	huge := strings.Repeat("x", 2<<20)
	err := ParseResponseError(errorResponse(http.StatusBadGateway, huge), "storage")
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 2<<20)
}
