package validator

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewRequest struct {
	OrderDetailID string `json:"order_detail_id" validate:"required,uuid"`
	Rating        int    `json:"rating" validate:"required,gte=1,lte=5"`
	Description   string `json:"description" validate:"omitempty,max=2000"`
}

func TestValidate_Success(t *testing.T) {
	req := reviewRequest{
		OrderDetailID: "0b7aa6a8-83a9-4a64-a6fa-42bb6b1b7db1",
		Rating:        4,
	}
	assert.NoError(t, Validate(req))
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	req := reviewRequest{OrderDetailID: "not-a-uuid", Rating: 9}

	err := Validate(req)
	require.Error(t, err)

	valErr, ok := err.(*ValidationError)
	require.True(t, ok)

	fields := valErr.Fields()
	assert.Equal(t, "must be a valid UUID", fields["OrderDetailID"])
	assert.Equal(t, "must be less than or equal to 5", fields["Rating"])
	assert.Contains(t, valErr.Error(), "OrderDetailID")
}

func TestDecodeAndValidate(t *testing.T) {
	body := bytes.NewBufferString(`{"order_detail_id":"0b7aa6a8-83a9-4a64-a6fa-42bb6b1b7db1","rating":5}`)
	r := httptest.NewRequest("POST", "/api/v1/user/reviews", body)

	var req reviewRequest
	require.NoError(t, DecodeAndValidate(r, &req))
	assert.Equal(t, 5, req.Rating)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/user/reviews", bytes.NewBufferString(`{`))

	var req reviewRequest
	err := DecodeAndValidate(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
