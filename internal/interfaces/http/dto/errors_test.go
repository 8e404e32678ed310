package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{shared.CodeUnauthorized, http.StatusUnauthorized},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeAlreadyExists, http.StatusConflict},
		{shared.CodeConcurrencyConflict, http.StatusConflict},
		{shared.CodeInvalidTransition, http.StatusUnprocessableEntity},
		{shared.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeOverRelease, http.StatusUnprocessableEntity},
		{shared.CodeOverInvoice, http.StatusUnprocessableEntity},
		{shared.CodeOverShipment, http.StatusUnprocessableEntity},
		{shared.CodeOverpayment, http.StatusUnprocessableEntity},
		{shared.CodeTotalsDrift, http.StatusUnprocessableEntity},
		{shared.CodePersistence, http.StatusInternalServerError},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(shared.CodePersistence))
	assert.True(t, IsServerError("SOMETHING_NEW"))
	assert.False(t, IsServerError(shared.CodeOverpayment))
}

func TestNewErrorResponse_JSONShape(t *testing.T) {
	resp := NewErrorResponse(shared.CodeInvalidTransition, "cannot transition", "req-1",
		map[string]any{"current_state": "DRAFT"})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["success"])
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, "INVALID_TRANSITION", errObj["code"])
	assert.Equal(t, "req-1", errObj["request_id"])
	assert.Equal(t, "DRAFT", errObj["details"].(map[string]any)["current_state"])
	assert.NotContains(t, decoded, "data")
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	resp = NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}
