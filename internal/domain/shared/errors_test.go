package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	item, loc := uuid.New(), uuid.New()
	err := NewInsufficientStockError(item, loc, decimal.NewFromInt(5), decimal.NewFromInt(2))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrOverRelease))

	wrapped := fmt.Errorf("reserve: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.True(t, IsDomainError(wrapped, CodeInsufficientStock))
}

func TestNewInvalidTransitionError_CarriesStates(t *testing.T) {
	err := NewInvalidTransitionError("SalesOrder", "CONFIRMED", "SHIPPED")

	assert.Equal(t, CodeInvalidTransition, err.Code)
	assert.Equal(t, "CONFIRMED", err.Details["current_state"])
	assert.Equal(t, "SHIPPED", err.Details["requested_state"])
	assert.Contains(t, err.Error(), "from CONFIRMED to SHIPPED")
}

func TestNewPersistenceError_Unwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewPersistenceError("save invoice", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, "failed to save invoice", err.Error())
}

func TestNewOverReleaseError_Details(t *testing.T) {
	err := NewOverReleaseError(uuid.New(), uuid.New(), decimal.NewFromInt(8), decimal.NewFromInt(3))

	assert.Equal(t, "8", err.Details["requested"])
	assert.Equal(t, "3", err.Details["reserved"])
}
