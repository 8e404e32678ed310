package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Stable error codes. Callers branch on these, never on messages.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeOverRelease         = "OVER_RELEASE"
	CodeOverInvoice         = "OVER_INVOICE"
	CodeOverShipment        = "OVER_SHIPMENT"
	CodeOverpayment         = "OVERPAYMENT"
	CodeTotalsDrift         = "TOTALS_DRIFT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodePersistence         = "PERSISTENCE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeUnauthorized        = "UNAUTHORIZED"
)

// DomainError represents a domain-level error.
// Details carries the offending states or quantities so callers can render
// a precise message without parsing Message.
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches any DomainError carrying the same code, so
// errors.Is(err, shared.ErrInsufficientStock) works for every instance.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns the error with an extra detail attached
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error for errors.Unwrap
func (e *DomainError) WithCause(cause error) *DomainError {
	e.cause = cause
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Sentinels for errors.Is comparisons
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Transition not allowed in current state")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrOverRelease         = NewDomainError(CodeOverRelease, "Release exceeds reserved quantity")
	ErrOverInvoice         = NewDomainError(CodeOverInvoice, "Invoice quantity exceeds uninvoiced quantity")
	ErrOverShipment        = NewDomainError(CodeOverShipment, "Shipment quantity exceeds remaining quantity")
	ErrPersistence         = NewDomainError(CodePersistence, "Persistence failure")
)

// NewValidationError reports an invalid field value
func NewValidationError(field, message string) *DomainError {
	return NewDomainError(CodeValidation, message).WithDetail("field", field)
}

// NewNotFoundError reports a missing entity
func NewNotFoundError(entity string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", entity, id)).
		WithDetail("entity", entity).
		WithDetail("id", fmt.Sprint(id))
}

// NewInvalidTransitionError reports a state machine violation
func NewInvalidTransitionError(document, from, to string) *DomainError {
	return NewDomainError(CodeInvalidTransition, fmt.Sprintf("cannot transition %s from %s to %s", document, from, to)).
		WithDetail("document", document).
		WithDetail("current_state", from).
		WithDetail("requested_state", to)
}

// NewInsufficientStockError reports a movement or reservation that would
// take available stock below zero
func NewInsufficientStockError(itemID, locationID fmt.Stringer, requested, available decimal.Decimal) *DomainError {
	return NewDomainError(CodeInsufficientStock, fmt.Sprintf("insufficient stock for item %s at location %s: requested %s, available %s",
		itemID, locationID, requested.String(), available.String())).
		WithDetail("item_id", itemID.String()).
		WithDetail("location_id", locationID.String()).
		WithDetail("requested", requested.String()).
		WithDetail("available", available.String())
}

// NewOverReleaseError reports a release larger than the reserved quantity
func NewOverReleaseError(itemID, locationID fmt.Stringer, requested, reserved decimal.Decimal) *DomainError {
	return NewDomainError(CodeOverRelease, fmt.Sprintf("cannot release %s of item %s at location %s: only %s reserved",
		requested.String(), itemID, locationID, reserved.String())).
		WithDetail("item_id", itemID.String()).
		WithDetail("location_id", locationID.String()).
		WithDetail("requested", requested.String()).
		WithDetail("reserved", reserved.String())
}

// NewOverInvoiceError reports an invoice line exceeding the uninvoiced quantity
func NewOverInvoiceError(lineID fmt.Stringer, requested, remaining decimal.Decimal) *DomainError {
	return NewDomainError(CodeOverInvoice, fmt.Sprintf("cannot invoice %s for order line %s: only %s remaining",
		requested.String(), lineID, remaining.String())).
		WithDetail("line_id", lineID.String()).
		WithDetail("requested", requested.String()).
		WithDetail("remaining", remaining.String())
}

// NewOverShipmentError reports a shipment line exceeding the unshipped quantity
func NewOverShipmentError(lineID fmt.Stringer, requested, remaining decimal.Decimal) *DomainError {
	return NewDomainError(CodeOverShipment, fmt.Sprintf("cannot ship %s for order line %s: only %s remaining",
		requested.String(), lineID, remaining.String())).
		WithDetail("line_id", lineID.String()).
		WithDetail("requested", requested.String()).
		WithDetail("remaining", remaining.String())
}

// NewConcurrencyConflictError reports a lost optimistic-lock race
func NewConcurrencyConflictError(entity string, id fmt.Stringer) *DomainError {
	return NewDomainError(CodeConcurrencyConflict, fmt.Sprintf("%s %s was modified by another process", entity, id)).
		WithDetail("entity", entity).
		WithDetail("id", id.String())
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(op string, cause error) *DomainError {
	return NewDomainError(CodePersistence, fmt.Sprintf("failed to %s", op)).WithCause(cause)
}

// IsDomainError reports whether err carries the given code
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
