package inventory

import (
	"strings"

	"github.com/erp/ordertocash/internal/domain/shared"
)

// Location is a stock-holding place such as a warehouse or store
type Location struct {
	shared.BaseAggregateRoot
	Code               string
	Name               string
	AllowNegativeStock bool
	IsActive           bool
}

// NewLocation creates an active location
func NewLocation(code, name string, allowNegative bool) (*Location, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, shared.NewValidationError("code", "location code cannot be empty")
	}
	if len(code) > 32 {
		return nil, shared.NewValidationError("code", "location code cannot exceed 32 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "location name cannot be empty")
	}
	return &Location{
		BaseAggregateRoot:  shared.BaseAggregateRoot{BaseEntity: shared.NewBaseEntity()},
		Code:               code,
		Name:               name,
		AllowNegativeStock: allowNegative,
		IsActive:           true,
	}, nil
}

// Update changes the editable attributes of the location
func (l *Location) Update(name string, allowNegative bool) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewValidationError("name", "location name cannot be empty")
	}
	l.Name = name
	l.AllowNegativeStock = allowNegative
	l.Touch()
	return nil
}

// Deactivate stops the location from taking new stock movements
func (l *Location) Deactivate() {
	l.IsActive = false
	l.Touch()
}

// Activate re-opens the location
func (l *Location) Activate() {
	l.IsActive = true
	l.Touch()
}

// EnsureActive returns a validation error for inactive locations
func (l *Location) EnsureActive() error {
	if !l.IsActive {
		return shared.NewValidationError("location_id", "location "+l.Code+" is inactive")
	}
	return nil
}
