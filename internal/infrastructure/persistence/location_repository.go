package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID finds a location by its ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Location, error) {
	var model models.LocationModel
	if err := findOne(r.db.WithContext(ctx).Where("id = ?", id), &model, "location", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a location by its code
func (r *GormLocationRepository) FindByCode(ctx context.Context, code string) (*inventory.Location, error) {
	var model models.LocationModel
	if err := findOne(r.db.WithContext(ctx).Where("code = ?", code), &model, "location", code); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every location ordered by code
func (r *GormLocationRepository) FindAll(ctx context.Context) ([]inventory.Location, error) {
	var rows []models.LocationModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err, "list locations")
	}
	out := make([]inventory.Location, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, loc *inventory.Location) error {
	return saveAggregate(r.db.WithContext(ctx), "Location", &loc.BaseAggregateRoot, models.LocationModelFromDomain(loc))
}

var _ inventory.LocationRepository = (*GormLocationRepository)(nil)
