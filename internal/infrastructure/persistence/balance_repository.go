package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBalanceRepository implements BalanceRepository using GORM
type GormBalanceRepository struct {
	db *gorm.DB
}

// NewGormBalanceRepository creates a new GormBalanceRepository
func NewGormBalanceRepository(db *gorm.DB) *GormBalanceRepository {
	return &GormBalanceRepository{db: db}
}

// FindForUpdate loads the balance row and locks it for the rest of the
// transaction
func (r *GormBalanceRepository) FindForUpdate(ctx context.Context, itemID, locationID uuid.UUID) (*inventory.InventoryBalance, error) {
	var model models.InventoryBalanceModel
	query := forUpdate(r.db.WithContext(ctx)).
		Where("item_id = ? AND location_id = ?", itemID, locationID)
	if err := findOne(query, &model, "inventory balance", itemID.String()+"@"+locationID.String()); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Find loads the balance of an item at a location
func (r *GormBalanceRepository) Find(ctx context.Context, itemID, locationID uuid.UUID) (*inventory.InventoryBalance, error) {
	var model models.InventoryBalanceModel
	query := r.db.WithContext(ctx).Where("item_id = ? AND location_id = ?", itemID, locationID)
	if err := findOne(query, &model, "inventory balance", itemID.String()+"@"+locationID.String()); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLocation returns every balance held at a location
func (r *GormBalanceRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) ([]inventory.InventoryBalance, error) {
	var rows []models.InventoryBalanceModel
	if err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("item_id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "find balances by location")
	}
	return balancesToDomain(rows), nil
}

// FindByItems returns the balances of the given items at every location
func (r *GormBalanceRepository) FindByItems(ctx context.Context, itemIDs []uuid.UUID) ([]inventory.InventoryBalance, error) {
	if len(itemIDs) == 0 {
		return []inventory.InventoryBalance{}, nil
	}
	var rows []models.InventoryBalanceModel
	if err := r.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Order("item_id ASC, location_id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "find balances by items")
	}
	return balancesToDomain(rows), nil
}

// FindBelowMinimum returns balances with a minimum set whose available
// quantity has fallen to or below it
func (r *GormBalanceRepository) FindBelowMinimum(ctx context.Context, locationID *uuid.UUID) ([]inventory.InventoryBalance, error) {
	var rows []models.InventoryBalanceModel
	query := r.db.WithContext(ctx).
		Where("min_quantity > 0 AND available_quantity <= min_quantity")
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}
	if err := query.Order("location_id ASC, item_id ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err, "find balances below minimum")
	}
	return balancesToDomain(rows), nil
}

// Save creates or updates a balance
func (r *GormBalanceRepository) Save(ctx context.Context, b *inventory.InventoryBalance) error {
	return saveAggregate(r.db.WithContext(ctx), "InventoryBalance", &b.BaseAggregateRoot, models.InventoryBalanceModelFromDomain(b))
}

func balancesToDomain(rows []models.InventoryBalanceModel) []inventory.InventoryBalance {
	out := make([]inventory.InventoryBalance, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ inventory.BalanceRepository = (*GormBalanceRepository)(nil)
