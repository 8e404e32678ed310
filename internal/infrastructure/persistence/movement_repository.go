package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormMovementRepository implements the append-only stock ledger using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement
func (r *GormMovementRepository) Create(ctx context.Context, m *inventory.StockMovement) error {
	if err := r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(m)).Error; err != nil {
		return translateError(err, "create stock movement")
	}
	return nil
}

// FindByItemAndLocation lists the movements of one balance, newest first by default
func (r *GormMovementRepository) FindByItemAndLocation(ctx context.Context, itemID, locationID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	query := r.db.WithContext(ctx).
		Where("item_id = ? AND location_id = ?", itemID, locationID)
	if v, ok := filter.Filters["movement_type"]; ok && v != "" {
		query = query.Where("movement_type = ?", v)
	}
	orderBy := ValidateSortField(filter.OrderBy, MovementSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err, "list stock movements")
	}
	return movementsToDomain(rows), nil
}

// FindByReference returns the movements caused by one document
func (r *GormMovementRepository) FindByReference(ctx context.Context, refType, refID string) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "find stock movements by reference")
	}
	return movementsToDomain(rows), nil
}

// SumQuantity returns the signed sum of every movement of a balance
func (r *GormMovementRepository) SumQuantity(ctx context.Context, itemID, locationID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select("SUM(quantity)").
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, translateError(err, "sum stock movements")
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func movementsToDomain(rows []models.StockMovementModel) []inventory.StockMovement {
	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
