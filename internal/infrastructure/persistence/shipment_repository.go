package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShipmentRepository implements ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByID finds a shipment by its ID
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Shipment, error) {
	var model models.ShipmentModel
	if err := findOne(r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id), &model, "shipment", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySalesOrder returns every shipment of an order, oldest first
func (r *GormShipmentRepository) FindBySalesOrder(ctx context.Context, orderID uuid.UUID) ([]trade.Shipment, error) {
	var rows []models.ShipmentModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("sales_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "find shipments by order")
	}
	out := make([]trade.Shipment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a shipment. Lines are fixed at creation.
func (r *GormShipmentRepository) Save(ctx context.Context, s *trade.Shipment) error {
	model := models.ShipmentModelFromDomain(s)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		isNew := s.IsNew()
		if err := saveAggregate(tx, trade.AggregateTypeShipment, &s.BaseAggregateRoot, model); err != nil {
			return err
		}
		if !isNew {
			return nil
		}
		return saveChildren(tx, model.Lines, true)
	})
}

var _ trade.ShipmentRepository = (*GormShipmentRepository)(nil)
