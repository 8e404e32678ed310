package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

func (r *GormSalesOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") })
}

// FindByID finds a sales order by its ID
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := findOne(r.withItems(ctx).Where("id = ?", id), &model, "sales order", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists sales orders matching the filter
func (r *GormSalesOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.SalesOrder, error) {
	var rows []models.SalesOrderModel
	query := applyDocumentFilter(r.db.WithContext(ctx).Model(&models.SalesOrderModel{}), filter, SalesOrderSortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err, "list sales orders")
	}
	out := make([]trade.SalesOrder, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts sales orders matching the filter
func (r *GormSalesOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := applyConditions(r.db.WithContext(ctx).Model(&models.SalesOrderModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, translateError(err, "count sales orders")
	}
	return count, nil
}

// FindByQuotation finds the order converted from a quotation
func (r *GormSalesOrderRepository) FindByQuotation(ctx context.Context, quotationID uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := findOne(r.withItems(ctx).Where("quotation_id = ?", quotationID), &model, "sales order for quotation", quotationID); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a sales order and its lines
func (r *GormSalesOrderRepository) Save(ctx context.Context, o *trade.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(o)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		isNew := o.IsNew()
		if err := saveAggregate(tx, trade.AggregateTypeSalesOrder, &o.BaseAggregateRoot, model); err != nil {
			return err
		}
		if !isNew {
			keep := make([]uuid.UUID, len(model.Items))
			for i, item := range model.Items {
				keep[i] = item.ID
			}
			if err := replaceChildren(tx, &models.SalesOrderItemModel{}, "order_id", o.ID, keep); err != nil {
				return err
			}
		}
		return saveChildren(tx, model.Items, isNew)
	})
}

var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
