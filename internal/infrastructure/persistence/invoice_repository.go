package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") })
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	var model models.InvoiceModel
	if err := findOne(r.withItems(ctx).Where("id = ?", id), &model, "invoice", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Invoice, error) {
	var rows []models.InvoiceModel
	query := applyDocumentFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter, InvoiceSortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err, "list invoices")
	}
	return invoicesToDomain(rows), nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := applyConditions(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, translateError(err, "count invoices")
	}
	return count, nil
}

// FindBySalesOrder returns every invoice raised against an order, oldest first
func (r *GormInvoiceRepository) FindBySalesOrder(ctx context.Context, orderID uuid.UUID) ([]trade.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.withItems(ctx).
		Where("sales_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "find invoices by order")
	}
	return invoicesToDomain(rows), nil
}

// Save creates or updates an invoice and its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *trade.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		isNew := inv.IsNew()
		if err := saveAggregate(tx, trade.AggregateTypeInvoice, &inv.BaseAggregateRoot, model); err != nil {
			return err
		}
		if !isNew {
			keep := make([]uuid.UUID, len(model.Items))
			for i, item := range model.Items {
				keep[i] = item.ID
			}
			if err := replaceChildren(tx, &models.InvoiceItemModel{}, "invoice_id", inv.ID, keep); err != nil {
				return err
			}
		}
		return saveChildren(tx, model.Items, isNew)
	})
}

func invoicesToDomain(rows []models.InvoiceModel) []trade.Invoice {
	out := make([]trade.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)
