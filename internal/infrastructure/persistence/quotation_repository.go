package persistence

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQuotationRepository implements QuotationRepository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// FindByID finds a quotation by its ID
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Quotation, error) {
	var model models.QuotationModel
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Where("id = ?", id)
	if err := findOne(query, &model, "quotation", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists quotations matching the filter
func (r *GormQuotationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Quotation, error) {
	var rows []models.QuotationModel
	query := applyDocumentFilter(r.db.WithContext(ctx).Model(&models.QuotationModel{}), filter, QuotationSortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err, "list quotations")
	}
	return quotationsToDomain(rows), nil
}

// Count counts quotations matching the filter
func (r *GormQuotationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := applyConditions(r.db.WithContext(ctx).Model(&models.QuotationModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, translateError(err, "count quotations")
	}
	return count, nil
}

// FindExpirable returns SENT quotations whose validity ended before asOf,
// oldest first
func (r *GormQuotationRepository) FindExpirable(ctx context.Context, asOf time.Time, limit int) ([]trade.Quotation, error) {
	var rows []models.QuotationModel
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND valid_until < ?", trade.QuotationStatusSent, asOf).
		Order("valid_until ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err, "find expirable quotations")
	}
	return quotationsToDomain(rows), nil
}

// Save creates or updates a quotation and its lines
func (r *GormQuotationRepository) Save(ctx context.Context, q *trade.Quotation) error {
	model := models.QuotationModelFromDomain(q)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		isNew := q.IsNew()
		if err := saveAggregate(tx, trade.AggregateTypeQuotation, &q.BaseAggregateRoot, model); err != nil {
			return err
		}
		if !isNew {
			keep := make([]uuid.UUID, len(model.Items))
			for i, item := range model.Items {
				keep[i] = item.ID
			}
			if err := replaceChildren(tx, &models.QuotationItemModel{}, "quotation_id", q.ID, keep); err != nil {
				return err
			}
		}
		return saveChildren(tx, model.Items, isNew)
	})
}

func quotationsToDomain(rows []models.QuotationModel) []trade.Quotation {
	out := make([]trade.Quotation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ trade.QuotationRepository = (*GormQuotationRepository)(nil)
