package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Payment, error) {
	var model models.PaymentModel
	if err := findOne(r.db.WithContext(ctx).Where("id = ?", id), &model, "payment", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice returns every payment applied to an invoice, including
// reversed ones, in the order received
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]trade.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("received_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "find payments by invoice")
	}
	return paymentsToDomain(rows), nil
}

// FindByCustomer lists a customer's payments
func (r *GormPaymentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]trade.Payment, error) {
	var rows []models.PaymentModel
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("customer_id = ?", customerID)
	if v, ok := filter.Filters["status"]; ok && v != "" {
		query = query.Where("status = ?", v)
	}
	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "received_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err, "find payments by customer")
	}
	return paymentsToDomain(rows), nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, p *trade.Payment) error {
	return saveAggregate(r.db.WithContext(ctx), trade.AggregateTypePayment, &p.BaseAggregateRoot, models.PaymentModelFromDomain(p))
}

func paymentsToDomain(rows []models.PaymentModel) []trade.Payment {
	out := make([]trade.Payment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ trade.PaymentRepository = (*GormPaymentRepository)(nil)
