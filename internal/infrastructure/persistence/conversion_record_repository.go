package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormConversionRecordRepository stores the idempotency records of
// document conversions
type GormConversionRecordRepository struct {
	db *gorm.DB
}

// NewGormConversionRecordRepository creates a new GormConversionRecordRepository
func NewGormConversionRecordRepository(db *gorm.DB) *GormConversionRecordRepository {
	return &GormConversionRecordRepository{db: db}
}

// Find looks up the record for (kind, key, source)
func (r *GormConversionRecordRepository) Find(ctx context.Context, kind trade.ConversionKind, key string, sourceID uuid.UUID) (*trade.ConversionRecord, error) {
	var model models.ConversionRecordModel
	query := r.db.WithContext(ctx).
		Where("kind = ? AND idempotency_key = ? AND source_id = ?", kind, key, sourceID)
	if err := findOne(query, &model, "conversion record", key); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a record. A second record for the same key is ALREADY_EXISTS.
func (r *GormConversionRecordRepository) Create(ctx context.Context, rec *trade.ConversionRecord) error {
	if err := r.db.WithContext(ctx).Create(models.ConversionRecordModelFromDomain(rec)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "conversion already recorded for this idempotency key").
				WithDetail("idempotency_key", rec.IdempotencyKey)
		}
		return translateError(err, "create conversion record")
	}
	return nil
}

var _ trade.ConversionRecordRepository = (*GormConversionRecordRepository)(nil)
