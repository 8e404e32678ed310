package persistence

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository issues gap-free document numbers from the
// document_sequences table. The increment runs inside the caller's
// transaction, so a rolled-back document does not consume a number.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// NextValue increments and returns the counter for (prefix, year)
func (r *GormSequenceRepository) NextValue(ctx context.Context, prefix string, year int) (int64, error) {
	db := r.db.WithContext(ctx)

	updated, err := r.increment(db, prefix, year)
	if err != nil {
		return 0, err
	}
	if !updated {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.DocumentSequenceModel{Prefix: prefix, Year: year}).Error; err != nil {
			return 0, translateError(err, "create sequence "+prefix)
		}
		if updated, err = r.increment(db, prefix, year); err != nil {
			return 0, err
		}
		if !updated {
			return 0, shared.NewPersistenceError("increment sequence "+prefix, nil)
		}
	}

	var seq models.DocumentSequenceModel
	if err := db.Where("prefix = ? AND year = ?", prefix, year).First(&seq).Error; err != nil {
		return 0, translateError(err, "read sequence "+prefix)
	}
	return seq.LastValue, nil
}

func (r *GormSequenceRepository) increment(db *gorm.DB, prefix string, year int) (bool, error) {
	result := db.Model(&models.DocumentSequenceModel{}).
		Where("prefix = ? AND year = ?", prefix, year).
		Update("last_value", gorm.Expr("last_value + 1"))
	if result.Error != nil {
		return false, translateError(result.Error, "increment sequence "+prefix)
	}
	return result.RowsAffected > 0, nil
}

var _ shared.SequenceRepository = (*GormSequenceRepository)(nil)
