package trade

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SystemActorID is recorded as the actor of background transitions
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// DefaultExpiryBatchSize is the number of quotations loaded per query
const DefaultExpiryBatchSize = 100

// ExpiryStats reports one sweep
type ExpiryStats struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

// QuotationExpiryService expires SENT quotations whose validity has
// elapsed. Each quotation is expired in its own transaction so one failure
// does not hold back the rest; failed ones are picked up by the next sweep.
type QuotationExpiryService struct {
	uow       *txn.UnitOfWork
	logger    *zap.Logger
	batchSize int
}

// NewQuotationExpiryService creates a new QuotationExpiryService
func NewQuotationExpiryService(uow *txn.UnitOfWork, batchSize int, logger *zap.Logger) *QuotationExpiryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = DefaultExpiryBatchSize
	}
	return &QuotationExpiryService{uow: uow, logger: logger, batchSize: batchSize}
}

// ExpireOverdue expires every quotation past its validity at asOf
func (s *QuotationExpiryService) ExpireOverdue(ctx context.Context, asOf time.Time) (ExpiryStats, error) {
	var stats ExpiryStats
	failed := make(map[uuid.UUID]bool)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		var batch []trade.Quotation
		err := s.uow.Read(ctx, func(repos txn.Repositories) error {
			var err error
			batch, err = repos.Quotations().FindExpirable(ctx, asOf, s.batchSize+len(failed))
			return err
		})
		if err != nil {
			return stats, err
		}

		progress := 0
		for i := range batch {
			id := batch[i].ID
			if failed[id] {
				continue
			}
			stats.Scanned++
			if err := s.expireOne(ctx, id, asOf); err != nil {
				failed[id] = true
				stats.Failed++
				s.logger.Warn("Failed to expire quotation",
					zap.String("quotation_id", id.String()),
					zap.String("quotation_number", batch[i].QuotationNumber),
					zap.Error(err),
				)
				continue
			}
			stats.Expired++
			progress++
		}
		if progress == 0 || len(batch) < s.batchSize+len(failed) {
			break
		}
	}

	if stats.Scanned > 0 {
		s.logger.Info("Quotation expiry sweep finished",
			zap.Int("expired", stats.Expired),
			zap.Int("failed", stats.Failed),
		)
	}
	return stats, nil
}

func (s *QuotationExpiryService) expireOne(ctx context.Context, id uuid.UUID, asOf time.Time) error {
	return s.uow.Run(ctx, []string{txn.DocumentKey(trade.AggregateTypeQuotation, id)}, func(tx *txn.Tx) error {
		q, err := tx.Quotations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := q.Expire(SystemActorID, asOf); err != nil {
			return err
		}
		if err := tx.Quotations().Save(ctx, q); err != nil {
			return err
		}
		tx.Track(q)
		return nil
	})
}
