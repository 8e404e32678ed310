package scheduler

import (
	"context"
	"time"

	apptrade "github.com/erp/ordertocash/internal/application/trade"
	"github.com/erp/ordertocash/internal/infrastructure/metrics"
)

// QuotationExpiryJobName labels the sweep in logs and metrics
const QuotationExpiryJobName = "quotation_expiry"

// QuotationExpirer expires overdue quotations
type QuotationExpirer interface {
	ExpireOverdue(ctx context.Context, asOf time.Time) (apptrade.ExpiryStats, error)
}

// QuotationExpiryJob builds the periodic sweep. Quotations that fail to
// expire are left SENT and retried on the next tick.
func QuotationExpiryJob(expirer QuotationExpirer, interval, timeout time.Duration, m *metrics.SchedulerMetrics) Job {
	return Job{
		Name:       QuotationExpiryJobName,
		Interval:   interval,
		Timeout:    timeout,
		RunOnStart: true,
		Run: func(ctx context.Context, now time.Time) error {
			stats, err := expirer.ExpireOverdue(ctx, now.UTC())
			m.AddItems(QuotationExpiryJobName, "expired", stats.Expired)
			m.AddItems(QuotationExpiryJobName, "failed", stats.Failed)
			return err
		},
	}
}
