package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSchedulerMetrics_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulerMetrics(reg)

	m.ObserveRun("quotation_expiry", 10*time.Millisecond, nil)
	m.ObserveRun("quotation_expiry", 10*time.Millisecond, context.DeadlineExceeded)
	m.AddItems("quotation_expiry", "expired", 3)
	m.AddItems("quotation_expiry", "failed", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("quotation_expiry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobErrors.WithLabelValues("quotation_expiry", ReasonDeadlineExceeded)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.items.WithLabelValues("quotation_expiry", "expired")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.items))
}

func TestSchedulerMetrics_NilIsNoop(t *testing.T) {
	var m *SchedulerMetrics
	assert.NotPanics(t, func() {
		m.ObserveRun("job", time.Second, nil)
		m.AddItems("job", "expired", 1)
	})
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.Canceled, ReasonDeadlineExceeded},
		{shared.NewConcurrencyConflictError("Quotation", uuid.New()), ReasonConflict},
		{shared.NewPersistenceError("save", errors.New("conn reset")), ReasonPersistence},
		{fmt.Errorf("wrapped: %w", shared.NewInvalidTransitionError("Quotation", "DRAFT", "EXPIRED")), ReasonBusinessRule},
		{errors.New("boom"), ReasonUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), tt.err.Error())
	}
}

func TestConversionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversionMetrics(reg)

	m.ObserveConversion("QUOTATION_TO_SALES_ORDER", "created")
	m.ObserveConversion("QUOTATION_TO_SALES_ORDER", "replayed")
	m.ObserveConversion("QUOTATION_TO_SALES_ORDER", "replayed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.conversions.WithLabelValues("QUOTATION_TO_SALES_ORDER", "replayed")))
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	done := m.Begin()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	done("POST", "/api/v1/quotations", 201)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/v1/quotations", "2xx")))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(204))
	assert.Equal(t, "3xx", StatusClass(304))
	assert.Equal(t, "4xx", StatusClass(409))
	assert.Equal(t, "5xx", StatusClass(503))
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
