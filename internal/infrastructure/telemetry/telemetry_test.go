package telemetry

import (
	"context"
	"testing"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Meter())
	assert.NoError(t, p.Shutdown(context.Background()))

	core, recorded := observer.New(zapcore.InfoLevel)
	l := p.WrapLogger(zap.New(core))
	l.Info("passthrough")
	assert.Len(t, recorded.All(), 1)
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestNewProfiler(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "o2c"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewDBTracingPlugin(t *testing.T) {
	assert.Nil(t, NewDBTracingPlugin(DBTracingConfig{Enabled: false}))
	assert.NotNil(t, NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}))
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestBusinessMetrics(t *testing.T) {
	_, err := NewBusinessMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewBusinessMetrics(provider.Meter(InstrumentationName))
	require.NoError(t, err)

	m.ObserveConversion(string(trade.ConversionQuotationToOrder), "created")
	m.ObserveConversion(string(trade.ConversionQuotationToOrder), "replayed")

	paid := &trade.DocumentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(trade.EventTypePaymentRecorded, trade.AggregateTypePayment, uuid.New()),
		Amount:          decimal.NewFromInt(500),
		Currency:        "USD",
	}
	require.NoError(t, m.Handle(context.Background(), paid))
	assert.Empty(t, m.EventTypes())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(2), sumOf(t, rm, "o2c.conversions"))
	assert.Equal(t, int64(1), sumOf(t, rm, "o2c.domain_events"))
}
