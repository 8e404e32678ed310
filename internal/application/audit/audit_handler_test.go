package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/domain/audit"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Write(ctx context.Context, entries ...audit.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func reversedPayment(t *testing.T, actor uuid.UUID) *trade.Payment {
	t.Helper()
	p, err := trade.NewPayment("PAY-2026-0001", uuid.New(), nil, decimal.NewFromInt(500), "USD",
		trade.PaymentMethodBankTransfer, "wire 42", time.Now(), actor)
	require.NoError(t, err)
	p.ClearDomainEvents()
	require.NoError(t, p.Reverse("bounced", actor, time.Now()))
	return p
}

func TestToEntry_DocumentEvent(t *testing.T) {
	actor := uuid.New()
	p := reversedPayment(t, actor)
	events := p.GetDomainEvents()
	require.Len(t, events, 1)

	entry := ToEntry(events[0])
	assert.Equal(t, trade.AggregateTypePayment, entry.EntityType)
	assert.Equal(t, p.ID, entry.EntityID)
	assert.Equal(t, trade.EventTypePaymentReversed, entry.Action)
	assert.Equal(t, "COMPLETED", entry.Before)
	assert.Equal(t, "REVERSED", entry.After)
	assert.Equal(t, actor, entry.ActorID)
	assert.Equal(t, events[0].EventID(), entry.EventID)
	assert.Equal(t, "PAY-2026-0001", entry.Payload["document_number"])
}

func TestAuditHandler_WritesToEverySink(t *testing.T) {
	first, second := new(MockSink), new(MockSink)
	h := NewAuditHandler(nil, first, second)
	assert.Nil(t, h.EventTypes())

	p := reversedPayment(t, uuid.New())
	match := mock.MatchedBy(func(entries []audit.Entry) bool {
		return len(entries) == 1 && entries[0].EntityID == p.ID
	})
	first.On("Write", mock.Anything, match).Return(nil).Once()
	second.On("Write", mock.Anything, match).Return(nil).Once()

	require.NoError(t, h.Handle(context.Background(), p.GetDomainEvents()[0]))
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestAuditHandler_SinkFailureDoesNotStopOthers(t *testing.T) {
	failing, healthy := new(MockSink), new(MockSink)
	h := NewAuditHandler(nil, failing, healthy)

	failing.On("Write", mock.Anything, mock.Anything).Return(errors.New("bucket unavailable")).Once()
	healthy.On("Write", mock.Anything, mock.Anything).Return(nil).Once()

	err := h.Handle(context.Background(), reversedPayment(t, uuid.New()).GetDomainEvents()[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
	healthy.AssertExpectations(t)
}
