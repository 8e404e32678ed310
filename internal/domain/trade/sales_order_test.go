package trade

import (
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func stockedLine(qty, price, disc, tax string) LineItemInput {
	itemID := uuid.New()
	return LineItemInput{
		ItemID:      &itemID,
		ItemCode:    "SKU-001",
		Description: "Widget",
		Quantity:    dec(qty),
		UnitPrice:   dec(price),
		DiscountPct: dec(disc),
		TaxRatePct:  dec(tax),
	}
}

func createTestOrder(t *testing.T) *SalesOrder {
	t.Helper()
	order, err := NewSalesOrder("SO-2026-0001", uuid.New(), "Acme Ltd", "USD", uuid.New(), uuid.New())
	require.NoError(t, err)
	return order
}

func createProcessingOrder(t *testing.T, qty string) *SalesOrder {
	t.Helper()
	order := createTestOrder(t)
	_, err := order.AddItem(stockedLine(qty, "100", "5", "10"))
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, order.Confirm("PO-778", uuid.New(), now))
	require.NoError(t, order.StartProcessing(uuid.New(), now))
	return order
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     OrderStatus
		to       OrderStatus
		canTrans bool
	}{
		{OrderStatusDraft, OrderStatusConfirmed, true},
		{OrderStatusDraft, OrderStatusCancelled, true},
		{OrderStatusDraft, OrderStatusProcessing, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, false},
		{OrderStatusProcessing, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatus("BOGUS").IsValid())
}

func TestNewSalesOrder_Validation(t *testing.T) {
	_, err := NewSalesOrder("", uuid.New(), "Acme", "USD", uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewSalesOrder("SO-1", uuid.Nil, "Acme", "USD", uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewSalesOrder("SO-1", uuid.New(), "Acme", "US", uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewSalesOrder("SO-1", uuid.New(), "Acme", "USD", uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestSalesOrder_AddItemRecalculatesTotals(t *testing.T) {
	order := createTestOrder(t)
	item, err := order.AddItem(stockedLine("10", "100", "5", "10"))
	require.NoError(t, err)

	assert.Equal(t, 1, item.LineNo)
	assert.True(t, order.Subtotal.Equal(dec("1000")))
	assert.True(t, order.DiscountAmount.Equal(dec("50")))
	assert.True(t, order.TaxAmount.Equal(dec("95")))
	assert.True(t, order.GrandTotal.Equal(dec("1045")))

	require.NoError(t, order.UpdateItem(item.ID, stockedLine("20", "100", "5", "10")))
	assert.True(t, order.GrandTotal.Equal(dec("2090")))

	require.NoError(t, order.RemoveItem(item.ID))
	assert.True(t, order.GrandTotal.IsZero())
}

func TestSalesOrder_ConfirmRequiresPORef(t *testing.T) {
	order := createTestOrder(t)
	_, err := order.AddItem(stockedLine("1", "10", "0", "0"))
	require.NoError(t, err)

	err = order.Confirm("  ", uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, OrderStatusDraft, order.Status)

	require.NoError(t, order.Confirm("PO-1", uuid.New(), time.Now()))
	assert.Equal(t, OrderStatusConfirmed, order.Status)
	assert.Equal(t, "PO-1", order.CustomerPORef)
	assert.NotNil(t, order.ConfirmedAt)
}

func TestSalesOrder_ConfirmRequiresLines(t *testing.T) {
	order := createTestOrder(t)
	err := order.Confirm("PO-1", uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestSalesOrder_LinesLockedAfterDraft(t *testing.T) {
	order := createProcessingOrder(t, "5")
	_, err := order.AddItem(stockedLine("1", "1", "0", "0"))
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.ErrorIs(t, order.SetDiscount(dec("5")), shared.ErrValidation)
}

func TestSalesOrder_Cancel(t *testing.T) {
	t.Run("confirmed order reports reservations", func(t *testing.T) {
		order := createTestOrder(t)
		_, err := order.AddItem(stockedLine("1", "10", "0", "0"))
		require.NoError(t, err)
		require.NoError(t, order.Confirm("PO", uuid.New(), time.Now()))

		wasConfirmed, err := order.Cancel("customer changed mind", uuid.New(), time.Now())
		require.NoError(t, err)
		assert.True(t, wasConfirmed)
		assert.Equal(t, OrderStatusCancelled, order.Status)
	})

	t.Run("processing order cannot be cancelled", func(t *testing.T) {
		order := createProcessingOrder(t, "3")
		_, err := order.Cancel("too late", uuid.New(), time.Now())
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Equal(t, OrderStatusProcessing, order.Status)
	})

	t.Run("reason required", func(t *testing.T) {
		order := createTestOrder(t)
		_, err := order.Cancel("", uuid.New(), time.Now())
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestSalesOrder_ConfirmedCannotJumpToShipped(t *testing.T) {
	order := createTestOrder(t)
	item, err := order.AddItem(stockedLine("10", "100", "0", "0"))
	require.NoError(t, err)
	require.NoError(t, order.Confirm("PO", uuid.New(), time.Now()))

	err = order.ApplyShippedQuantities(map[uuid.UUID]decimal.Decimal{item.ID: dec("3")}, uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestSalesOrder_ApplyShippedQuantities_PartialThenFull(t *testing.T) {
	order := createProcessingOrder(t, "10")
	lineID := order.Items[0].ID
	actor := uuid.New()

	require.NoError(t, order.ApplyShippedQuantities(map[uuid.UUID]decimal.Decimal{lineID: dec("3")}, actor, time.Now()))
	assert.Equal(t, OrderStatusShipped, order.Status)

	require.NoError(t, order.ApplyShippedQuantities(map[uuid.UUID]decimal.Decimal{lineID: dec("7")}, actor, time.Now()))
	assert.Equal(t, OrderStatusShipped, order.Status)

	require.NoError(t, order.ApplyShippedQuantities(map[uuid.UUID]decimal.Decimal{lineID: dec("10")}, actor, time.Now()))
	assert.Equal(t, OrderStatusDelivered, order.Status)
	assert.NotNil(t, order.DeliveredAt)
}

func TestSalesOrder_ApplyShippedQuantities_SingleShipmentDeliversThroughShipped(t *testing.T) {
	order := createProcessingOrder(t, "4")
	order.ClearDomainEvents()

	require.NoError(t, order.ApplyShippedQuantities(map[uuid.UUID]decimal.Decimal{order.Items[0].ID: dec("4")}, uuid.New(), time.Now()))
	assert.Equal(t, OrderStatusDelivered, order.Status)

	events := order.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeSalesOrderShipped, events[0].EventType())
	assert.Equal(t, EventTypeSalesOrderDelivered, events[1].EventType())
}

func TestSalesOrder_ApplyShippedQuantities_RejectsOverShipment(t *testing.T) {
	order := createProcessingOrder(t, "2")
	err := order.ApplyShippedQuantities(map[uuid.UUID]decimal.Decimal{order.Items[0].ID: dec("3")}, uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrOverShipment)
}

func TestSalesOrder_ApplyInvoicedQuantities(t *testing.T) {
	order := createProcessingOrder(t, "10")
	lineID := order.Items[0].ID

	require.NoError(t, order.ApplyInvoicedQuantities(map[uuid.UUID]decimal.Decimal{lineID: dec("6")}))
	assert.True(t, order.Items[0].QuantityInvoiced.Equal(dec("6")))
	assert.True(t, order.Items[0].RemainingToInvoice().Equal(dec("4")))

	err := order.ApplyInvoicedQuantities(map[uuid.UUID]decimal.Decimal{lineID: dec("11")})
	assert.ErrorIs(t, err, shared.ErrOverInvoice)
}

func TestNewSalesOrderFromQuotation(t *testing.T) {
	q := createAcceptedQuotation(t)

	order, err := NewSalesOrderFromQuotation("SO-2026-0002", q, uuid.New(), uuid.New())
	require.NoError(t, err)

	require.NotNil(t, order.QuotationID)
	assert.Equal(t, q.ID, *order.QuotationID)
	require.Len(t, order.Items, len(q.Items))
	for i := range q.Items {
		assert.Equal(t, q.Items[i].LineNo, order.Items[i].LineNo)
		assert.Equal(t, q.Items[i].Description, order.Items[i].Description)
		assert.True(t, q.Items[i].Total.Equal(order.Items[i].Total))
		assert.NotEqual(t, q.Items[i].ID, order.Items[i].ID)
	}
	assert.True(t, order.GrandTotal.Equal(dec("1045")))
	assert.Equal(t, OrderStatusDraft, order.Status)
}

func TestNewSalesOrderFromQuotation_DetectsDrift(t *testing.T) {
	q := createAcceptedQuotation(t)
	q.GrandTotal = q.GrandTotal.Add(dec("0.05"))

	_, err := NewSalesOrderFromQuotation("SO-2026-0003", q, uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.CodeTotalsDrift))
}

func TestNewSalesOrderFromQuotation_RequiresAccepted(t *testing.T) {
	q := createTestQuotation(t)
	_, err := NewSalesOrderFromQuotation("SO-2026-0004", q, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}
