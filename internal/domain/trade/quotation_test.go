package trade

import (
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestQuotation(t *testing.T) *Quotation {
	t.Helper()
	q, err := NewQuotation("QT-2026-0001", uuid.New(), "Acme Ltd", "USD", time.Now().Add(30*24*time.Hour), uuid.New())
	require.NoError(t, err)
	_, err = q.AddItem(stockedLine("10", "100", "5", "10"))
	require.NoError(t, err)
	return q
}

func createAcceptedQuotation(t *testing.T) *Quotation {
	t.Helper()
	q := createTestQuotation(t)
	require.NoError(t, q.Send(uuid.New(), time.Now()))
	require.NoError(t, q.Accept(uuid.New(), time.Now()))
	return q
}

func TestQuotationStatus_CanTransitionTo(t *testing.T) {
	all := []QuotationStatus{
		QuotationStatusDraft, QuotationStatusSent, QuotationStatusAccepted,
		QuotationStatusRejected, QuotationStatusExpired,
	}
	allowed := map[QuotationStatus][]QuotationStatus{
		QuotationStatusDraft: {QuotationStatusSent},
		QuotationStatusSent:  {QuotationStatusAccepted, QuotationStatusRejected, QuotationStatusExpired},
	}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestNewQuotation_ComputesReferenceTotals(t *testing.T) {
	q := createTestQuotation(t)

	assert.Equal(t, QuotationStatusDraft, q.Status)
	assert.True(t, q.Subtotal.Equal(dec("1000")))
	assert.True(t, q.DiscountAmount.Equal(dec("50")))
	assert.True(t, q.TaxAmount.Equal(dec("95")))
	assert.True(t, q.GrandTotal.Equal(dec("1045")))
}

func TestQuotation_SendAcceptFlow(t *testing.T) {
	q := createTestQuotation(t)
	actor := uuid.New()

	require.NoError(t, q.Send(actor, time.Now()))
	assert.Equal(t, QuotationStatusSent, q.Status)
	assert.NotNil(t, q.SentAt)

	require.NoError(t, q.Accept(actor, time.Now()))
	assert.Equal(t, QuotationStatusAccepted, q.Status)

	last := q.GetDomainEvents()[len(q.GetDomainEvents())-1].(*DocumentEvent)
	assert.Equal(t, EventTypeQuotationAccepted, last.EventType())
	assert.Equal(t, "SENT", last.FromStatus)
	assert.Equal(t, "ACCEPTED", last.ToStatus)
	assert.Equal(t, actor, last.ActorID)
}

func TestQuotation_DraftCannotBeAccepted(t *testing.T) {
	q := createTestQuotation(t)

	err := q.Accept(uuid.New(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	assert.Equal(t, QuotationStatusDraft, q.Status)
}

func TestQuotation_AcceptAfterValidityFails(t *testing.T) {
	q := createTestQuotation(t)
	require.NoError(t, q.Send(uuid.New(), time.Now()))

	err := q.Accept(uuid.New(), q.ValidUntil.Add(time.Hour))
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, QuotationStatusSent, q.Status)
}

func TestQuotation_Expire(t *testing.T) {
	q := createTestQuotation(t)
	require.NoError(t, q.Send(uuid.New(), time.Now()))

	assert.ErrorIs(t, q.Expire(uuid.Nil, time.Now()), shared.ErrValidation)

	later := q.ValidUntil.Add(time.Minute)
	require.NoError(t, q.Expire(uuid.Nil, later))
	assert.Equal(t, QuotationStatusExpired, q.Status)
	assert.True(t, q.Status.IsTerminal())

	assert.ErrorIs(t, q.Expire(uuid.Nil, later), shared.ErrInvalidTransition)
}

func TestQuotation_RejectedIsTerminal(t *testing.T) {
	q := createTestQuotation(t)
	require.NoError(t, q.Send(uuid.New(), time.Now()))
	require.NoError(t, q.Reject("price too high", uuid.New(), time.Now()))

	assert.Equal(t, "price too high", q.RejectReason)
	assert.ErrorIs(t, q.Accept(uuid.New(), time.Now()), shared.ErrInvalidTransition)
}

func TestQuotation_EditOnlyInDraft(t *testing.T) {
	q := createTestQuotation(t)
	require.NoError(t, q.SetDiscount(dec("10")))
	assert.True(t, q.GrandTotal.Equal(dec("940.5")))

	require.NoError(t, q.Send(uuid.New(), time.Now()))
	_, err := q.AddItem(stockedLine("1", "1", "0", "0"))
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.ErrorIs(t, q.RemoveItem(q.Items[0].ID), shared.ErrValidation)
}

func TestQuotation_SendRequiresLines(t *testing.T) {
	q, err := NewQuotation("QT-2026-0002", uuid.New(), "Acme", "EUR", time.Now().Add(time.Hour), uuid.New())
	require.NoError(t, err)
	assert.ErrorIs(t, q.Send(uuid.New(), time.Now()), shared.ErrValidation)
}

func TestQuotation_AddItemRejectsZeroQuantity(t *testing.T) {
	q := createTestQuotation(t)

	_, err := q.AddItem(stockedLine("0", "100", "0", "10"))
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeValidation, de.Code)
	assert.Len(t, q.Items, 1)
}
