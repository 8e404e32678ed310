package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types   []string
	mu      sync.Mutex
	handled []shared.DomainEvent
	err     error
	panics  bool
}

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	if h.panics {
		panic("handler bug")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, e)
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func docEvent(eventType string) *trade.DocumentEvent {
	return &trade.DocumentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, trade.AggregateTypeInvoice, uuid.New()),
		DocumentNumber:  "INV-2024-0001",
		ToStatus:        "POSTED",
		Amount:          decimal.NewFromInt(1045),
		Currency:        "USD",
	}
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	posted := &recordingHandler{types: []string{trade.EventTypeInvoicePosted}}
	all := &recordingHandler{}
	bus.Subscribe(posted)
	bus.Subscribe(all)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, docEvent(trade.EventTypeInvoicePosted), docEvent(trade.EventTypeInvoiceSent)))

	assert.Equal(t, 1, posted.count())
	assert.Equal(t, 2, all.count())

	bus.Unsubscribe(all)
	require.NoError(t, bus.Publish(ctx, docEvent(trade.EventTypeInvoicePosted)))
	assert.Equal(t, 2, all.count())
	assert.Equal(t, 2, posted.count())
}

func TestInMemoryEventBus_FailuresAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(&recordingHandler{panics: true})
	bus.Subscribe(&recordingHandler{err: errors.New("boom")})
	ok := &recordingHandler{}
	bus.Subscribe(ok)

	assert.NoError(t, bus.Publish(context.Background(), docEvent(trade.EventTypeInvoicePaid)))
	assert.Equal(t, 1, ok.count())
}

func TestInMemoryEventBus_StopDropsEvents(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{}
	bus.Subscribe(h)

	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Publish(ctx, docEvent(trade.EventTypeInvoicePaid)))
	assert.Equal(t, 0, h.count())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, docEvent(trade.EventTypeInvoicePaid)))
	assert.Equal(t, 1, h.count())
}

// memoryStore is a minimal IdempotencyStore for handler tests
type memoryStore struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func newMemoryStore() *memoryStore { return &memoryStore{keys: map[string]bool{}} }

func (s *memoryStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memoryStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *memoryStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *memoryStore) Close() error { return nil }

type otherHandler struct{ recordingHandler }

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()
	cfg := shared.IdempotencyConfig{Enabled: true, TTL: time.Hour}

	t.Run("redelivery is handled once", func(t *testing.T) {
		inner := &recordingHandler{}
		h := NewIdempotentHandler(inner, newMemoryStore(), cfg, nil)
		e := docEvent(trade.EventTypePaymentRecorded)

		require.NoError(t, h.Handle(ctx, e))
		require.NoError(t, h.Handle(ctx, e))

		assert.Equal(t, 1, inner.count())
		assert.Equal(t, IdempotencyStats{EventsProcessed: 1, EventsDuplicate: 1}, h.Stats())
	})

	t.Run("handlers sharing a store do not suppress each other", func(t *testing.T) {
		store := newMemoryStore()
		first := &recordingHandler{}
		second := &otherHandler{}
		e := docEvent(trade.EventTypeInvoiceSent)

		require.NoError(t, NewIdempotentHandler(first, store, cfg, nil).Handle(ctx, e))
		require.NoError(t, NewIdempotentHandler(second, store, cfg, nil).Handle(ctx, e))

		assert.Equal(t, 1, first.count())
		assert.Equal(t, 1, second.count())
	})

	t.Run("failure releases the claim", func(t *testing.T) {
		inner := &recordingHandler{err: errors.New("smtp down")}
		h := NewIdempotentHandler(inner, newMemoryStore(), cfg, nil)
		e := docEvent(trade.EventTypeInvoiceSent)

		assert.Error(t, h.Handle(ctx, e))
		inner.err = nil
		assert.NoError(t, h.Handle(ctx, e))
		assert.Equal(t, 2, inner.count())
		assert.Equal(t, int64(1), h.Stats().EventsFailed)
	})

	t.Run("store errors fall through to processing", func(t *testing.T) {
		store := newMemoryStore()
		store.err = errors.New("redis unavailable")
		inner := &recordingHandler{}
		h := NewIdempotentHandler(inner, store, cfg, nil)

		require.NoError(t, h.Handle(ctx, docEvent(trade.EventTypeInvoiceSent)))
		assert.Equal(t, 1, inner.count())
	})

	t.Run("disabled config bypasses the store", func(t *testing.T) {
		inner := &recordingHandler{types: []string{"X"}}
		h := NewIdempotentHandler(inner, nil, shared.IdempotencyConfig{}, nil)
		e := docEvent(trade.EventTypeInvoiceSent)

		require.NoError(t, h.Handle(ctx, e))
		require.NoError(t, h.Handle(ctx, e))
		assert.Equal(t, 2, inner.count())
		assert.Equal(t, []string{"X"}, h.EventTypes())
	})
}

func TestEncode(t *testing.T) {
	e := docEvent(trade.EventTypeInvoicePosted)

	data, err := Encode(e)
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))

	assert.Equal(t, e.EventID(), env.ID)
	assert.Equal(t, trade.EventTypeInvoicePosted, env.Type)
	assert.Equal(t, trade.AggregateTypeInvoice, env.AggregateType)
	assert.Contains(t, string(env.Payload), `"document_number":"INV-2024-0001"`)
}

type fakePublisher struct {
	channel string
	message any
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	p.channel = channel
	p.message = message
	cmd := redis.NewIntCmd(ctx)
	if p.err != nil {
		cmd.SetErr(p.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisRelay(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRedisRelay(pub, "", nil)

	require.NoError(t, relay.Handle(context.Background(), docEvent(trade.EventTypeInvoicePaid)))
	assert.Equal(t, DefaultRelayChannel, pub.channel)
	var env Envelope
	require.NoError(t, json.Unmarshal(pub.message.([]byte), &env))
	assert.Equal(t, trade.EventTypeInvoicePaid, env.Type)
	assert.Nil(t, relay.EventTypes())

	pub.err = errors.New("connection refused")
	assert.Error(t, relay.Handle(context.Background(), docEvent(trade.EventTypeInvoicePaid)))
}
