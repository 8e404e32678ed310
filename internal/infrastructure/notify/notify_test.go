package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	appinventory "github.com/erp/ordertocash/internal/application/inventory"
	"github.com/erp/ordertocash/internal/application/notification"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePublisher struct {
	channel   string
	payload   []byte
	receivers int64
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	p.channel = channel
	p.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if p.err != nil {
		cmd.SetErr(p.err)
	} else {
		cmd.SetVal(p.receivers)
	}
	return cmd
}

func sampleNotification() notification.Notification {
	return notification.Notification{
		ID:             uuid.New(),
		EventType:      "InvoiceSent",
		DocumentType:   "Invoice",
		DocumentNumber: "INV-2024-0001",
		CustomerID:     uuid.New(),
		Subject:        "Invoice INV-2024-0001",
	}
}

func TestRedisSender_Notify(t *testing.T) {
	pub := &fakePublisher{receivers: 1}
	s := NewRedisSender(pub, "")

	require.NoError(t, s.Notify(context.Background(), sampleNotification()))
	assert.Equal(t, DefaultChannel, pub.channel)

	var got notification.Notification
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, "INV-2024-0001", got.DocumentNumber)
}

func TestRedisSender_SendAlertUsesAlertChannel(t *testing.T) {
	pub := &fakePublisher{receivers: 2}
	s := NewRedisSender(pub, "erp")

	require.NoError(t, s.SendAlert(context.Background(), appinventory.StockAlert{ItemID: "i", AlertType: "LOW_STOCK"}))
	assert.Equal(t, "erp:stock-alerts", pub.channel)
}

func TestRedisSender_NoSubscribersIsAnError(t *testing.T) {
	s := NewRedisSender(&fakePublisher{}, "")
	err := s.Notify(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no subscribers")
}

func TestFallbackSender_LogsWhenRedisFails(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	s := &FallbackSender{
		primary:  NewRedisSender(&fakePublisher{err: errors.New("connection refused")}, ""),
		fallback: NewLogSender(logger),
		logger:   logger,
	}

	require.NoError(t, s.Notify(context.Background(), sampleNotification()))
	assert.Equal(t, 1, logs.FilterMessage("Notification channel unavailable, logging instead").Len())
	assert.Equal(t, 1, logs.FilterMessage("Customer notification").Len())

	require.NoError(t, s.SendAlert(context.Background(), appinventory.StockAlert{ItemID: "i"}))
	assert.Equal(t, 1, logs.FilterMessage("Stock alert").Len())
}

func TestNew_WithoutClientLogs(t *testing.T) {
	_, ok := New(nil, "", zap.NewNop()).(*LogSender)
	assert.True(t, ok)
}
