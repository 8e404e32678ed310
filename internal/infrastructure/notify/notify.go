// Package notify delivers customer notifications and stock alerts over a
// Redis channel, or to the log when Redis is not configured.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	appinventory "github.com/erp/ordertocash/internal/application/inventory"
	"github.com/erp/ordertocash/internal/application/notification"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel carries customer notifications
const DefaultChannel = "o2c:notifications"

// alertSuffix is appended to the channel for stock alerts
const alertSuffix = ":stock-alerts"

// Sender implements both notification sinks
type Sender interface {
	notification.Notifier
	appinventory.StockAlertNotifier
}

// Publisher is the subset of the go-redis client used for delivery
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSender publishes JSON messages. It reports an error when nobody is
// subscribed so the caller can log the undelivered message.
type RedisSender struct {
	client  Publisher
	channel string
}

// NewRedisSender creates a sender on channel
func NewRedisSender(client Publisher, channel string) *RedisSender {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSender{client: client, channel: channel}
}

// Notify publishes n
func (s *RedisSender) Notify(ctx context.Context, n notification.Notification) error {
	return s.publish(ctx, s.channel, n)
}

// SendAlert publishes alert on the stock alert channel
func (s *RedisSender) SendAlert(ctx context.Context, alert appinventory.StockAlert) error {
	return s.publish(ctx, s.channel+alertSuffix, alert)
}

func (s *RedisSender) publish(ctx context.Context, channel string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	receivers, err := s.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	if receivers == 0 {
		return fmt.Errorf("no subscribers on %s", channel)
	}
	return nil
}

// LogSender writes messages to the log only
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender that logs at info level
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Notify logs n
func (s *LogSender) Notify(_ context.Context, n notification.Notification) error {
	s.logger.Info("Customer notification",
		zap.String("event_type", n.EventType),
		zap.String("document_number", n.DocumentNumber),
		zap.String("customer_id", n.CustomerID.String()),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
	)
	return nil
}

// SendAlert logs alert
func (s *LogSender) SendAlert(_ context.Context, alert appinventory.StockAlert) error {
	s.logger.Warn("Stock alert",
		zap.String("alert_type", alert.AlertType),
		zap.String("item_id", alert.ItemID),
		zap.String("location_id", alert.LocationID),
		zap.String("available", alert.AvailableQuantity),
		zap.String("minimum", alert.MinimumQuantity),
	)
	return nil
}

// FallbackSender tries primary and logs the message through fallback when
// it fails, so a message is never silently lost
type FallbackSender struct {
	primary  Sender
	fallback Sender
	logger   *zap.Logger
}

// New returns a Redis sender with log fallback when client is set, and a
// log-only sender otherwise
func New(client *redis.Client, channel string, logger *zap.Logger) Sender {
	logs := NewLogSender(logger)
	if client == nil {
		return logs
	}
	return &FallbackSender{primary: NewRedisSender(client, channel), fallback: logs, logger: logger}
}

// Notify delivers n
func (s *FallbackSender) Notify(ctx context.Context, n notification.Notification) error {
	if err := s.primary.Notify(ctx, n); err != nil {
		s.logger.Warn("Notification channel unavailable, logging instead", zap.Error(err))
		return s.fallback.Notify(ctx, n)
	}
	return nil
}

// SendAlert delivers alert
func (s *FallbackSender) SendAlert(ctx context.Context, alert appinventory.StockAlert) error {
	if err := s.primary.SendAlert(ctx, alert); err != nil {
		s.logger.Warn("Alert channel unavailable, logging instead", zap.Error(err))
		return s.fallback.SendAlert(ctx, alert)
	}
	return nil
}
