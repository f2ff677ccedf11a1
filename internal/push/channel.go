// internal/push/channel.go
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"instaup-service/internal/domain/order"
	"instaup-service/internal/ledger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Event is one order-progress notification published by the fulfillment
// engine. Delivery is at-least-once with no ordering guarantee; the ledger's
// monotonic merge absorbs both.
type Event struct {
	OrderID  string       `json:"order_id"`
	Status   order.Status `json:"status"`
	Progress int          `json:"progress"`
}

// Channel is a long-lived per-user subscription to order-progress events.
// On connect it replays no history (the reconciliation loop backfills); on
// disconnect it retries with exponential backoff, and while disconnected the
// reconciliation loop is the sole source of freshness.
type Channel struct {
	rdb    *redis.Client
	userID string
	ledger *ledger.Ledger
	logger *zap.Logger
}

func NewChannel(rdb *redis.Client, userID string, ldg *ledger.Ledger, logger *zap.Logger) *Channel {
	return &Channel{
		rdb:    rdb,
		userID: userID,
		ledger: ldg,
		logger: logger,
	}
}

// ChannelKey returns the pub/sub channel name carrying events for a user.
func ChannelKey(userID string) string {
	return fmt.Sprintf("orders:events:%s", userID)
}

// Run subscribes and consumes events until the context is cancelled.
func (c *Channel) Run(ctx context.Context) {
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		err := c.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Warn("push subscription dropped, reconnecting",
				zap.String("user_id", c.userID),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Channel) consume(ctx context.Context) error {
	sub := c.rdb.Subscribe(ctx, ChannelKey(c.userID))
	defer sub.Close()

	// Force the subscribe round trip so connection errors surface here
	// instead of as a silent empty channel.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription channel closed")
			}
			c.handlePayload([]byte(msg.Payload))
		}
	}
}

// handlePayload decodes and applies one event. Malformed payloads are logged
// and dropped; the state-machine check in the ledger is never bypassed.
func (c *Channel) handlePayload(payload []byte) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		c.logger.Warn("dropping malformed push event",
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
		return
	}
	if ev.OrderID == "" {
		c.logger.Warn("dropping push event without order id",
			zap.String("user_id", c.userID))
		return
	}
	c.ledger.ApplyUpdate(order.StatusUpdate{
		OrderID:  ev.OrderID,
		Status:   ev.Status,
		Progress: ev.Progress,
	})
}
