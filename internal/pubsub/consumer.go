package pubsub

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/eigenhq/slowking/internal/domain"
)

// MessageHandler receives decoded inbound messages. In the deployed consumer
// this is the message bus.
type MessageHandler interface {
	Handle(ctx context.Context, msg domain.Message) error
}

// Consumer subscribes to the configured channels and feeds decoded messages
// to the bus until its context is cancelled.
type Consumer struct {
	client   *redis.Client
	channels []string
	bus      MessageHandler
	log      *slog.Logger
}

// NewConsumer constructs a Consumer.
func NewConsumer(client *redis.Client, channels []string, bus MessageHandler, log *slog.Logger) *Consumer {
	return &Consumer{client: client, channels: channels, bus: bus, log: log}
}

// Run blocks on the subscription until ctx is done. Decode failures and
// handler errors are logged and the loop continues: one bad message must not
// stop the consumer.
func (c *Consumer) Run(ctx context.Context) error {
	sub := c.client.Subscribe(ctx, c.channels...)
	defer sub.Close()

	c.log.Info("consumer subscribed", "channels", c.channels)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			c.dispatch(ctx, m.Channel, []byte(m.Payload))
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, channel string, data []byte) {
	msg, err := Decode(channel, data)
	if err != nil {
		c.log.Warn("dropping undecodable message", "channel", channel, "error", err)
		return
	}
	if err := c.bus.Handle(ctx, msg); err != nil {
		c.log.Error("message handling failed", "channel", channel, "error", err)
	}
}
