// Package pubsub carries messages between processes over redis channels.
// Delivery is best-effort, at-most-once: there is no persistent log and a
// message published with no listener is gone.
package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/eigenhq/slowking/internal/domain"
)

// Publisher fires messages onto their channel. Channels outside the
// allow-list are dropped with a warning rather than published, so a handler
// can never emit onto a topic nothing subscribes to.
type Publisher struct {
	client  *redis.Client
	allowed map[string]struct{}
	log     *slog.Logger
}

// NewPublisher constructs a Publisher restricted to the given channels.
func NewPublisher(client *redis.Client, channels []string, log *slog.Logger) *Publisher {
	allowed := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		allowed[ch] = struct{}{}
	}
	return &Publisher{client: client, allowed: allowed, log: log}
}

// Publish encodes msg and fires it onto its channel.
func (p *Publisher) Publish(ctx context.Context, msg domain.Message) error {
	channel := msg.Channel()
	if _, ok := p.allowed[channel]; !ok {
		p.log.Warn("channel not in subscribed channels, dropping message", "channel", channel, "kind", msg.Kind().String())
		return nil
	}

	data, err := Encode(msg)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("pubsub: publish to %s: %w", channel, err)
	}
	p.log.Info("published message", "channel", channel)
	return nil
}
