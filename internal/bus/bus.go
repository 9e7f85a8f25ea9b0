// Package bus dispatches commands and events to their registered handlers.
//
// Commands have exactly one handler and fail noisily: the caller learns about
// any failure. Events are broadcast to every registered handler in
// registration order and fail independently: one listener's error is logged
// and the rest still run. The bus itself keeps no state between Handle calls;
// durable workflow state lives in the benchmark aggregate and on the wire.
package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eigenhq/slowking/internal/domain"
)

// Handler processes one message. Messages it returns are appended to the
// in-flight FIFO queue and processed in the same Handle call; handlers that
// publish out-of-process instead return nil.
type Handler func(ctx context.Context, msg domain.Message) ([]domain.Message, error)

// Bus routes messages by kind. Registries are fixed at construction; there is
// no ambient global instance.
type Bus struct {
	commandHandlers map[domain.Kind]Handler
	eventHandlers   map[domain.Kind][]Handler
	log             *slog.Logger

	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// New builds a Bus over the given handler registries.
func New(commands map[domain.Kind]Handler, events map[domain.Kind][]Handler, log *slog.Logger, reg prometheus.Registerer) *Bus {
	b := &Bus{
		commandHandlers: commands,
		eventHandlers:   events,
		log:             log,
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slowking",
			Subsystem: "bus",
			Name:      "messages_processed_total",
			Help:      "Messages dispatched by the bus",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slowking",
			Subsystem: "bus",
			Name:      "handler_failures_total",
			Help:      "Handler invocations that returned an error",
		}, []string{"kind"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{b.processed, b.failed} {
			if err := reg.Register(c); err != nil {
				if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
					if v, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
						if c == b.processed {
							b.processed = v
						} else {
							b.failed = v
						}
					}
				}
			}
		}
	}
	return b
}

// Handle processes msg and drains any messages produced while handling it.
// A command handler error aborts the drain and propagates; event handler
// errors are swallowed per handler.
func (b *Bus) Handle(ctx context.Context, msg domain.Message) error {
	queue := []domain.Message{msg}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		b.processed.WithLabelValues(m.Kind().String()).Inc()

		switch {
		case m.Kind().IsEvent():
			queue = append(queue, b.handleEvent(ctx, m)...)
		case m.Kind().IsCommand():
			produced, err := b.handleCommand(ctx, m)
			if err != nil {
				return err
			}
			queue = append(queue, produced...)
		default:
			return fmt.Errorf("bus: message kind %s is neither command nor event", m.Kind())
		}
	}
	return nil
}

func (b *Bus) handleCommand(ctx context.Context, cmd domain.Message) ([]domain.Message, error) {
	handler, ok := b.commandHandlers[cmd.Kind()]
	if !ok {
		return nil, fmt.Errorf("bus: no handler registered for command %s", cmd.Kind())
	}
	b.log.Info("handling command", "kind", cmd.Kind().String())
	produced, err := handler(ctx, cmd)
	if err != nil {
		b.failed.WithLabelValues(cmd.Kind().String()).Inc()
		return nil, fmt.Errorf("bus: command %s: %w", cmd.Kind(), err)
	}
	return produced, nil
}

func (b *Bus) handleEvent(ctx context.Context, event domain.Message) []domain.Message {
	var produced []domain.Message
	for _, handler := range b.eventHandlers[event.Kind()] {
		b.log.Info("handling event", "kind", event.Kind().String())
		out, err := handler(ctx, event)
		if err != nil {
			b.failed.WithLabelValues(event.Kind().String()).Inc()
			b.log.Error("event handler failed", "kind", event.Kind().String(), "error", err)
			continue
		}
		produced = append(produced, out...)
	}
	return produced
}
