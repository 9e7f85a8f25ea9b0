package bus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigenhq/slowking/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommandFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	b := New(map[domain.Kind]Handler{
		domain.KindCreateBenchmark: func(ctx context.Context, msg domain.Message) ([]domain.Message, error) {
			return nil, boom
		},
	}, nil, testLogger(), nil)

	err := b.Handle(context.Background(), domain.CreateBenchmark{Name: "t"})
	require.ErrorIs(t, err, boom)
}

func TestUnregisteredCommandFails(t *testing.T) {
	b := New(nil, nil, testLogger(), nil)

	err := b.Handle(context.Background(), domain.UpdateDocument{DocumentName: "doc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler registered")
}

func TestEventHandlersFailIndependently(t *testing.T) {
	var calls []string
	b := New(nil, map[domain.Kind][]Handler{
		domain.KindBenchmarkCreated: {
			func(ctx context.Context, msg domain.Message) ([]domain.Message, error) {
				calls = append(calls, "a")
				return nil, errors.New("handler a failed")
			},
			func(ctx context.Context, msg domain.Message) ([]domain.Message, error) {
				calls = append(calls, "b")
				return nil, nil
			},
		},
	}, testLogger(), nil)

	err := b.Handle(context.Background(), domain.BenchmarkCreated{BenchmarkID: 1})
	require.NoError(t, err, "event handler failures must not surface")
	assert.Equal(t, []string{"a", "b"}, calls, "both handlers run, in registration order")
}

func TestEventWithNoHandlersIsQuiet(t *testing.T) {
	b := New(nil, nil, testLogger(), nil)
	require.NoError(t, b.Handle(context.Background(), domain.BenchmarkCompleted{BenchmarkID: 1}))
}

func TestProducedMessagesAreDrainedFIFO(t *testing.T) {
	var order []domain.Kind
	b := New(
		map[domain.Kind]Handler{
			domain.KindCreateBenchmark: func(ctx context.Context, msg domain.Message) ([]domain.Message, error) {
				order = append(order, msg.Kind())
				return []domain.Message{domain.BenchmarkCreated{BenchmarkID: 1}}, nil
			},
		},
		map[domain.Kind][]Handler{
			domain.KindBenchmarkCreated: {
				func(ctx context.Context, msg domain.Message) ([]domain.Message, error) {
					order = append(order, msg.Kind())
					return []domain.Message{domain.ProjectCreated{BenchmarkID: 1}}, nil
				},
			},
			domain.KindProjectCreated: {
				func(ctx context.Context, msg domain.Message) ([]domain.Message, error) {
					order = append(order, msg.Kind())
					return nil, nil
				},
			},
		},
		testLogger(), nil,
	)

	require.NoError(t, b.Handle(context.Background(), domain.CreateBenchmark{Name: "t", BenchmarkType: domain.BenchmarkTypeLatency}))
	assert.Equal(t, []domain.Kind{domain.KindCreateBenchmark, domain.KindBenchmarkCreated, domain.KindProjectCreated}, order)
}

func TestNoOpIsRejected(t *testing.T) {
	b := New(nil, nil, testLogger(), nil)
	err := b.Handle(context.Background(), domain.NoOp{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither command nor event")
}
