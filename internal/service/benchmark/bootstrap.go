package benchmark

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eigenhq/slowking/internal/bus"
	"github.com/eigenhq/slowking/internal/domain"
)

// NewBus is the composition root for message handling: it binds the
// service's handlers into immutable registries and returns a ready bus.
// Handlers publish follow-up messages out-of-process via the injected
// Publisher; the bus queue is only exercised by in-process compositions such
// as tests.
func NewBus(svc *Service, log *slog.Logger, reg prometheus.Registerer) *bus.Bus {
	commands := map[domain.Kind]bus.Handler{
		domain.KindCreateBenchmark: adapt(svc.CreateBenchmark),
		domain.KindUpdateDocument:  adapt(svc.UpdateDocument),
	}

	events := map[domain.Kind][]bus.Handler{
		domain.KindBenchmarkCreated: {
			adapt(svc.LogArtifacts),
			adapt(svc.CreateProject),
		},
		domain.KindProjectCreated: {
			adapt(svc.UploadDocuments),
		},
		domain.KindDocumentUpdated: {
			adapt(svc.CheckAllDocumentsUploaded),
		},
		domain.KindAllDocumentsUploaded: {
			adapt(svc.GenerateReport),
		},
		domain.KindBenchmarkCompleted: {
			adapt(svc.NotifyCompleted),
		},
	}

	return bus.New(commands, events, log, reg)
}

// adapt narrows a typed handler to the bus's message signature. A kind/type
// mismatch is a wiring fault, not a runtime condition.
func adapt[M domain.Message](fn func(context.Context, M) error) bus.Handler {
	return func(ctx context.Context, msg domain.Message) ([]domain.Message, error) {
		m, ok := msg.(M)
		if !ok {
			return nil, fmt.Errorf("handler registered for %T received %T", m, msg)
		}
		return nil, fn(ctx, m)
	}
}
