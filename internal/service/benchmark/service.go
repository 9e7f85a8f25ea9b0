// Package benchmark implements the workflow handlers behind the message bus:
// creating a run, provisioning the remote project, uploading documents,
// recording upload timings, detecting completion, and reporting.
package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/eigenhq/slowking/internal/artifacts"
	"github.com/eigenhq/slowking/internal/domain"
	"github.com/eigenhq/slowking/internal/eigen"
	"github.com/eigenhq/slowking/internal/notify"
	"github.com/eigenhq/slowking/internal/repository"
)

// Publisher fires an event onto the wire.
type Publisher interface {
	Publish(ctx context.Context, msg domain.Message) error
}

// Platform is the slice of the external document platform the handlers use.
type Platform interface {
	CreateProject(ctx context.Context, name, description string) (eigen.Project, error)
	UploadFiles(ctx context.Context, documentTypeID int64, paths []string) error
}

// PlatformFactory builds an authenticated platform client for one target.
// Credentials come from the aggregate at call time, so rotated credentials
// take effect on the next workflow stage.
type PlatformFactory func(ctx context.Context, baseURL, username, password string) (Platform, error)

// Reporter renders a benchmark's results.
type Reporter interface {
	Create(bm *domain.Benchmark) (string, error)
}

// Options bound the document-update retry loop.
type Options struct {
	ArtifactsDir  string
	RetryAttempts uint64
	RetryInterval time.Duration
}

// Service holds the collaborators shared by all workflow handlers.
type Service struct {
	repo      repository.BenchmarkRepository
	publisher Publisher
	platform  PlatformFactory
	sequencer domain.Sequencer
	reporter  Reporter
	notifier  notify.Notifier
	log       *slog.Logger
	opts      Options
}

// New constructs the handler set.
func New(repo repository.BenchmarkRepository, publisher Publisher, platform PlatformFactory, reporter Reporter, notifier notify.Notifier, log *slog.Logger, opts Options) *Service {
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 10
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = time.Second
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		platform:  platform,
		sequencer: domain.NewSequencer(),
		reporter:  reporter,
		notifier:  notifier,
		log:       log,
		opts:      opts,
	}
}

// CreateBenchmark discovers the artifact set, persists a fresh aggregate and
// announces it. The run name is timestamp-prefixed so repeated runs with the
// same name stay distinguishable.
func (s *Service) CreateBenchmark(ctx context.Context, cmd domain.CreateBenchmark) error {
	docs, err := artifacts.Discover(s.opts.ArtifactsDir)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s - %s", time.Now().UTC().Format("2006-01-02, 15:04:05"), cmd.Name)
	project := domain.Project{Name: name, Documents: docs}

	bm, err := domain.NewBenchmark(name, cmd.BenchmarkType, cmd.TargetInfra, cmd.TargetURL, cmd.Username, cmd.Password, cmd.PlatformVersion, project)
	if err != nil {
		return err
	}
	if err := s.repo.Add(ctx, bm); err != nil {
		return fmt.Errorf("persist benchmark: %w", err)
	}
	s.log.Info("benchmark created", "benchmark_id", bm.ID, "name", bm.Name, "documents", len(docs))

	next, err := s.sequencer.NextEvent(bm.BenchmarkType, cmd, bm.ID)
	if err != nil || next == nil {
		return err
	}
	created, ok := next.(domain.BenchmarkCreated)
	if !ok {
		return fmt.Errorf("unexpected successor %s for create benchmark", next.Kind())
	}
	created.Name = cmd.Name
	created.BenchmarkType = bm.BenchmarkType
	created.TargetInfra = bm.TargetInfra
	created.TargetURL = bm.TargetURL
	created.PlatformVersion = bm.PlatformVersion
	created.Username = bm.Username
	created.Password = bm.Password
	return s.publisher.Publish(ctx, created)
}

// LogArtifacts announces the artifact set attached to a new run. It is a
// sibling listener of CreateProject on the same event.
func (s *Service) LogArtifacts(ctx context.Context, event domain.BenchmarkCreated) error {
	bm, err := s.repo.GetByID(ctx, event.BenchmarkID)
	if err != nil {
		return err
	}
	for i := range bm.Project.Documents {
		s.log.Info("benchmark artifact", "benchmark_id", bm.ID, "document", bm.Project.Documents[i].Name)
	}
	return nil
}

// CreateProject provisions the remote project for a new run. The aggregate
// is re-fetched rather than trusted from the event payload: credentials and
// target may have rotated since the event was emitted.
func (s *Service) CreateProject(ctx context.Context, event domain.BenchmarkCreated) error {
	bm, err := s.repo.GetByID(ctx, event.BenchmarkID)
	if err != nil {
		return fmt.Errorf("load benchmark %d: %w", event.BenchmarkID, err)
	}

	client, err := s.platform(ctx, bm.TargetURL, bm.Username, bm.Password)
	if err != nil {
		return fmt.Errorf("authenticate against %s: %w", bm.TargetURL, err)
	}
	remote, err := client.CreateProject(ctx, bm.Project.Name, bm.BenchmarkType)
	if err != nil {
		return fmt.Errorf("create remote project: %w", err)
	}

	bm.Project.EigenProjectID = &remote.DocumentTypeID
	if err := s.repo.Save(ctx, bm); err != nil {
		return fmt.Errorf("persist remote project id: %w", err)
	}
	s.log.Info("remote project created", "benchmark_id", bm.ID, "eigen_project_id", remote.DocumentTypeID)

	next, err := s.sequencer.NextEvent(bm.BenchmarkType, event, bm.ID)
	if err != nil || next == nil {
		return err
	}
	created, ok := next.(domain.ProjectCreated)
	if !ok {
		return fmt.Errorf("unexpected successor %s for benchmark created", next.Kind())
	}
	created.EigenProjectID = remote.DocumentTypeID
	created.TargetURL = bm.TargetURL
	created.Username = bm.Username
	created.Password = bm.Password
	return s.publisher.Publish(ctx, created)
}

// UploadDocuments pushes every artifact to the remote project. The latency
// workflow pauses after this stage: upload timings arrive as external
// UpdateDocument commands once the instrumented target reports them.
func (s *Service) UploadDocuments(ctx context.Context, event domain.ProjectCreated) error {
	bm, err := s.repo.GetByID(ctx, event.BenchmarkID)
	if err != nil {
		return fmt.Errorf("load benchmark %d: %w", event.BenchmarkID, err)
	}
	if bm.Project.EigenProjectID == nil {
		return fmt.Errorf("benchmark %d has no remote project id", bm.ID)
	}

	client, err := s.platform(ctx, bm.TargetURL, bm.Username, bm.Password)
	if err != nil {
		return fmt.Errorf("authenticate against %s: %w", bm.TargetURL, err)
	}

	paths := make([]string, 0, len(bm.Project.Documents))
	for i := range bm.Project.Documents {
		paths = append(paths, bm.Project.Documents[i].FilePath)
	}
	if err := client.UploadFiles(ctx, *bm.Project.EigenProjectID, paths); err != nil {
		return fmt.Errorf("upload documents: %w", err)
	}
	s.log.Info("documents uploaded, awaiting timing updates", "benchmark_id", bm.ID, "count", len(paths))

	// The sequencer maps ProjectCreated to the wait sentinel; nothing is
	// published here.
	next, err := s.sequencer.NextEvent(bm.BenchmarkType, event, bm.ID)
	if err != nil {
		return err
	}
	if next != nil {
		return s.publisher.Publish(ctx, next)
	}
	return nil
}

// UpdateDocument records one side of a document's upload timing. Multiple
// updates race on the same aggregate across processes, so the
// locate-mutate-persist sequence retries on transient storage-consistency
// errors with a fixed interval. Exhaustion propagates the error and skips
// the publish; nothing downstream sees a half-applied update.
func (s *Service) UpdateDocument(ctx context.Context, cmd domain.UpdateDocument) error {
	var bm *domain.Benchmark

	backoff := retry.WithMaxRetries(s.opts.RetryAttempts, retry.NewConstant(s.opts.RetryInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		loaded, err := s.repo.GetByHostAndProjectID(ctx, cmd.BenchmarkHostName, cmd.EigenProjectID)
		if err != nil {
			return retryTransient(err)
		}
		doc := loaded.Project.FindDocument(cmd.DocumentName)
		if doc == nil {
			return fmt.Errorf("document %q not in benchmark %d", cmd.DocumentName, loaded.ID)
		}

		doc.EigenDocumentID = &cmd.EigenDocumentID
		if cmd.StartTime != nil {
			doc.UploadTimeStart = cmd.StartTime
		}
		if cmd.EndTime != nil {
			doc.UploadTimeEnd = cmd.EndTime
		}
		if err := s.repo.Save(ctx, loaded); err != nil {
			return retryTransient(err)
		}
		bm = loaded
		return nil
	})
	if err != nil {
		return fmt.Errorf("update document %q: %w", cmd.DocumentName, err)
	}
	s.log.Info("document updated", "benchmark_id", bm.ID, "document", cmd.DocumentName)

	next, err := s.sequencer.NextEvent(bm.BenchmarkType, cmd, bm.ID)
	if err != nil || next == nil {
		return err
	}
	updated, ok := next.(domain.DocumentUpdated)
	if !ok {
		return fmt.Errorf("unexpected successor %s for update document", next.Kind())
	}
	updated.EigenDocumentID = cmd.EigenDocumentID
	updated.DocumentName = cmd.DocumentName
	updated.EigenProjectID = cmd.EigenProjectID
	return s.publisher.Publish(ctx, updated)
}

// retryTransient marks storage-consistency errors retryable; everything else
// fails the loop immediately.
func retryTransient(err error) error {
	if repository.IsTransient(err) {
		return retry.RetryableError(err)
	}
	return err
}

// CheckAllDocumentsUploaded loads the aggregate fresh and declares completion
// iff every document has a defined upload time. The strict equality count is
// the termination condition; a document with only a start stamp does not
// count. Re-delivered events after completion are ignored.
func (s *Service) CheckAllDocumentsUploaded(ctx context.Context, event domain.DocumentUpdated) error {
	bm, err := s.repo.GetByID(ctx, event.BenchmarkID)
	if err != nil {
		return fmt.Errorf("load benchmark %d: %w", event.BenchmarkID, err)
	}
	if bm.Project.AllDocsUploadedAt != nil {
		return nil
	}
	if !bm.Project.AllUploaded() {
		return nil
	}

	now := time.Now().UTC()
	bm.Project.AllDocsUploadedAt = &now
	if err := s.repo.Save(ctx, bm); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}
	s.log.Info("all documents uploaded", "benchmark_id", bm.ID)

	next, err := s.sequencer.NextEvent(bm.BenchmarkType, event, bm.ID)
	if err != nil || next == nil {
		return err
	}
	return s.publisher.Publish(ctx, next)
}

// GenerateReport renders the run's results and announces completion.
func (s *Service) GenerateReport(ctx context.Context, event domain.AllDocumentsUploaded) error {
	bm, err := s.repo.GetByID(ctx, event.BenchmarkID)
	if err != nil {
		return fmt.Errorf("load benchmark %d: %w", event.BenchmarkID, err)
	}

	path, err := s.reporter.Create(bm)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	if err := s.notifier.Send(bm, fmt.Sprintf("report generated at %s", path)); err != nil {
		s.log.Warn("report notification failed", "benchmark_id", bm.ID, "error", err)
	}

	next, err := s.sequencer.NextEvent(bm.BenchmarkType, event, bm.ID)
	if err != nil || next == nil {
		return err
	}
	return s.publisher.Publish(ctx, next)
}

// NotifyCompleted announces the terminal state of a run. BenchmarkCompleted
// has no successor; the sequencer is not consulted.
func (s *Service) NotifyCompleted(ctx context.Context, event domain.BenchmarkCompleted) error {
	bm, err := s.repo.GetByID(ctx, event.BenchmarkID)
	if err != nil {
		return fmt.Errorf("load benchmark %d: %w", event.BenchmarkID, err)
	}
	if err := s.notifier.Send(bm, "benchmark completed"); err != nil {
		return err
	}
	s.log.Info("benchmark completed", "benchmark_id", bm.ID, "name", bm.Name)
	return nil
}
