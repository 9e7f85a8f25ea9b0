// Package postgres implements the benchmark repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eigenhq/slowking/internal/domain"
	"github.com/eigenhq/slowking/internal/repository"
)

// Repository persists Benchmark aggregates on a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ repository.BenchmarkRepository = (*Repository)(nil)

// WithTx runs fn inside a transaction, committing on a clean return and
// rolling back on error or panic.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Add inserts the whole aggregate and assigns database identities.
func (r *Repository) Add(ctx context.Context, bm *domain.Benchmark) error {
	return WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insertBenchmark = `INSERT INTO benchmarks (name, benchmark_type, target_infra, target_url, username, password, platform_version)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
		if err := tx.QueryRow(ctx, insertBenchmark, bm.Name, bm.BenchmarkType, bm.TargetInfra, bm.TargetURL, bm.Username, bm.Password, bm.PlatformVersion).Scan(&bm.ID); err != nil {
			return fmt.Errorf("insert benchmark: %w", err)
		}

		const insertProject = `INSERT INTO projects (benchmark_id, name, eigen_project_id, all_docs_uploaded_at)
			VALUES ($1, $2, $3, $4) RETURNING id`
		if err := tx.QueryRow(ctx, insertProject, bm.ID, bm.Project.Name, bm.Project.EigenProjectID, bm.Project.AllDocsUploadedAt).Scan(&bm.Project.ID); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}

		const insertDocument = `INSERT INTO documents (project_id, name, file_path, eigen_document_id, upload_time_start, upload_time_end)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
		for i := range bm.Project.Documents {
			doc := &bm.Project.Documents[i]
			if err := tx.QueryRow(ctx, insertDocument, bm.Project.ID, doc.Name, doc.FilePath, doc.EigenDocumentID, doc.UploadTimeStart, doc.UploadTimeEnd).Scan(&doc.ID); err != nil {
				return fmt.Errorf("insert document %s: %w", doc.Name, err)
			}
		}
		return nil
	})
}

// GetByID loads the aggregate by its local identity.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Benchmark, error) {
	const query = benchmarkSelect + ` WHERE b.id = $1`
	return r.loadOne(ctx, query, id)
}

// GetByName loads the aggregate by its run name.
func (r *Repository) GetByName(ctx context.Context, name string) (*domain.Benchmark, error) {
	const query = benchmarkSelect + ` WHERE b.name = $1`
	return r.loadOne(ctx, query, name)
}

// GetByHostAndProjectID loads the aggregate owning the given remote project
// on the given target host.
func (r *Repository) GetByHostAndProjectID(ctx context.Context, host string, eigenProjectID int64) (*domain.Benchmark, error) {
	const query = benchmarkSelect + ` WHERE b.target_url = $1 AND p.eigen_project_id = $2`
	return r.loadOne(ctx, query, host, eigenProjectID)
}

// Save flushes project and document mutations for a persisted aggregate.
// Benchmark connection fields are immutable after creation.
func (r *Repository) Save(ctx context.Context, bm *domain.Benchmark) error {
	if bm.ID == 0 {
		return errors.New("postgres: cannot save an aggregate without an id")
	}
	return WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const updateProject = `UPDATE projects SET eigen_project_id = $1, all_docs_uploaded_at = $2 WHERE id = $3`
		if _, err := tx.Exec(ctx, updateProject, bm.Project.EigenProjectID, bm.Project.AllDocsUploadedAt, bm.Project.ID); err != nil {
			return fmt.Errorf("update project: %w", err)
		}

		const updateDocument = `UPDATE documents SET eigen_document_id = $1, upload_time_start = $2, upload_time_end = $3 WHERE id = $4`
		for i := range bm.Project.Documents {
			doc := &bm.Project.Documents[i]
			if _, err := tx.Exec(ctx, updateDocument, doc.EigenDocumentID, doc.UploadTimeStart, doc.UploadTimeEnd, doc.ID); err != nil {
				return fmt.Errorf("update document %s: %w", doc.Name, err)
			}
		}
		return nil
	})
}

const benchmarkSelect = `SELECT b.id, b.name, b.benchmark_type, b.target_infra, b.target_url, b.username, b.password, b.platform_version,
	p.id, p.name, p.eigen_project_id, p.all_docs_uploaded_at
	FROM benchmarks b JOIN projects p ON p.benchmark_id = b.id`

func (r *Repository) loadOne(ctx context.Context, query string, args ...any) (*domain.Benchmark, error) {
	row := r.pool.QueryRow(ctx, query, args...)

	var bm domain.Benchmark
	if err := row.Scan(
		&bm.ID, &bm.Name, &bm.BenchmarkType, &bm.TargetInfra, &bm.TargetURL, &bm.Username, &bm.Password, &bm.PlatformVersion,
		&bm.Project.ID, &bm.Project.Name, &bm.Project.EigenProjectID, &bm.Project.AllDocsUploadedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	docs, err := r.loadDocuments(ctx, bm.Project.ID)
	if err != nil {
		return nil, err
	}
	bm.Project.Documents = docs
	return &bm, nil
}

func (r *Repository) loadDocuments(ctx context.Context, projectID int64) ([]domain.Document, error) {
	const query = `SELECT id, name, file_path, eigen_document_id, upload_time_start, upload_time_end
		FROM documents WHERE project_id = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.FilePath, &doc.EigenDocumentID, &doc.UploadTimeStart, &doc.UploadTimeEnd); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
