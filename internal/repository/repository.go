// Package repository declares the persistence contract for the benchmark
// aggregate. One concrete implementation lives in the postgres subpackage;
// tests provide their own fakes.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eigenhq/slowking/internal/domain"
)

// ErrNotFound indicates the aggregate was not located.
var ErrNotFound = errors.New("repository: benchmark not found")

// BenchmarkRepository loads and saves Benchmark aggregates as a unit.
type BenchmarkRepository interface {
	// Add persists a new aggregate and assigns its identity. The id is set
	// exactly once, here.
	Add(ctx context.Context, bm *domain.Benchmark) error
	GetByID(ctx context.Context, id int64) (*domain.Benchmark, error)
	GetByName(ctx context.Context, name string) (*domain.Benchmark, error)
	// GetByHostAndProjectID locates the aggregate owning the given remote
	// project on the given target host.
	GetByHostAndProjectID(ctx context.Context, host string, eigenProjectID int64) (*domain.Benchmark, error)
	// Save flushes mutations made to an already-persisted aggregate.
	Save(ctx context.Context, bm *domain.Benchmark) error
}

// IsTransient reports whether err is a storage-consistency failure worth
// retrying: serialization failures, deadlocks, and broken connections from
// concurrent sessions racing on the same aggregate. Everything else,
// including ErrNotFound, fails fast.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" { // connection exceptions
			return true
		}
	}
	return false
}
