package domain

import (
	"fmt"
	"time"
)

// Benchmark types form a closed set; the workflow sequencer only knows how to
// order messages for types listed here.
const (
	BenchmarkTypeLatency = "latency"
)

// BenchmarkTypes returns the known benchmark type names.
func BenchmarkTypes() []string {
	return []string{BenchmarkTypeLatency}
}

// InvalidBenchmarkTypeError is returned when an aggregate is constructed with
// a benchmark type outside the known set.
type InvalidBenchmarkTypeError struct {
	BenchmarkType string
}

func (e *InvalidBenchmarkTypeError) Error() string {
	return fmt.Sprintf("invalid benchmark type %q", e.BenchmarkType)
}

// Benchmark is the aggregate root for one benchmarking run. It owns exactly
// one Project, which in turn owns the documents uploaded during the run. The
// ID is zero until the repository persists the aggregate for the first time.
type Benchmark struct {
	ID              int64
	Name            string
	BenchmarkType   string
	TargetInfra     string
	TargetURL       string
	Username        string
	Password        string
	PlatformVersion string
	Project         Project
}

// NewBenchmark validates the benchmark type and assembles the aggregate.
// Rejecting unknown types here guarantees a persisted benchmark can always be
// sequenced.
func NewBenchmark(name, benchmarkType, targetInfra, targetURL, username, password, platformVersion string, project Project) (*Benchmark, error) {
	if !validBenchmarkType(benchmarkType) {
		return nil, &InvalidBenchmarkTypeError{BenchmarkType: benchmarkType}
	}
	return &Benchmark{
		Name:            name,
		BenchmarkType:   benchmarkType,
		TargetInfra:     targetInfra,
		TargetURL:       targetURL,
		Username:        username,
		Password:        password,
		PlatformVersion: platformVersion,
		Project:         project,
	}, nil
}

func validBenchmarkType(benchmarkType string) bool {
	for _, t := range BenchmarkTypes() {
		if t == benchmarkType {
			return true
		}
	}
	return false
}

// Project groups the documents of a benchmark run. EigenProjectID is nil
// until the remote platform assigns one.
type Project struct {
	ID                int64
	Name              string
	EigenProjectID    *int64
	Documents         []Document
	AllDocsUploadedAt *time.Time
}

// AllUploaded reports whether every document has a defined upload time. A
// project with no documents never reports completion.
func (p *Project) AllUploaded() bool {
	if len(p.Documents) == 0 {
		return false
	}
	uploaded := 0
	for i := range p.Documents {
		if _, ok := p.Documents[i].UploadTime(); ok {
			uploaded++
		}
	}
	return uploaded == len(p.Documents)
}

// FindDocument returns the document with the given name, or nil.
func (p *Project) FindDocument(name string) *Document {
	for i := range p.Documents {
		if p.Documents[i].Name == name {
			return &p.Documents[i]
		}
	}
	return nil
}

// Document is one artifact uploaded to the platform during a run. The start
// and end timestamps arrive independently, in either order, via separate
// UpdateDocument commands.
type Document struct {
	ID              int64
	Name            string
	FilePath        string
	EigenDocumentID *int64
	UploadTimeStart *time.Time
	UploadTimeEnd   *time.Time
}

// UploadTime returns the upload duration in seconds. It is defined only when
// both timestamps are present; ok is false otherwise.
func (d *Document) UploadTime() (float64, bool) {
	if d.UploadTimeStart == nil || d.UploadTimeEnd == nil {
		return 0, false
	}
	return d.UploadTimeEnd.Sub(*d.UploadTimeStart).Seconds(), true
}
