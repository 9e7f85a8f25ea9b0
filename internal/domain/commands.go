package domain

import "time"

// CreateBenchmark asks the system to start a new benchmark run against the
// given target instance. It carries everything the first workflow stage
// needs, so no lookups are required to act on it.
type CreateBenchmark struct {
	Name            string `json:"name"`
	BenchmarkType   string `json:"benchmark_type"`
	TargetInfra     string `json:"target_infra"`
	TargetURL       string `json:"target_url"`
	PlatformVersion string `json:"target_eigen_platform_version"`
	Username        string `json:"username"`
	Password        string `json:"password"`
}

func (CreateBenchmark) Kind() Kind      { return KindCreateBenchmark }
func (CreateBenchmark) Channel() string { return ChannelCreateBenchmark }

// UpdateDocument records one side of a document's upload timing. The
// instrumented target reports start and end independently, so a single call
// carries at most one timestamp; the other is nil.
type UpdateDocument struct {
	DocumentName      string     `json:"document_name"`
	EigenDocumentID   int64      `json:"eigen_document_id"`
	EigenProjectID    int64      `json:"eigen_project_id"`
	BenchmarkHostName string     `json:"benchmark_host_name"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`
}

func (UpdateDocument) Kind() Kind      { return KindUpdateDocument }
func (UpdateDocument) Channel() string { return ChannelUpdateDocument }
