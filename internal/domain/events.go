package domain

// BenchmarkCreated is emitted once the aggregate has been persisted and has
// an id. It carries the full connection payload so the provisioning stage can
// act without a lookup, though the deployed handler re-fetches for freshness.
type BenchmarkCreated struct {
	BenchmarkID     int64  `json:"benchmark_id"`
	Name            string `json:"name"`
	BenchmarkType   string `json:"benchmark_type"`
	TargetInfra     string `json:"target_infra"`
	TargetURL       string `json:"target_url"`
	PlatformVersion string `json:"target_eigen_platform_version"`
	Username        string `json:"username"`
	Password        string `json:"password"`
}

func (BenchmarkCreated) Kind() Kind          { return KindBenchmarkCreated }
func (BenchmarkCreated) Channel() string     { return ChannelBenchmarkCreated }
func (e BenchmarkCreated) BenchmarkRef() int64 { return e.BenchmarkID }

// ProjectCreated is emitted once the remote platform has assigned a project
// id to the run.
type ProjectCreated struct {
	BenchmarkID    int64  `json:"benchmark_id"`
	EigenProjectID int64  `json:"eigen_project_id"`
	TargetURL      string `json:"target_url"`
	Username       string `json:"username"`
	Password       string `json:"password"`
}

func (ProjectCreated) Kind() Kind          { return KindProjectCreated }
func (ProjectCreated) Channel() string     { return ChannelProjectCreated }
func (e ProjectCreated) BenchmarkRef() int64 { return e.BenchmarkID }

// DocumentUpdated is emitted after a document timestamp has been recorded.
type DocumentUpdated struct {
	BenchmarkID     int64  `json:"benchmark_id"`
	EigenDocumentID int64  `json:"eigen_document_id"`
	DocumentName    string `json:"document_name"`
	EigenProjectID  int64  `json:"eigen_project_id"`
}

func (DocumentUpdated) Kind() Kind          { return KindDocumentUpdated }
func (DocumentUpdated) Channel() string     { return ChannelDocumentUpdated }
func (e DocumentUpdated) BenchmarkRef() int64 { return e.BenchmarkID }

// AllDocumentsUploaded is emitted when every document in the run has a
// defined upload time.
type AllDocumentsUploaded struct {
	BenchmarkID int64 `json:"benchmark_id"`
}

func (AllDocumentsUploaded) Kind() Kind          { return KindAllDocumentsUploaded }
func (AllDocumentsUploaded) Channel() string     { return ChannelAllDocumentsUploaded }
func (e AllDocumentsUploaded) BenchmarkRef() int64 { return e.BenchmarkID }

// BenchmarkCompleted marks the terminal state of a run, emitted after the
// report has been generated.
type BenchmarkCompleted struct {
	BenchmarkID int64 `json:"benchmark_id"`
}

func (BenchmarkCompleted) Kind() Kind          { return KindBenchmarkCompleted }
func (BenchmarkCompleted) Channel() string     { return ChannelBenchmarkCompleted }
func (e BenchmarkCompleted) BenchmarkRef() int64 { return e.BenchmarkID }

// NoOp is the wait-state sentinel used in sequencing tables. It never crosses
// the wire and has no channel.
type NoOp struct {
	BenchmarkID int64 `json:"benchmark_id"`
}

func (NoOp) Kind() Kind          { return KindNoOp }
func (NoOp) Channel() string     { return "" }
func (e NoOp) BenchmarkRef() int64 { return e.BenchmarkID }
