// Package httpx exposes the benchmark command endpoints. The handlers only
// translate requests into commands and hand them to the bus; no workflow
// logic lives here. Acceptance (202) carries no guarantee of workflow
// success — failures surface in logs, a deliberate boundary of the
// fire-and-forget design.
package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eigenhq/slowking/internal/domain"
)

const dispatchTimeout = 5 * time.Minute

// Dispatcher accepts a message for handling. In the deployed process this is
// the message bus.
type Dispatcher interface {
	Handle(ctx context.Context, msg domain.Message) error
}

// Router wires HTTP endpoints to the bus.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	bus      Dispatcher
	dbHealth func(context.Context) error

	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, bus Dispatcher, dbHealth func(context.Context) error, reg prometheus.Registerer) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		bus:      bus,
		dbHealth: dbHealth,
	}
	r.initMetrics(reg)
	r.register(reg)
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register(reg prometheus.Registerer) {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.HandleFunc("/api/v1/benchmarks/start", r.audit("/api/v1/benchmarks/start", r.handleStartBenchmark))
	r.mux.HandleFunc("/api/v1/benchmarks/documents", r.audit("/api/v1/benchmarks/documents", r.handleUpdateDocument))
	r.mux.HandleFunc("/api/v1/benchmarks/channels", r.audit("/api/v1/benchmarks/channels", r.handleChannels))
	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		r.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()
	if r.dbHealth != nil {
		if err := r.dbHealth(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleChannels(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"channels": domain.SubscribeChannels()})
}

type startBenchmarkPayload struct {
	Name            string `json:"name"`
	BenchmarkType   string `json:"benchmark_type"`
	TargetInfra     string `json:"target_infra"`
	TargetURL       string `json:"target_url"`
	PlatformVersion string `json:"target_eigen_platform_version"`
	Username        string `json:"username"`
	Password        string `json:"password"`
}

func (r *Router) handleStartBenchmark(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload startBenchmarkPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed payload")
		return
	}
	if payload.Name == "" || payload.BenchmarkType == "" || payload.TargetURL == "" {
		writeError(w, http.StatusUnprocessableEntity, "name, benchmark_type and target_url are required")
		return
	}
	if !knownBenchmarkType(payload.BenchmarkType) {
		writeError(w, http.StatusUnprocessableEntity, "unknown benchmark_type")
		return
	}

	cmd := domain.CreateBenchmark{
		Name:            payload.Name,
		BenchmarkType:   payload.BenchmarkType,
		TargetInfra:     payload.TargetInfra,
		TargetURL:       payload.TargetURL,
		PlatformVersion: payload.PlatformVersion,
		Username:        payload.Username,
		Password:        payload.Password,
	}
	r.dispatch(cmd)
	w.WriteHeader(http.StatusAccepted)
}

type updateDocumentPayload struct {
	DocumentName      string   `json:"document_name"`
	EigenDocumentID   int64    `json:"eigen_document_id"`
	EigenProjectID    int64    `json:"eigen_project_id"`
	BenchmarkHostName string   `json:"benchmark_host_name"`
	StartTime         *float64 `json:"start_time"`
	EndTime           *float64 `json:"end_time"`
}

func (r *Router) handleUpdateDocument(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload updateDocumentPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed payload")
		return
	}
	if payload.DocumentName == "" || payload.BenchmarkHostName == "" {
		writeError(w, http.StatusUnprocessableEntity, "document_name and benchmark_host_name are required")
		return
	}

	cmd := domain.UpdateDocument{
		DocumentName:      payload.DocumentName,
		EigenDocumentID:   payload.EigenDocumentID,
		EigenProjectID:    payload.EigenProjectID,
		BenchmarkHostName: payload.BenchmarkHostName,
		StartTime:         unixTime(payload.StartTime),
		EndTime:           unixTime(payload.EndTime),
	}
	r.dispatch(cmd)
	w.WriteHeader(http.StatusAccepted)
}

func knownBenchmarkType(benchmarkType string) bool {
	for _, t := range domain.BenchmarkTypes() {
		if t == benchmarkType {
			return true
		}
	}
	return false
}

// unixTime converts an epoch-seconds timestamp, keeping absence distinct
// from zero.
func unixTime(seconds *float64) *time.Time {
	if seconds == nil {
		return nil
	}
	t := time.Unix(0, int64(*seconds*float64(time.Second))).UTC()
	return &t
}

// dispatch hands the command to the bus in the background so the request
// returns immediately. The request context is not reused: the workflow step
// outlives the HTTP exchange.
func (r *Router) dispatch(cmd domain.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := r.bus.Handle(ctx, cmd); err != nil {
			r.logger.Error("command handling failed", "kind", cmd.Kind().String(), "error", err)
		}
	}()
}
