package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigenhq/slowking/internal/domain"
)

type captureDispatcher struct {
	mu       sync.Mutex
	messages []domain.Message
	done     chan struct{}
}

func newCaptureDispatcher() *captureDispatcher {
	return &captureDispatcher{done: make(chan struct{}, 8)}
}

func (c *captureDispatcher) Handle(ctx context.Context, msg domain.Message) error {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	c.done <- struct{}{}
	return nil
}

func (c *captureDispatcher) wait(t *testing.T) domain.Message {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("command was not dispatched")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages[len(c.messages)-1]
}

func newTestRouter(dispatcher Dispatcher) *Router {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(log, dispatcher, nil, prometheus.NewRegistry())
}

func TestStartBenchmarkAccepted(t *testing.T) {
	dispatcher := newCaptureDispatcher()
	router := newTestRouter(dispatcher)

	body := `{"name":"t","benchmark_type":"latency","target_infra":"k8s","target_url":"http://target","target_eigen_platform_version":"5.11.0","username":"u","password":"p"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/benchmarks/start", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	msg := dispatcher.wait(t)
	cmd, ok := msg.(domain.CreateBenchmark)
	require.True(t, ok)
	assert.Equal(t, "t", cmd.Name)
	assert.Equal(t, domain.BenchmarkTypeLatency, cmd.BenchmarkType)
}

func TestStartBenchmarkMalformed(t *testing.T) {
	router := newTestRouter(newCaptureDispatcher())

	for _, body := range []string{"not json", `{"name":"t"}`, `{"name":"t","benchmark_type":"throughput","target_url":"http://target"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/benchmarks/start", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "body %q", body)
	}
}

func TestUpdateDocumentAccepted(t *testing.T) {
	dispatcher := newCaptureDispatcher()
	router := newTestRouter(dispatcher)

	body := `{"document_name":"a.pdf","eigen_document_id":9,"eigen_project_id":123,"benchmark_host_name":"http://target","start_time":1709294400.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/benchmarks/documents", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	msg := dispatcher.wait(t)
	cmd, ok := msg.(domain.UpdateDocument)
	require.True(t, ok)
	assert.Equal(t, "a.pdf", cmd.DocumentName)
	require.NotNil(t, cmd.StartTime)
	assert.Nil(t, cmd.EndTime, "absent timestamp stays nil")
	assert.Equal(t, int64(1709294400), cmd.StartTime.Unix())
}

func TestChannels(t *testing.T) {
	router := newTestRouter(newCaptureDispatcher())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/benchmarks/channels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.ElementsMatch(t, domain.SubscribeChannels(), payload["channels"])
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(newCaptureDispatcher())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/benchmarks/start", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(newCaptureDispatcher())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
