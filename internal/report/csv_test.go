package report

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigenhq/slowking/internal/domain"
)

func TestCreateLatencyReport(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Second)

	bm := &domain.Benchmark{
		Name:            "run",
		BenchmarkType:   domain.BenchmarkTypeLatency,
		TargetInfra:     "k8s",
		PlatformVersion: "5.11.0",
		Project: domain.Project{
			Name: "run",
			Documents: []domain.Document{
				{Name: "a.pdf", UploadTimeStart: &start, UploadTimeEnd: &end},
				{Name: "b.pdf", UploadTimeStart: &start},
			},
		},
	}

	dir := t.TempDir()
	r := NewLatencyReport(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	path, err := r.Create(bm)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Benchmark Name", "Benchmark Type", "Infra", "Eigen Version", "Doc Name", "Upload Time (seconds)"}, rows[0])
	assert.Equal(t, []string{"run", "latency", "k8s", "5.11.0", "a.pdf", "5"}, rows[1])
	assert.Equal(t, "", rows[2][5], "undefined upload time stays blank")
}
