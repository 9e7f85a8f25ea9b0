// Package report renders benchmark results for humans.
package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/eigenhq/slowking/internal/domain"
)

// LatencyReport writes per-document upload times to CSV files in a fixed
// output directory.
type LatencyReport struct {
	outputDir string
	log       *slog.Logger
}

// NewLatencyReport constructs a report writer targeting outputDir.
func NewLatencyReport(outputDir string, log *slog.Logger) LatencyReport {
	return LatencyReport{outputDir: outputDir, log: log}
}

// Create writes the report for bm and returns the file path. Documents
// without a defined upload time get an empty cell, never a zero.
func (r LatencyReport) Create(bm *domain.Benchmark) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("report: create output dir: %w", err)
	}

	filename := fmt.Sprintf("report_%s.csv", time.Now().UTC().Format("2006_01_02__15_04_05"))
	path := filepath.Join(r.outputDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Benchmark Name", "Benchmark Type", "Infra", "Eigen Version", "Doc Name", "Upload Time (seconds)"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range bm.Project.Documents {
		doc := &bm.Project.Documents[i]
		uploadTime := ""
		if seconds, ok := doc.UploadTime(); ok {
			uploadTime = strconv.FormatFloat(seconds, 'f', -1, 64)
		}
		row := []string{bm.Name, bm.BenchmarkType, bm.TargetInfra, bm.PlatformVersion, doc.Name, uploadTime}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	r.log.Info("latency report created", "path", path, "documents", len(bm.Project.Documents))
	return path, nil
}
