package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	m "jolt.dev/pkg/jolt/internal/model"
	"jolt.dev/pkg/jolt/pkg"
)

// ReportStore persists machine-readable run reports for later triage.
type ReportStore interface {
	// AppendFile records one finished file's report. Large recursive runs can
	// produce many of these, so implementations may buffer them off-heap.
	AppendFile(report m.FileReport) error

	// SaveRun assembles the buffered per-file reports plus run totals into a
	// timestamped YAML document under dir and returns its path.
	SaveRun(dir m.Path, report m.RunReport) (m.Path, error)

	// LoadRun reads a previously saved report back.
	LoadRun(path m.Path) (m.RunReport, error)

	// Close releases the buffering resources.
	Close() error
}

// YAMLReportStore writes reports as YAML documents. Per-file reports are
// spilled to a gob-backed scratch file as they arrive so run memory stays
// independent of the number of processed files.
type YAMLReportStore struct {
	spill pkg.FileSpill[m.FileReport]
}

// NewReportStore constructs a YAMLReportStore.
func NewReportStore() (*YAMLReportStore, error) {
	spill, err := pkg.NewFileSpill[m.FileReport]("jolt-report-*.gob")
	if err != nil {
		return nil, fmt.Errorf("create report spill: %w", err)
	}

	return &YAMLReportStore{spill: spill}, nil
}

// AppendFile buffers one per-file report.
func (s *YAMLReportStore) AppendFile(report m.FileReport) error {
	return s.spill.Append(report)
}

// SaveRun materializes the final YAML document. The Files slice of the passed
// report is ignored in favor of the buffered per-file reports.
func (s *YAMLReportStore) SaveRun(dir m.Path, report m.RunReport) (m.Path, error) {
	report.Files = nil

	err := s.spill.Range(func(_ uint64, fr m.FileReport) error {
		report.Files = append(report.Files, fr)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("drain report spill: %w", err)
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	encoded, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	name := fmt.Sprintf("run-%s.yaml", time.Now().Format("20060102-150405"))
	path := filepath.Join(string(dir), name)

	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	slog.Info("run report written", "path", path, "files", len(report.Files))

	return m.Path(path), nil
}

// LoadRun reads a saved report document.
func (s *YAMLReportStore) LoadRun(path m.Path) (m.RunReport, error) {
	var report m.RunReport

	data, err := os.ReadFile(string(path))
	if err != nil {
		return report, fmt.Errorf("read report: %w", err)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("decode report: %w", err)
	}

	return report, nil
}

// Close drops the spill file.
func (s *YAMLReportStore) Close() error {
	return s.spill.Close()
}
