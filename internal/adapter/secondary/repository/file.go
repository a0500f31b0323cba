package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"eclipse-sequencer/internal/domain"
)

// ReportFile implements domain.ReportRepository using a JSON file.
// This is a secondary adapter.
type ReportFile struct {
	path string
	mu   sync.Mutex
}

var _ domain.ReportRepository = (*ReportFile)(nil)

// NewReportFile creates a run report store writing to path.
func NewReportFile(path string) (*ReportFile, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	return &ReportFile{path: path}, nil
}

// Path returns the file the report is written to.
func (f *ReportFile) Path() string {
	return f.path
}

// Load reads the last saved report.
func (f *ReportFile) Load() (domain.RunReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("read report: %w", err)
	}

	var report domain.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.RunReport{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, nil
}

// Save persists the report to disk.
func (f *ReportFile) Save(report domain.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	// Atomic write
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename tmp: %w", err)
	}

	return nil
}
