package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"eclipse-sequencer/internal/domain"
)

func TestReportFile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "last-run.json")
	store, err := NewReportFile(path)
	if err != nil {
		t.Fatalf("NewReportFile() error: %v", err)
	}

	report := domain.RunReport{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 8, 12, 16, 0, 0, 0, time.UTC),
		TestMode:  true,
		Actions: []domain.ActionReport{
			{Line: 3, Kind: "Photo", Outcome: domain.OutcomeCompleted, Trigger: 57823, Simulated: 1},
		},
		Stats: domain.Stats{ActionsCompleted: 1, CapturesSimulated: 1},
	}
	if err := store.Save(report); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.RunID != "run-1" || !got.StartedAt.Equal(report.StartedAt) || len(got.Actions) != 1 || got.Stats != report.Stats {
		t.Errorf("Load() = %+v", got)
	}
}

func TestNewReportFile_EmptyPath(t *testing.T) {
	if _, err := NewReportFile(""); err == nil {
		t.Error("expected error for empty path")
	}
}
