package config

import (
	"os"
	"path/filepath"
)

// DefaultReportPath returns ~/.config/eclipse-sequencer/last-run.json (or a cwd fallback).
func DefaultReportPath() string {
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config", "eclipse-sequencer", "last-run.json")
	}
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, "eclipse-sequencer-last-run.json")
}
