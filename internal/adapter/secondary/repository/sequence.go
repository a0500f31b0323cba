package repository

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"eclipse-sequencer/internal/domain"
)

// SequenceFile reads sequence files from the local filesystem.
// This is a secondary adapter.
type SequenceFile struct{}

var _ domain.SequenceSource = SequenceFile{}

// ReadRows returns the non-empty, non-comment lines of path split on ',' and ':'.
func (SequenceFile) ReadRows(path string) ([]domain.Row, error) {
	return ReadRows(path)
}

// ReadRows returns the non-empty, non-comment lines of path split on ',' and ':'.
// A missing file yields domain.ErrSequenceNotFound.
func ReadRows(path string) ([]domain.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSequenceNotFound, path)
		}
		return nil, fmt.Errorf("open sequence: %w", err)
	}
	defer file.Close()

	var rows []domain.Row
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rows = append(rows, domain.Row{Line: line, Fields: SplitFields(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sequence: %w", err)
	}
	return rows, nil
}

// SplitFields splits a line on ',' and ':' and trims every field. Every
// delimiter is a field boundary, so "a,,b" keeps an empty middle field.
// Trailing empty fields are dropped so that a trailing comma does not move
// the exposure block.
func SplitFields(line string) []string {
	fields := strings.Split(line, ",")
	out := make([]string, 0, len(fields)+4)
	for _, f := range fields {
		for _, part := range strings.Split(f, ":") {
			out = append(out, strings.TrimSpace(part))
		}
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
