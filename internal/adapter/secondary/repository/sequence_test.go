package repository

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"eclipse-sequencer/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "SOLARECL.TXT")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRows(t *testing.T) {
	path := writeFile(t, `# eclipse sequence
Config,14:41:05,16:02:49,16:03:53,16:04:58,17:31:03,1

  Verif, 3, 0, 20, 4000
	# indented comment
Photo,Max,-,00:00:10,-,-,-,-,-,4,1600,1,500
`)

	rows, err := ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows() error: %v", err)
	}
	want := []domain.Row{
		{Line: 2, Fields: []string{"Config", "14", "41", "05", "16", "02", "49", "16", "03", "53", "16", "04", "58", "17", "31", "03", "1"}},
		{Line: 4, Fields: []string{"Verif", "3", "0", "20", "4000"}},
		{Line: 6, Fields: []string{"Photo", "Max", "-", "00", "00", "10", "-", "-", "-", "-", "-", "4", "1600", "1", "500"}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("ReadRows() =\n%v\nwant\n%v", rows, want)
	}

	again, err := SequenceFile{}.ReadRows(path)
	if err != nil || !reflect.DeepEqual(again, rows) {
		t.Errorf("second read differs: %v %v", again, err)
	}
}

func TestReadRows_MissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, domain.ErrSequenceNotFound) {
		t.Errorf("err = %v, want ErrSequenceNotFound", err)
	}
}

func TestReadRows_OnlyComments(t *testing.T) {
	rows, err := ReadRows(writeFile(t, "# nothing\n\n   \n#Photo,Max\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Boucle, C2 ,-,00:00:10,+", []string{"Boucle", "C2", "-", "00", "00", "10", "+"}},
		{"a,,b", []string{"a", "", "b"}},
		{"Photo,Max,-,0,,10", []string{"Photo", "Max", "-", "0", "", "10"}},
		{"Photo,Max,4,1600,1,500,", []string{"Photo", "Max", "4", "1600", "1", "500"}},
		{"a, ,", []string{"a"}},
	}
	for _, tt := range tests {
		if got := SplitFields(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitFields(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
