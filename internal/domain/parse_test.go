package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func fields(line int, s string) Row {
	f := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ':' })
	for i := range f {
		f[i] = strings.TrimSpace(f[i])
	}
	return Row{Line: line, Fields: f}
}

func TestDecodeRows_ConfigAndPhoto(t *testing.T) {
	seq := DecodeRows([]Row{
		fields(1, "Config,14,41,5,16,2,49,16,3,53,16,4,58,17,31,3,1"),
		fields(2, "Photo,Max,-,0,0,10,-,-,-,4,1600,1,500"),
	})

	if seq.Timings == nil {
		t.Fatal("Timings not decoded")
	}
	want := EclipseTimings{
		C1:       HMS(14, 41, 5),
		C2:       HMS(16, 2, 49),
		Max:      HMS(16, 3, 53),
		C3:       HMS(16, 4, 58),
		C4:       HMS(17, 31, 3),
		TestMode: true,
	}
	if *seq.Timings != want {
		t.Errorf("Timings = %+v, want %+v", *seq.Timings, want)
	}
	if len(seq.Steps) != 1 || seq.Steps[0].Err != nil {
		t.Fatalf("Steps = %+v", seq.Steps)
	}
	photo, ok := seq.Steps[0].Action.(PhotoAction)
	if !ok {
		t.Fatalf("action = %T, want PhotoAction", seq.Steps[0].Action)
	}
	wantPhoto := PhotoAction{
		Ref:   RefMax,
		Start: TimeSpec{OpMinus, 10},
		Capture: Shot{
			Exposure:     Exposure{Aperture: 4, ISO: 1600, Shutter: 1},
			MirrorLockup: 500 * time.Millisecond,
		},
	}
	if photo != wantPhoto {
		t.Errorf("photo = %+v, want %+v", photo, wantPhoto)
	}
}

func TestDecodeRows_FullPhotoRowAndDefaults(t *testing.T) {
	seq := DecodeRows([]Row{fields(3, "Photo,-,-,16:00:00,-,-:-:-,-,-,-,-,-")})
	if len(seq.Steps) != 1 || seq.Steps[0].Err != nil {
		t.Fatalf("Steps = %+v", seq.Steps)
	}
	photo := seq.Steps[0].Action.(PhotoAction)
	if photo.Ref != RefAbsolute || photo.Start.Offset != HMS(16, 0, 0) {
		t.Errorf("photo = %+v", photo)
	}
	if photo.Capture.Exposure != DefaultExposure() || photo.Capture.MirrorLockup != 0 {
		t.Errorf("defaults not applied: %+v", photo.Capture)
	}
}

func TestDecodeRows_LoopAndInterval(t *testing.T) {
	seq := DecodeRows([]Row{
		fields(5, "Boucle,C2,-,00:00:10,+,00:00:20,2,5.6,800,1/250,0"),
		fields(6, "Interval,C3,+,00:00:00,+,00:01:40,20,8,100,0.001,200"),
		fields(7, "Boucle,C2,-,00:00:10,+,00:00:20,-,5.6,800,1/250,0"),
	})
	if len(seq.Steps) != 3 {
		t.Fatalf("len(Steps) = %d", len(seq.Steps))
	}
	for _, s := range seq.Steps {
		if s.Err != nil {
			t.Fatalf("line %d: %v", s.Line, s.Err)
		}
	}

	loop := seq.Steps[0].Action.(LoopAction)
	if loop.Interval != 2 || loop.End != (TimeSpec{OpPlus, 20}) || loop.Capture.Exposure.Shutter != 1.0/250 {
		t.Errorf("loop = %+v", loop)
	}
	iv := seq.Steps[1].Action.(IntervalAction)
	if iv.Count != 20 || iv.End.Offset != 100 || iv.Capture.MirrorLockup != 200*time.Millisecond {
		t.Errorf("interval = %+v", iv)
	}
	if got := seq.Steps[2].Action.(LoopAction).Interval; got != 1 {
		t.Errorf("dash interval = %v, want 1", got)
	}
}

func TestDecodeRows_MalformedRowsBecomeSteps(t *testing.T) {
	seq := DecodeRows([]Row{
		fields(1, "Photo,Max,-,aa,0,10,-,-,-,4,1600,1,500"),
		fields(2, "Interval,C3,+,00:00:00,+,00:01:40,0,8,100,0.001,200"),
		fields(3, "Boucle,C2,-,00:00:10,-,-,-,-,2,5.6,800,1/250,0"),
		fields(4, "Photo,Max"),
	})
	if len(seq.Steps) != 4 {
		t.Fatalf("len(Steps) = %d", len(seq.Steps))
	}
	for _, s := range seq.Steps {
		var lineErr *LineError
		if !errors.As(s.Err, &lineErr) || !errors.Is(s.Err, ErrMalformedRow) {
			t.Errorf("line %d: err = %v, want malformed LineError", s.Line, s.Err)
			continue
		}
		if lineErr.Line != s.Line {
			t.Errorf("LineError.Line = %d, want %d", lineErr.Line, s.Line)
		}
	}
}

func TestDecodeRows_ReferencesCheckedLater(t *testing.T) {
	seq := DecodeRows([]Row{fields(1, "Photo,C9,*,0,0,10,-,-,-,4,1600,1,500")})
	if seq.Steps[0].Err != nil {
		t.Fatalf("decode should keep unknown references: %v", seq.Steps[0].Err)
	}
	_, err := NewSequenceService().Resolve(seq.Steps[0].Action.Reference(), seq.Steps[0].Action.(PhotoAction).Start, testTimings())
	if !errors.Is(err, ErrUnknownReference) {
		t.Errorf("Resolve() err = %v", err)
	}
}

func TestDecodeRows_Verif(t *testing.T) {
	seq := DecodeRows([]Row{
		fields(1, "Verif,3,0,20,4000"),
		fields(2, "Verif,-,-,-,-"),
	})
	v := seq.Verification
	if v == nil {
		t.Fatal("Verification not decoded")
	}
	if *v.Mode != "3" || *v.AutofocusEnabled || *v.MinBattery != 20 || *v.MinFreeMB != 4000 {
		t.Errorf("Verification = %+v", v)
	}
	if len(seq.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one for the extra Verif", seq.Warnings)
	}

	seq = DecodeRows([]Row{fields(1, "Verif,-,1,-,-")})
	v = seq.Verification
	if v.Mode != nil || v.MinBattery != nil || v.MinFreeMB != nil || !*v.AutofocusEnabled {
		t.Errorf("partial Verification = %+v", v)
	}
}

func TestDecodeRows_MalformedVerifGates(t *testing.T) {
	seq := DecodeRows([]Row{
		fields(1, "Verif,3,0,20%,4000"),
		fields(2, "Verif,3,0,20,4000"),
	})
	var le *LineError
	if !errors.As(seq.VerifErr, &le) || le.Line != 1 || !errors.Is(seq.VerifErr, ErrMalformedRow) {
		t.Fatalf("VerifErr = %v, want line 1 malformed", seq.VerifErr)
	}
	if seq.Verification != nil {
		t.Errorf("later Verif line took over the gate: %+v", seq.Verification)
	}
	if len(seq.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one for the extra Verif", seq.Warnings)
	}

	seq = DecodeRows([]Row{
		fields(1, "Verif,3,0,20,4000"),
		fields(2, "Verif,x,y"),
	})
	if seq.VerifErr != nil || seq.Verification == nil || len(seq.Warnings) != 1 {
		t.Errorf("malformed extra Verif: VerifErr = %v, Warnings = %v", seq.VerifErr, seq.Warnings)
	}
}

func TestDecodeRows_LastConfigWins(t *testing.T) {
	seq := DecodeRows([]Row{
		fields(1, "Config,1,0,0,2,0,0,3,0,0,4,0,0,5,0,0,0"),
		fields(2, "Config,11,0,0,12,0,0,13,0,0,14,0,0,15,0,0,1"),
		fields(3, "Config,1,2"),
		fields(4, "Unknown,1,2,3"),
	})
	if seq.Timings.C1 != HMS(11, 0, 0) || !seq.Timings.TestMode {
		t.Errorf("Timings = %+v, want second Config", seq.Timings)
	}
	if len(seq.Warnings) != 3 {
		t.Errorf("Warnings = %v, want 3", seq.Warnings)
	}
}

func TestDecodeRows_Idempotent(t *testing.T) {
	rows := []Row{
		fields(1, "Config,14,41,5,16,2,49,16,3,53,16,4,58,17,31,3,1"),
		fields(2, "Verif,3,0,20,4000"),
		fields(3, "Boucle,C2,-,00:00:10,+,00:00:20,2,5.6,800,1/250,0"),
	}
	a, b := DecodeRows(rows), DecodeRows(rows)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("DecodeRows not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestParseShutter(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1", 1, true},
		{"0.008", 0.008, true},
		{"1/125", 1.0 / 125, true},
		{"2.5", 2.5, true},
		{"0", 0, false},
		{"1/0", 0, false},
		{"fast", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseShutter(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseShutter(%q) = %v, %v", tt.in, got, err)
		}
	}
}
