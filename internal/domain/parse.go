package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row tags understood by DecodeRows.
const (
	TagVerif    = "Verif"
	TagConfig   = "Config"
	TagPhoto    = "Photo"
	TagLoop     = "Boucle"
	TagInterval = "Interval"
)

const (
	configFields = 17
	photoFields  = 10
	loopFields   = 15
	// exposure fields are counted from the end of a row
	exposureFields = 4
)

const dash = "-"

// DecodeRows interprets sequence rows. Action rows that cannot be decoded are
// kept as steps carrying a *LineError so that the executor can report them in
// order. A malformed first Verif line is kept as VerifErr; other Verif and
// Config problems only produce warnings.
func DecodeRows(rows []Row) Sequence {
	var seq Sequence
	configLine := 0
	verifLine := 0

	for _, row := range rows {
		if len(row.Fields) == 0 {
			continue
		}
		tag := row.Fields[0]
		switch tag {
		case TagVerif:
			v, err := decodeVerif(row)
			if err != nil {
				if seq.Verification == nil && seq.VerifErr == nil {
					seq.VerifErr = err
					verifLine = row.Line
					continue
				}
				seq.Warnings = append(seq.Warnings, err.Error()+", ignored")
				continue
			}
			if seq.Verification != nil || seq.VerifErr != nil {
				seq.Warnings = append(seq.Warnings, fmt.Sprintf("line %d: extra Verif line ignored, line %d gates the run", row.Line, verifLine))
				continue
			}
			seq.Verification = &v
			verifLine = row.Line
		case TagConfig:
			t, err := decodeConfig(row)
			if err != nil {
				seq.Warnings = append(seq.Warnings, err.Error()+", ignored")
				continue
			}
			if seq.Timings != nil {
				seq.Warnings = append(seq.Warnings, fmt.Sprintf("line %d: Config overrides line %d", row.Line, configLine))
			}
			seq.Timings = &t
			configLine = row.Line
		case TagPhoto, TagLoop, TagInterval:
			a, err := decodeAction(row)
			step := Step{Line: row.Line, Tag: tag, Action: a}
			if err != nil {
				step.Action, step.Err = nil, err
			}
			seq.Steps = append(seq.Steps, step)
		default:
			seq.Warnings = append(seq.Warnings, fmt.Sprintf("line %d: unknown action %q ignored", row.Line, tag))
		}
	}
	return seq
}

func decodeVerif(row Row) (Verification, error) {
	f := row.Fields
	if len(f) < 5 {
		return Verification{}, malformed(row.Line, TagVerif, "want 5 fields, got %d", len(f))
	}
	var v Verification
	if f[1] != dash {
		mode := f[1]
		v.Mode = &mode
	}
	if f[2] != dash {
		n, err := strconv.Atoi(f[2])
		if err != nil {
			return Verification{}, malformed(row.Line, TagVerif, "autofocus %q", f[2])
		}
		af := n != 0
		v.AutofocusEnabled = &af
	}
	if f[3] != dash {
		n, err := strconv.Atoi(f[3])
		if err != nil {
			return Verification{}, malformed(row.Line, TagVerif, "battery %q", f[3])
		}
		v.MinBattery = &n
	}
	if f[4] != dash {
		n, err := strconv.Atoi(f[4])
		if err != nil {
			return Verification{}, malformed(row.Line, TagVerif, "storage %q", f[4])
		}
		v.MinFreeMB = &n
	}
	return v, nil
}

func decodeConfig(row Row) (EclipseTimings, error) {
	f := row.Fields
	if len(f) < configFields {
		return EclipseTimings{}, malformed(row.Line, TagConfig, "want %d fields, got %d", configFields, len(f))
	}
	var contacts [5]SecondOfDay
	for i := range contacts {
		t, ok, err := hms(f, 1+3*i)
		if err != nil || !ok {
			return EclipseTimings{}, malformed(row.Line, TagConfig, "contact %d: bad time %v", i+1, f[1+3*i:4+3*i])
		}
		contacts[i] = t
	}
	test, err := strconv.Atoi(f[16])
	if err != nil {
		return EclipseTimings{}, malformed(row.Line, TagConfig, "test mode %q", f[16])
	}
	return EclipseTimings{
		C1:       contacts[0],
		C2:       contacts[1],
		Max:      contacts[2],
		C3:       contacts[3],
		C4:       contacts[4],
		TestMode: test != 0,
	}, nil
}

func decodeAction(row Row) (Action, error) {
	f := row.Fields
	tag := f[0]
	want := photoFields
	if tag != TagPhoto {
		want = loopFields
	}
	if len(f) < want {
		return nil, malformed(row.Line, tag, "want at least %d fields, got %d", want, len(f))
	}

	ref := Reference(f[1])
	startAt, ok, err := hms(f, 3)
	if err != nil {
		return nil, malformed(row.Line, tag, "start: %v", err)
	}
	if !ok {
		return nil, malformed(row.Line, tag, "start time required")
	}
	start := TimeSpec{Op: Operator(f[2]), Offset: startAt}

	shot, err := decodeShot(f[len(f)-exposureFields:])
	if err != nil {
		return nil, malformed(row.Line, tag, "%v", err)
	}

	if tag == TagPhoto {
		return PhotoAction{Ref: ref, Start: start, Capture: shot}, nil
	}

	endAt, ok, err := hms(f, 7)
	if err != nil {
		return nil, malformed(row.Line, tag, "end: %v", err)
	}
	if !ok {
		return nil, malformed(row.Line, tag, "end time required")
	}
	end := TimeSpec{Op: Operator(f[6]), Offset: endAt}

	if tag == TagLoop {
		interval := 1.0
		if f[10] != dash {
			interval, err = strconv.ParseFloat(f[10], 64)
			if err != nil {
				return nil, malformed(row.Line, tag, "interval %q", f[10])
			}
		}
		return LoopAction{Ref: ref, Start: start, End: end, Interval: interval, Capture: shot}, nil
	}

	if f[10] == dash {
		// no count: behave like a one second loop
		return LoopAction{Ref: ref, Start: start, End: end, Interval: 1, Capture: shot}, nil
	}
	count, err := strconv.Atoi(f[10])
	if err != nil {
		return nil, malformed(row.Line, tag, "count %q", f[10])
	}
	if count <= 0 {
		return nil, malformed(row.Line, tag, "count must be positive, got %d", count)
	}
	return IntervalAction{Ref: ref, Start: start, End: end, Count: count, Capture: shot}, nil
}

// hms reads three H, M, S fields starting at i. ok is false when all three are "-".
func hms(f []string, i int) (SecondOfDay, bool, error) {
	if f[i] == dash && f[i+1] == dash && f[i+2] == dash {
		return 0, false, nil
	}
	var parts [3]int
	for j := range parts {
		n, err := strconv.Atoi(f[i+j])
		if err != nil || n < 0 {
			return 0, false, fmt.Errorf("bad time field %q", f[i+j])
		}
		parts[j] = n
	}
	return HMS(parts[0], parts[1], parts[2]), true, nil
}

func decodeShot(f []string) (Shot, error) {
	exp := DefaultExposure()
	var err error
	if f[0] != dash {
		if exp.Aperture, err = strconv.ParseFloat(f[0], 64); err != nil || exp.Aperture <= 0 {
			return Shot{}, fmt.Errorf("aperture %q", f[0])
		}
	}
	if f[1] != dash {
		iso, err := strconv.ParseFloat(f[1], 64)
		if err != nil || iso <= 0 {
			return Shot{}, fmt.Errorf("iso %q", f[1])
		}
		exp.ISO = int(iso)
	}
	if f[2] != dash {
		if exp.Shutter, err = ParseShutter(f[2]); err != nil {
			return Shot{}, err
		}
	}
	var mlu int
	if f[3] != dash {
		if mlu, err = strconv.Atoi(f[3]); err != nil || mlu < 0 {
			return Shot{}, fmt.Errorf("mirror lockup %q", f[3])
		}
	}
	return Shot{Exposure: exp, MirrorLockup: time.Duration(mlu) * time.Millisecond}, nil
}

// ParseShutter reads seconds as a decimal ("0.008", "2") or a fraction ("1/125").
func ParseShutter(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
			return 0, fmt.Errorf("shutter %q", s)
		}
		return n / d, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("shutter %q", s)
	}
	return v, nil
}
