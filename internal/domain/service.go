package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// MaxTotality is the longest possible total phase of a solar eclipse.
const MaxTotality = 7*time.Minute + 32*time.Second

// SequenceService provides pure domain logic for the sequencer.
// This service has no side effects and no dependencies on external concerns.
type SequenceService struct{}

// NewSequenceService creates a new sequence service.
func NewSequenceService() *SequenceService {
	return &SequenceService{}
}

// Resolve turns a reference and an offset into an absolute time of day.
// Absolute references return the offset unchanged. A single day wrap is
// applied in either direction and exactly 86400 maps to 0.
func (s *SequenceService) Resolve(ref Reference, spec TimeSpec, timings EclipseTimings) (SecondOfDay, error) {
	if ref == RefAbsolute {
		return spec.Offset, nil
	}
	base, ok := timings.Lookup(ref)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownReference, string(ref))
	}

	var t SecondOfDay
	switch spec.Op {
	case OpMinus:
		t = base - spec.Offset
		if t < 0 {
			t += SecondsPerDay
		}
	case OpPlus:
		t = base + spec.Offset
		if t > SecondsPerDay {
			t -= SecondsPerDay
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperator, string(spec.Op))
	}
	if t == SecondsPerDay {
		t = 0
	}
	if t < 0 || t >= SecondsPerDay {
		return 0, fmt.Errorf("%w: %s %s %s", ErrOffsetOutOfRange, ref, spec.Op, spec.Offset)
	}
	return t, nil
}

// Window resolves the start of an action and, for loops, its end.
func (s *SequenceService) Window(a Action, timings EclipseTimings) (start, end SecondOfDay, hasEnd bool, err error) {
	var startSpec, endSpec TimeSpec
	switch v := a.(type) {
	case PhotoAction:
		startSpec = v.Start
	case LoopAction:
		startSpec, endSpec, hasEnd = v.Start, v.End, true
	case IntervalAction:
		startSpec, endSpec, hasEnd = v.Start, v.End, true
	default:
		return 0, 0, false, fmt.Errorf("unsupported action %T", a)
	}

	start, err = s.Resolve(a.Reference(), startSpec, timings)
	if err != nil {
		return 0, 0, false, fmt.Errorf("start: %w", err)
	}
	if !hasEnd {
		return start, 0, false, nil
	}
	end, err = s.Resolve(a.Reference(), endSpec, timings)
	if err != nil {
		return 0, 0, false, fmt.Errorf("end: %w", err)
	}
	return start, end, true, nil
}

// WakeTarget is the moment the executor stops waiting so that a mirror
// lockup of mlu has settled by trigger.
func (s *SequenceService) WakeTarget(trigger SecondOfDay, mlu time.Duration) time.Duration {
	return trigger.Duration() - mlu
}

// LoopInterval rounds a configured interval half-down to whole seconds and
// never returns less than 1. clamped reports a configured value below 1.
func (s *SequenceService) LoopInterval(configured float64) (interval int, clamped bool) {
	interval = int(math.Ceil(configured - 0.5))
	if interval < 1 || math.IsNaN(configured) {
		interval = 1
	}
	return interval, configured < 1 || math.IsNaN(configured)
}

// IntervalFromCount spreads count captures over [start, end].
func (s *SequenceService) IntervalFromCount(start, end SecondOfDay, count int) float64 {
	if count <= 0 {
		return 1
	}
	return float64(end-start) / float64(count)
}

// EffectiveInterval returns the whole-second interval a loop action runs with.
func (s *SequenceService) EffectiveInterval(a Action, start, end SecondOfDay) (int, bool) {
	switch v := a.(type) {
	case LoopAction:
		return s.LoopInterval(v.Interval)
	case IntervalAction:
		return s.LoopInterval(s.IntervalFromCount(start, end, v.Count))
	default:
		return 0, false
	}
}

// EstimateCaptures counts the shots a loop yields when it starts on time and
// each capture completes instantly.
func (s *SequenceService) EstimateCaptures(start, end SecondOfDay, interval int) int {
	if interval < 1 {
		interval = 1
	}
	now, shoot, n := start, start, 0
	for now <= end && shoot+SecondOfDay(interval) <= end {
		shoot = now
		n++
		now = shoot + SecondOfDay(interval)
	}
	return n
}

// Preflight compares the device status with the verification line.
// Every field is evaluated; the first failing one gives the reason.
func (s *SequenceService) Preflight(v Verification, st DeviceStatus) Verdict {
	verdict := Verdict{Go: true}
	fail := func(reason string) {
		if verdict.Go {
			verdict.Go = false
			verdict.Reason = reason
		}
	}

	mode := Check{Field: "mode", Expected: "-", Actual: st.Mode}
	if v.Mode != nil {
		mode.Checked, mode.Expected = true, *v.Mode
		mode.Passed = *v.Mode == st.Mode
		if !mode.Passed {
			fail("Incorrect Mode")
		}
	}

	af := Check{Field: "autofocus", Expected: "-", Actual: flag(st.AutofocusEnabled)}
	if v.AutofocusEnabled != nil {
		af.Checked, af.Expected = true, flag(*v.AutofocusEnabled)
		af.Passed = *v.AutofocusEnabled == st.AutofocusEnabled
		if !af.Passed {
			if st.AutofocusEnabled {
				fail("AF On")
			} else {
				fail("AF Off")
			}
		}
	}

	battery := Check{Field: "battery", Expected: "-", Actual: strconv.Itoa(st.BatteryPercent)}
	if v.MinBattery != nil {
		battery.Checked, battery.Expected = true, strconv.Itoa(*v.MinBattery)
		battery.Passed = st.BatteryPercent >= *v.MinBattery
		if !battery.Passed {
			fail("Battery low")
		}
	}

	storage := Check{Field: "storage", Expected: "-", Actual: strconv.Itoa(st.FreeStorageMB)}
	if v.MinFreeMB != nil {
		storage.Checked, storage.Expected = true, strconv.Itoa(*v.MinFreeMB)
		storage.Passed = st.FreeStorageMB >= *v.MinFreeMB
		if !storage.Passed {
			fail("Card full")
		}
	}

	verdict.Checks = []Check{mode, af, battery, storage}
	return verdict
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// CheckTimings reports suspicious contact times. None of them stops a run.
func (s *SequenceService) CheckTimings(t EclipseTimings) []string {
	var warnings []string
	contacts := []struct {
		name string
		at   SecondOfDay
	}{
		{"C1", t.C1}, {"C2", t.C2}, {"Max", t.Max}, {"C3", t.C3}, {"C4", t.C4},
	}
	for i := 1; i < len(contacts); i++ {
		prev, cur := contacts[i-1], contacts[i]
		if cur.at <= prev.at {
			warnings = append(warnings, fmt.Sprintf("%s (%s) is not after %s (%s)", cur.name, cur.at, prev.name, prev.at))
		}
	}

	totality := (t.C3 - t.C2).Duration()
	switch {
	case totality <= 0:
		warnings = append(warnings, fmt.Sprintf("totality duration %s is not positive", FormatDuration(totality)))
	case totality > MaxTotality:
		warnings = append(warnings, fmt.Sprintf("totality duration %s exceeds the %s maximum", FormatDuration(totality), FormatDuration(MaxTotality)))
	}
	return warnings
}
