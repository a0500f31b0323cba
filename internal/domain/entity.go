package domain

import (
	"fmt"
	"time"
)

// SecondsPerDay bounds every resolved trigger time.
const SecondsPerDay = 86400

// SecondOfDay is a time of day expressed in seconds since midnight.
type SecondOfDay int

// HMS builds a SecondOfDay from hours, minutes and seconds.
func HMS(h, m, s int) SecondOfDay {
	return SecondOfDay(h*3600 + m*60 + s)
}

// String renders the value as HH:MM:SS.
func (t SecondOfDay) String() string {
	v := int(t)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, v/3600, v%3600/60, v%60)
}

// Duration converts the value to a time.Duration since midnight.
func (t SecondOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Second
}

// Reference names one of the eclipse contact times, or "-" for absolute times.
type Reference string

const (
	RefC1       Reference = "C1"
	RefC2       Reference = "C2"
	RefMax      Reference = "Max"
	RefC3       Reference = "C3"
	RefC4       Reference = "C4"
	RefAbsolute Reference = "-"
)

// Operator applies an offset before or after a reference.
type Operator string

const (
	OpPlus  Operator = "+"
	OpMinus Operator = "-"
)

// EclipseTimings holds the five contact times and the dry-run switch.
type EclipseTimings struct {
	C1       SecondOfDay `json:"c1"`
	C2       SecondOfDay `json:"c2"`
	Max      SecondOfDay `json:"max"`
	C3       SecondOfDay `json:"c3"`
	C4       SecondOfDay `json:"c4"`
	TestMode bool        `json:"testMode"`
}

// Lookup returns the contact time named by ref.
func (e EclipseTimings) Lookup(ref Reference) (SecondOfDay, bool) {
	switch ref {
	case RefC1:
		return e.C1, true
	case RefC2:
		return e.C2, true
	case RefMax:
		return e.Max, true
	case RefC3:
		return e.C3, true
	case RefC4:
		return e.C4, true
	default:
		return 0, false
	}
}

// TimeSpec is an operator and an offset relative to a reference.
// For absolute references Offset is the literal time of day.
type TimeSpec struct {
	Op     Operator    `json:"op"`
	Offset SecondOfDay `json:"offset"`
}

// Exposure is the camera setting applied before each capture.
type Exposure struct {
	Aperture float64 `json:"aperture"`
	ISO      int     `json:"iso"`
	Shutter  float64 `json:"shutter"`
}

// DefaultExposure is used for fields left as "-".
func DefaultExposure() Exposure {
	return Exposure{Aperture: 8.0, ISO: 200, Shutter: 1.0 / 125}
}

func (e Exposure) String() string {
	return fmt.Sprintf("ISO: %d Aperture: %.1f shutter: %s", e.ISO, e.Aperture, PrettyShutter(e.Shutter))
}

// Shot groups what every capture-producing action needs.
type Shot struct {
	Exposure     Exposure      `json:"exposure"`
	MirrorLockup time.Duration `json:"mirrorLockup"`
}

// Kind identifies an action variant.
type Kind int

const (
	KindPhoto Kind = iota
	KindLoop
	KindInterval
)

func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "Photo"
	case KindLoop:
		return "Boucle"
	case KindInterval:
		return "Interval"
	default:
		return "unknown"
	}
}

// Action is one of PhotoAction, LoopAction or IntervalAction.
type Action interface {
	Kind() Kind
	Reference() Reference
	Shot() Shot
	isAction()
}

// PhotoAction captures a single frame at the resolved start time.
type PhotoAction struct {
	Ref     Reference `json:"ref"`
	Start   TimeSpec  `json:"start"`
	Capture Shot      `json:"shot"`
}

// LoopAction captures repeatedly every Interval seconds between Start and End.
type LoopAction struct {
	Ref      Reference `json:"ref"`
	Start    TimeSpec  `json:"start"`
	End      TimeSpec  `json:"end"`
	Interval float64   `json:"interval"`
	Capture  Shot      `json:"shot"`
}

// IntervalAction spreads Count captures between Start and End.
type IntervalAction struct {
	Ref     Reference `json:"ref"`
	Start   TimeSpec  `json:"start"`
	End     TimeSpec  `json:"end"`
	Count   int       `json:"count"`
	Capture Shot      `json:"shot"`
}

func (PhotoAction) Kind() Kind    { return KindPhoto }
func (LoopAction) Kind() Kind     { return KindLoop }
func (IntervalAction) Kind() Kind { return KindInterval }

func (a PhotoAction) Reference() Reference    { return a.Ref }
func (a LoopAction) Reference() Reference     { return a.Ref }
func (a IntervalAction) Reference() Reference { return a.Ref }

func (a PhotoAction) Shot() Shot    { return a.Capture }
func (a LoopAction) Shot() Shot     { return a.Capture }
func (a IntervalAction) Shot() Shot { return a.Capture }

func (PhotoAction) isAction()    {}
func (LoopAction) isAction()     {}
func (IntervalAction) isAction() {}

// Verification lists the expected device state. Nil fields are not checked.
type Verification struct {
	Mode             *string `json:"mode,omitempty"`
	AutofocusEnabled *bool   `json:"autofocusEnabled,omitempty"`
	MinBattery       *int    `json:"minBattery,omitempty"`
	MinFreeMB        *int    `json:"minFreeMB,omitempty"`
}

// DeviceStatus is the state reported by the camera.
type DeviceStatus struct {
	Model            string `json:"model"`
	Mode             string `json:"mode"`
	AutofocusEnabled bool   `json:"autofocusEnabled"`
	BatteryPercent   int    `json:"batteryPercent"`
	FreeStorageMB    int    `json:"freeStorageMB"`
}

// Check is the result of comparing one verification field.
type Check struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Checked  bool   `json:"checked"`
	Passed   bool   `json:"passed"`
}

// Verdict is the go/no-go decision of the pre-flight validator.
type Verdict struct {
	Go     bool    `json:"go"`
	Reason string  `json:"reason,omitempty"`
	Checks []Check `json:"checks"`
}

// Step is one decoded action line. Err is set when the line could not be decoded.
type Step struct {
	Line   int
	Tag    string
	Action Action
	Err    error
}

// Sequence is a decoded sequence file. VerifErr is set when the gating Verif
// line could not be decoded; such a sequence must not run.
type Sequence struct {
	Timings      *EclipseTimings
	Verification *Verification
	VerifErr     error
	Steps        []Step
	Warnings     []string
}

// ActionState tracks where the executor is within the current action.
type ActionState int

const (
	StateIdle ActionState = iota
	StateWaiting
	StateTriggered
	StateExecuting
	StateDone
)

func (s ActionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateTriggered:
		return "triggered"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// MarshalText lets the state appear by name in JSON.
func (s ActionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the final status of one action.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// ActionReport records what happened to one action line.
type ActionReport struct {
	Line      int         `json:"line"`
	Kind      string      `json:"kind"`
	Outcome   Outcome     `json:"outcome"`
	Trigger   SecondOfDay `json:"trigger"`
	End       SecondOfDay `json:"end,omitempty"`
	Interval  int         `json:"interval,omitempty"`
	Captures  int         `json:"captures"`
	Simulated int         `json:"simulated"`
	Failures  int         `json:"failures"`
	Error     string      `json:"error,omitempty"`
}

// CaptureResult is the fate of one capture.
type CaptureResult int

const (
	CaptureFired CaptureResult = iota + 1
	CaptureSimulated
	CaptureFailed
)

// Add counts one capture result.
func (r *ActionReport) Add(res CaptureResult) {
	switch res {
	case CaptureFired:
		r.Captures++
	case CaptureSimulated:
		r.Simulated++
	case CaptureFailed:
		r.Failures++
	}
}

// Stats aggregates a run.
type Stats struct {
	ActionsCompleted  int `json:"actionsCompleted"`
	ActionsSkipped    int `json:"actionsSkipped"`
	ActionsFailed     int `json:"actionsFailed"`
	CapturesFired     int `json:"capturesFired"`
	CapturesSimulated int `json:"capturesSimulated"`
	CapturesFailed    int `json:"capturesFailed"`
}

// Add folds an action report into the totals.
func (s *Stats) Add(r ActionReport) {
	switch r.Outcome {
	case OutcomeCompleted:
		s.ActionsCompleted++
	case OutcomeSkipped:
		s.ActionsSkipped++
	case OutcomeFailed:
		s.ActionsFailed++
	}
	s.CapturesFired += r.Captures
	s.CapturesSimulated += r.Simulated
	s.CapturesFailed += r.Failures
}

// RunReport is the persisted summary of one execution.
type RunReport struct {
	RunID      string         `json:"runId"`
	Source     string         `json:"source,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	TestMode   bool           `json:"testMode"`
	Timings    EclipseTimings `json:"timings"`
	Verdict    *Verdict       `json:"verdict,omitempty"`
	Actions    []ActionReport `json:"actions"`
	Stats      Stats          `json:"stats"`
	Aborted    string         `json:"aborted,omitempty"`
}

// Progress is a point-in-time view of a running sequence.
type Progress struct {
	RunID       string      `json:"runId,omitempty"`
	Running     bool        `json:"running"`
	TestMode    bool        `json:"testMode"`
	Line        int         `json:"line"`
	Kind        string      `json:"kind,omitempty"`
	State       ActionState `json:"state"`
	NextTrigger SecondOfDay `json:"nextTrigger"`
	Remaining   int         `json:"remaining"`
	Done        int         `json:"done"`
	Total       int         `json:"total"`
	Stats       Stats       `json:"stats"`
	LastError   string      `json:"lastError,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// PlanEntry is the resolved schedule of one step, computed without waiting.
type PlanEntry struct {
	Line      int         `json:"line"`
	Kind      string      `json:"kind"`
	Trigger   SecondOfDay `json:"trigger"`
	Wake      SecondOfDay `json:"wake"`
	End       SecondOfDay `json:"end,omitempty"`
	HasEnd    bool        `json:"hasEnd"`
	Interval  int         `json:"interval,omitempty"`
	Clamped   bool        `json:"clamped,omitempty"`
	Estimated int         `json:"estimated"`
	Exposure  Exposure    `json:"exposure"`
	Error     string      `json:"error,omitempty"`
}
