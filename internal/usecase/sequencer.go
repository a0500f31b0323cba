package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"eclipse-sequencer/internal/domain"
	"eclipse-sequencer/internal/logging"
)

// SequencerUseCase is the primary port for sequence operations.
// This represents the application's use cases.
type SequencerUseCase interface {
	Run(ctx context.Context, seq domain.Sequence) (domain.RunReport, error)
	Check(seq domain.Sequence) (domain.Verdict, domain.DeviceStatus, error)
	Plan(seq domain.Sequence) ([]domain.PlanEntry, error)
	GetSnapshot() domain.Progress
}

// Options tunes the executor. Zero fields take the DefaultOptions value.
type Options struct {
	// ForceTestMode skips every trigger whatever the Config line says.
	ForceTestMode bool
	// Strict stops the sequence at the first failed action.
	Strict bool
	// Source names the sequence file in the run report.
	Source string

	PollInterval   time.Duration
	ProgressEvery  int
	LoopTick       time.Duration
	NotifyDuration time.Duration
}

// DefaultOptions polls every 250 ms, reports the countdown about every 20 s
// and re-checks a running loop every 500 ms.
func DefaultOptions() Options {
	return Options{
		PollInterval:   250 * time.Millisecond,
		ProgressEvery:  80,
		LoopTick:       500 * time.Millisecond,
		NotifyDuration: time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = def.ProgressEvery
	}
	if o.LoopTick <= 0 {
		o.LoopTick = def.LoopTick
	}
	if o.NotifyDuration <= 0 {
		o.NotifyDuration = def.NotifyDuration
	}
	return o
}

// sequenceInteractor implements SequencerUseCase.
// It depends only on domain layer and secondary ports.
type sequenceInteractor struct {
	camera   domain.Camera
	notifier domain.Notifier
	clock    domain.Clock
	reports  domain.ReportRepository
	service  *domain.SequenceService
	opts     Options

	mu       sync.RWMutex
	progress domain.Progress
}

// NewSequencerUseCase creates a new sequencer use case.
// Dependencies are injected (secondary ports); reports may be nil.
func NewSequencerUseCase(
	camera domain.Camera,
	notifier domain.Notifier,
	clock domain.Clock,
	reports domain.ReportRepository,
	opts Options,
) SequencerUseCase {
	return &sequenceInteractor{
		camera:   camera,
		notifier: notifier,
		clock:    clock,
		reports:  reports,
		service:  domain.NewSequenceService(),
		opts:     opts.withDefaults(),
	}
}

// Run executes every step of seq in order and returns the run report.
// The report is returned, partially filled, alongside fatal errors too.
func (s *sequenceInteractor) Run(ctx context.Context, seq domain.Sequence) (report domain.RunReport, err error) {
	if !s.begin() {
		return domain.RunReport{}, domain.ErrAlreadyRunning
	}

	report = domain.RunReport{
		RunID:     uuid.NewString(),
		Source:    s.opts.Source,
		StartedAt: time.Now(),
	}
	defer func() {
		report.FinishedAt = time.Now()
		if err != nil && report.Aborted == "" {
			report.Aborted = err.Error()
		}
		s.finish(err)
		s.save(report)
	}()

	for _, w := range seq.Warnings {
		logging.Warnf("%s", w)
	}
	if seq.Timings == nil {
		s.say("No Config line, the sequence is stopped!")
		return report, domain.ErrMissingTimings
	}

	timings := *seq.Timings
	testMode := timings.TestMode || s.opts.ForceTestMode
	report.Timings = timings
	report.TestMode = testMode
	s.update(func(p *domain.Progress) {
		p.RunID = report.RunID
		p.TestMode = testMode
		p.Total = len(seq.Steps)
	})

	logging.Infof("Config C1: %s C2: %s Max: %s C3: %s C4: %s TestMode: %v",
		timings.C1, timings.C2, timings.Max, timings.C3, timings.C4, timings.TestMode)
	logging.Infof("Totality: %s", domain.FormatDuration((timings.C3 - timings.C2).Duration()))
	for _, w := range s.service.CheckTimings(timings) {
		logging.Warnf("Timings: %s", w)
	}
	if testMode {
		logging.Infof("Set test mode : 1")
	}
	if dr, ok := s.camera.(domain.DryRunCamera); ok {
		dr.SetDryRun(testMode)
	}

	if seq.VerifErr != nil {
		logging.Errorf("%v", seq.VerifErr)
		s.say("Configuration not accepted the sequence is stopped!")
		return report, fmt.Errorf("%w: %w", domain.ErrPreflightRejected, seq.VerifErr)
	}
	if seq.Verification != nil {
		verdict, _, err := s.Check(seq)
		if err != nil {
			s.say("Camera status unavailable, the sequence is stopped!")
			return report, fmt.Errorf("%w: %w", domain.ErrPreflightRejected, err)
		}
		report.Verdict = &verdict
		if !verdict.Go {
			s.say("Configuration not accepted the sequence is stopped!")
			return report, fmt.Errorf("%w: %s", domain.ErrPreflightRejected, verdict.Reason)
		}
		s.say("Configuration accepted.")
	}

	for i, step := range seq.Steps {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w: %w", domain.ErrInterrupted, err)
		}

		ar, err := s.runStep(ctx, step, timings, testMode)
		report.Actions = append(report.Actions, ar)
		report.Stats.Add(ar)
		s.update(func(p *domain.Progress) {
			p.Done = i + 1
			p.Stats = report.Stats
			p.State = domain.StateDone
			if ar.Error != "" {
				p.LastError = ar.Error
			}
		})
		if err != nil {
			return report, fmt.Errorf("%w: %w", domain.ErrInterrupted, err)
		}
		logging.Infof("Line %d finish go to the next line.", step.Line)

		if s.opts.Strict && (ar.Outcome == domain.OutcomeFailed || ar.Failures > 0) {
			return report, fmt.Errorf("%w: line %d", domain.ErrActionFailed, step.Line)
		}
	}

	logging.Infof("Normal exit.")
	return report, nil
}

func (s *sequenceInteractor) runStep(ctx context.Context, step domain.Step, timings domain.EclipseTimings, testMode bool) (domain.ActionReport, error) {
	ar := domain.ActionReport{Line: step.Line, Kind: step.Tag}
	s.update(func(p *domain.Progress) {
		p.Line = step.Line
		p.Kind = step.Tag
		p.State = domain.StateIdle
	})

	if step.Err != nil {
		logging.Errorf("%v", step.Err)
		ar.Outcome, ar.Error = domain.OutcomeFailed, step.Err.Error()
		return ar, nil
	}

	a := step.Action
	start, end, hasEnd, err := s.service.Window(a, timings)
	if err != nil {
		logging.Errorf("Line %d: %v", step.Line, err)
		ar.Outcome, ar.Error = domain.OutcomeFailed, err.Error()
		return ar, nil
	}
	ar.Trigger = start
	if hasEnd {
		ar.End = end
	}

	shot := a.Shot()
	logging.Infof("Action: %s TimeRef: %s Start: %s End: %s %s MluDelay: %dms",
		step.Tag, a.Reference(), start, optional(end, hasEnd), shot.Exposure, shot.MirrorLockup.Milliseconds())
	if shot.MirrorLockup > 0 {
		logging.Infof("Mirror lockup setup for delay: %d ms", shot.MirrorLockup.Milliseconds())
	}

	s.update(func(p *domain.Progress) {
		p.State = domain.StateWaiting
		p.NextTrigger = start
	})
	if err := s.waitUntil(ctx, start, shot.MirrorLockup); err != nil {
		ar.Outcome, ar.Error = domain.OutcomeFailed, err.Error()
		return ar, err
	}
	s.update(func(p *domain.Progress) {
		p.State = domain.StateTriggered
		p.Remaining = 0
	})

	switch a.(type) {
	case domain.PhotoAction:
		s.setState(domain.StateExecuting)
		ar.Add(s.capture(ctx, shot, testMode))
	default:
		if s.nowSecond() > end {
			s.say(fmt.Sprintf("Too late! TimeEnd: %ds soit %s", int(end), end))
			ar.Outcome = domain.OutcomeSkipped
			break
		}
		interval, clamped := s.service.EffectiveInterval(a, start, end)
		ar.Interval = interval
		if clamped {
			s.say(fmt.Sprintf("Line %d: interval adjusted to %d s", step.Line, interval))
		}
		if err := s.loop(ctx, shot, end, interval, testMode, &ar); err != nil {
			ar.Outcome, ar.Error = domain.OutcomeFailed, err.Error()
			return ar, err
		}
	}

	if ar.Outcome == "" {
		ar.Outcome = domain.OutcomeCompleted
		if ar.Failures > 0 && ar.Captures+ar.Simulated == 0 {
			ar.Outcome = domain.OutcomeFailed
			ar.Error = "every capture failed"
		}
	}
	return ar, nil
}

func optional(t domain.SecondOfDay, ok bool) string {
	if !ok {
		return "-"
	}
	return t.String()
}

// waitUntil polls the clock until the mirror lockup lead time before trigger.
func (s *sequenceInteractor) waitUntil(ctx context.Context, trigger domain.SecondOfDay, mlu time.Duration) error {
	wake := s.service.WakeTarget(trigger, mlu)
	polls := 0
	for s.clock.Now() < wake {
		polls++
		if polls%s.opts.ProgressEvery == 0 {
			remaining := int((trigger.Duration() - s.clock.Now()) / time.Second)
			s.update(func(p *domain.Progress) { p.Remaining = remaining })
			s.say(fmt.Sprintf("Waiting %d seconds", remaining))
		}
		if err := s.clock.Sleep(ctx, s.opts.PollInterval); err != nil {
			return err
		}
	}
	return nil
}

// loop captures every interval seconds until end. The caller has already
// checked that end is not in the past.
func (s *sequenceInteractor) loop(ctx context.Context, shot domain.Shot, end domain.SecondOfDay, interval int, testMode bool, ar *domain.ActionReport) error {
	logging.Infof("Boucle: hFin: %s Intervalle: %d s", end, interval)

	iv := domain.SecondOfDay(interval)
	shoot := s.nowSecond()
	for s.nowSecond() <= end && shoot+iv <= end {
		shoot = s.nowSecond()
		s.setState(domain.StateExecuting)
		ar.Add(s.capture(ctx, shot, testMode))
		s.setState(domain.StateWaiting)
		for shoot+iv-1 >= s.nowSecond() && shoot+iv <= end {
			if err := s.clock.Sleep(ctx, s.opts.LoopTick); err != nil {
				return err
			}
		}
	}
	logging.Infof("End of boucle")
	return nil
}

// capture runs one exposure cycle. It is not interrupted by ctx.
func (s *sequenceInteractor) capture(ctx context.Context, shot domain.Shot, testMode bool) domain.CaptureResult {
	exp := shot.Exposure
	if err := s.camera.ApplyExposure(exp); err != nil {
		logging.Warnf("Exposure not applied (%s): %v", exp, err)
	}

	mirrorUp := false
	if shot.MirrorLockup > 0 {
		if err := s.camera.SetMirrorLockup(true, shot.MirrorLockup); err != nil {
			logging.Warnf("Mirror lockup failed, shooting without it: %v", err)
		} else {
			mirrorUp = true
			logging.Infof("Mirror Up")
			_ = s.clock.Sleep(context.WithoutCancel(ctx), shot.MirrorLockup)
		}
	}

	var result domain.CaptureResult
	switch {
	case testMode:
		logging.Infof("NO Shoot! %s Test Mode", exp)
		result = domain.CaptureSimulated
	default:
		if err := s.camera.TriggerCapture(); err != nil {
			logging.Errorf("Shoot failed! %s: %v", exp, err)
			result = domain.CaptureFailed
		} else {
			logging.Infof("Shoot! %s", exp)
			result = domain.CaptureFired
		}
	}

	if mirrorUp {
		if err := s.camera.SetMirrorLockup(false, 0); err != nil {
			logging.Warnf("Mirror release failed: %v", err)
		}
	}

	s.update(func(p *domain.Progress) {
		switch result {
		case domain.CaptureFired:
			p.Stats.CapturesFired++
		case domain.CaptureSimulated:
			p.Stats.CapturesSimulated++
		case domain.CaptureFailed:
			p.Stats.CapturesFailed++
		}
	})
	return result
}

// Check reads the camera status once and compares it with the Verif line.
func (s *sequenceInteractor) Check(seq domain.Sequence) (domain.Verdict, domain.DeviceStatus, error) {
	status, err := s.camera.ReadStatus()
	if err != nil {
		return domain.Verdict{}, status, fmt.Errorf("read camera status: %w", err)
	}

	var v domain.Verification
	if seq.Verification != nil {
		v = *seq.Verification
	}
	verdict := s.service.Preflight(v, status)
	if seq.VerifErr != nil {
		verdict.Go = false
		verdict.Reason = "Invalid Verif line"
	}

	expected := make([]any, 0, 4)
	actual := make([]any, 0, 4)
	for _, c := range verdict.Checks {
		expected = append(expected, c.Expected)
		actual = append(actual, c.Actual)
	}
	logging.Infof("Should: Mode: %s AF: %s Bat.: %s %% Card: %s Mo", expected...)
	logging.Infof("Have  : Mode: %s AF: %s Bat.: %s %% Card: %s Mo", actual...)
	if !verdict.Go {
		logging.Errorf("Error : %s", verdict.Reason)
	}
	return verdict, status, nil
}

// Plan resolves every step without waiting or touching the camera.
func (s *sequenceInteractor) Plan(seq domain.Sequence) ([]domain.PlanEntry, error) {
	if seq.Timings == nil {
		return nil, domain.ErrMissingTimings
	}
	timings := *seq.Timings

	entries := make([]domain.PlanEntry, 0, len(seq.Steps))
	for _, step := range seq.Steps {
		entry := domain.PlanEntry{Line: step.Line, Kind: step.Tag}
		if step.Err != nil {
			entry.Error = step.Err.Error()
			entries = append(entries, entry)
			continue
		}

		a := step.Action
		start, end, hasEnd, err := s.service.Window(a, timings)
		if err != nil {
			entry.Error = err.Error()
			entries = append(entries, entry)
			continue
		}
		shot := a.Shot()
		entry.Trigger = start
		entry.Wake = domain.SecondOfDay(s.service.WakeTarget(start, shot.MirrorLockup) / time.Second)
		entry.Exposure = shot.Exposure
		entry.Estimated = 1
		if hasEnd {
			interval, clamped := s.service.EffectiveInterval(a, start, end)
			entry.End, entry.HasEnd = end, true
			entry.Interval, entry.Clamped = interval, clamped
			entry.Estimated = s.service.EstimateCaptures(start, end, interval)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetSnapshot returns the current progress.
func (s *sequenceInteractor) GetSnapshot() domain.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

func (s *sequenceInteractor) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.Running {
		return false
	}
	s.progress = domain.Progress{Running: true, State: domain.StateIdle, UpdatedAt: time.Now()}
	return true
}

func (s *sequenceInteractor) finish(err error) {
	s.update(func(p *domain.Progress) {
		p.Running = false
		p.State = domain.StateDone
		if err != nil {
			p.LastError = err.Error()
		}
	})
}

func (s *sequenceInteractor) save(report domain.RunReport) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Save(report); err != nil {
		logging.Warnf("Run report not saved: %v", err)
	}
}

func (s *sequenceInteractor) update(fn func(p *domain.Progress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.progress)
	s.progress.UpdatedAt = time.Now()
}

func (s *sequenceInteractor) setState(state domain.ActionState) {
	s.update(func(p *domain.Progress) { p.State = state })
}

// say logs a message and shows it through the notifier.
func (s *sequenceInteractor) say(message string) {
	logging.Infof("%s", message)
	s.notifier.Notify(message, s.opts.NotifyDuration)
}

func (s *sequenceInteractor) nowSecond() domain.SecondOfDay {
	return domain.SecondOfDay(s.clock.Now() / time.Second)
}
