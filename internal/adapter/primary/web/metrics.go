package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eclipse-sequencer/internal/domain"
	"eclipse-sequencer/internal/usecase"
)

const namespace = "eclipse_sequencer"

// metricsHandler exposes the live snapshot as Prometheus metrics on a
// dedicated registry.
func metricsHandler(uc usecase.SequencerUseCase) http.Handler {
	reg := prometheus.NewRegistry()

	gauge := func(name, help string, value func(p domain.Progress) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return value(uc.GetSnapshot()) })
	}
	counter := func(name, help string, value func(s domain.Stats) int) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(uc.GetSnapshot().Stats)) })
	}

	reg.MustRegister(
		gauge("running", "1 while a sequence is executing.", func(p domain.Progress) float64 { return boolFloat(p.Running) }),
		gauge("test_mode", "1 when captures are simulated.", func(p domain.Progress) float64 { return boolFloat(p.TestMode) }),
		gauge("current_line", "Sequence file line of the current action.", func(p domain.Progress) float64 { return float64(p.Line) }),
		gauge("next_trigger_seconds", "Trigger time of the current action, in seconds of day.", func(p domain.Progress) float64 { return float64(p.NextTrigger) }),
		gauge("trigger_remaining_seconds", "Seconds until the current action triggers.", func(p domain.Progress) float64 { return float64(p.Remaining) }),
		gauge("steps_done", "Actions finished in the current run.", func(p domain.Progress) float64 { return float64(p.Done) }),
		gauge("steps_total", "Actions in the current run.", func(p domain.Progress) float64 { return float64(p.Total) }),
		counter("captures_fired_total", "Captures triggered on the camera.", func(s domain.Stats) int { return s.CapturesFired }),
		counter("captures_simulated_total", "Captures skipped in test mode.", func(s domain.Stats) int { return s.CapturesSimulated }),
		counter("captures_failed_total", "Captures the camera rejected.", func(s domain.Stats) int { return s.CapturesFailed }),
		counter("actions_skipped_total", "Actions skipped because their window had passed.", func(s domain.Stats) int { return s.ActionsSkipped }),
		counter("actions_failed_total", "Actions that could not be executed.", func(s domain.Stats) int { return s.ActionsFailed }),
	)

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
