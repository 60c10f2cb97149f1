// Package metrics exposes Prometheus instrumentation for the dialogue
// engine: utterance and wake counters, state-machine activity, parse
// latency and error-recovery events.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Utterance pipeline metrics
	UtterancesTotal *prometheus.CounterVec
	WakeDetections  prometheus.Counter
	ParseDuration   prometheus.Histogram
	ReRecognitions  *prometheus.CounterVec

	// Dialogue state metrics
	StateTransitions *prometheus.CounterVec
	DialogueState    prometheus.Gauge

	// Error recovery metrics
	LoopErrors       prometheus.Counter
	SleepModeEntries prometheus.Counter
)

// Init creates and registers all metrics. Safe to call more than once.
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		UtterancesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campusrobot_utterances_total",
				Help: "Total utterances processed, by classified intent",
			},
			[]string{"intent"},
		)

		WakeDetections = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campusrobot_wake_detections_total",
				Help: "Total wake phrase detections",
			},
		)

		ParseDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campusrobot_parse_duration_seconds",
				Help:    "Time spent parsing one utterance",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
		)

		ReRecognitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campusrobot_rerecognitions_total",
				Help: "Grammar re-recognition passes, by outcome",
			},
			[]string{"outcome"},
		)

		StateTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campusrobot_state_transitions_total",
				Help: "Dialogue state transitions, by trigger and target state",
			},
			[]string{"transition", "to"},
		)

		DialogueState = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "campusrobot_dialogue_state",
				Help: "Current dialogue state as an ordinal",
			},
		)

		LoopErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campusrobot_loop_errors_total",
				Help: "Total dialogue loop iterations that ended in an error",
			},
		)

		SleepModeEntries = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campusrobot_sleep_mode_entries_total",
				Help: "Times repeated errors forced the robot into sleep mode",
			},
		)

		registry.MustRegister(
			UtterancesTotal,
			WakeDetections,
			ParseDuration,
			ReRecognitions,
			StateTransitions,
			DialogueState,
			LoopErrors,
			SleepModeEntries,
		)

		logger.Info("Prometheus metrics initialized")
	})
}

// ObserveParse records one parse duration.
func ObserveParse(start time.Time) {
	if ParseDuration != nil {
		ParseDuration.Observe(time.Since(start).Seconds())
	}
}

// Handler returns the scrape endpoint handler for the private registry.
func Handler() http.Handler {
	if registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
