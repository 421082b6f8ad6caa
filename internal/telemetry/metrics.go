package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SamplesIngested counts sensor samples accepted into series history
	SamplesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facilityd",
			Name:      "samples_ingested_total",
			Help:      "Total number of sensor samples accepted into history",
		},
		[]string{"facility"},
	)

	// GlitchesRejected counts readings dropped by the sanitizer
	GlitchesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facilityd",
			Name:      "glitches_rejected_total",
			Help:      "Total number of implausible readings dropped by the sanitizer",
		},
		[]string{"facility"},
	)

	// AlertsEmitted counts alerts surfaced after throttling
	AlertsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facilityd",
			Name:      "alerts_emitted_total",
			Help:      "Total number of threshold alerts surfaced to clients",
		},
		[]string{"facility", "direction"},
	)

	// AlertsThrottled counts duplicate alerts suppressed inside the window
	AlertsThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facilityd",
			Name:      "alerts_throttled_total",
			Help:      "Total number of duplicate alerts suppressed by the throttle",
		},
		[]string{"facility"},
	)

	// VoiceSpoken counts utterances handed to the voice sink
	VoiceSpoken = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facilityd",
			Name:      "voice_spoken_total",
			Help:      "Total number of alert utterances spoken",
		},
		[]string{"facility"},
	)

	// VoiceSuppressed counts utterances blocked by the voice policy
	VoiceSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facilityd",
			Name:      "voice_suppressed_total",
			Help:      "Total number of alert utterances suppressed by the voice policy",
		},
		[]string{"facility"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		// Register metrics, ignoring errors if already registered
		// This prevents panics when metrics are already in the registry
		prometheus.DefaultRegisterer.Register(SamplesIngested)
		prometheus.DefaultRegisterer.Register(GlitchesRejected)
		prometheus.DefaultRegisterer.Register(AlertsEmitted)
		prometheus.DefaultRegisterer.Register(AlertsThrottled)
		prometheus.DefaultRegisterer.Register(VoiceSpoken)
		prometheus.DefaultRegisterer.Register(VoiceSuppressed)
	})
}
