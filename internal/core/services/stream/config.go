package stream

import (
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// Config carries the tunable constants of the streaming engine. The windows
// are independent knobs; nothing couples them.
type Config struct {
	// SeriesCap bounds every per-sensor series (oldest samples evicted).
	SeriesCap int
	// ThrottleWindow suppresses duplicate alerts per (sensor, direction).
	ThrottleWindow time.Duration
	// VoiceCooldown is the minimum gap between utterances for the same
	// sensor and direction, unless the value moved meaningfully.
	VoiceCooldown time.Duration
	// MinBreach is how long a sensor must be out of range before voice
	// fires at all.
	MinBreach time.Duration
	// FreshWindow is how recent a latest sample must be to count toward
	// stability analytics.
	FreshWindow time.Duration
	// Epsilon is value noise ignored by the voice delta gate.
	Epsilon float64
	// Bands maps sensor types to their acceptable ranges.
	Bands map[domain.SensorType]domain.Band
}

// DefaultConfig returns the engine defaults used in production.
func DefaultConfig() Config {
	return Config{
		SeriesCap:      150,
		ThrottleWindow: 10 * time.Second,
		VoiceCooldown:  120 * time.Second,
		MinBreach:      30 * time.Second,
		FreshWindow:    5 * time.Minute,
		Epsilon:        0.5,
		Bands:          domain.DefaultBands,
	}
}

// minVoiceDelta is the per-type change a value must exceed (on top of the
// cooldown) before the same breach is spoken again.
var minVoiceDelta = map[domain.SensorType]float64{
	domain.SensorTemperature: 1.5,
	domain.SensorHumidity:    6,
	domain.SensorCO2:         150,
	domain.SensorLight:       120,
}

func minDeltaFor(t domain.SensorType) float64 {
	if d, ok := minVoiceDelta[t]; ok {
		return d
	}
	return 2
}
