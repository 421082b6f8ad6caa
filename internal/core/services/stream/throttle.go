package stream

import (
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

type throttleKey struct {
	Sensor    domain.SensorKey
	Direction domain.Direction
}

// AlertThrottle suppresses duplicate alerts for the same sensor and breach
// direction inside a rolling window. A low and a high breach of the same
// sensor throttle independently.
//
// Not internally locked; the Monitor serializes access.
type AlertThrottle struct {
	window time.Duration
	last   map[throttleKey]time.Time
}

func NewAlertThrottle(window time.Duration) *AlertThrottle {
	return &AlertThrottle{
		window: window,
		last:   make(map[throttleKey]time.Time),
	}
}

// Allow reports whether an alert for the sensor/direction may be emitted at
// now, recording the emission when it is allowed. An alert exactly at the
// window boundary is still suppressed.
func (t *AlertThrottle) Allow(sensor domain.SensorKey, dir domain.Direction, now time.Time) bool {
	k := throttleKey{Sensor: sensor, Direction: dir}
	if prev, ok := t.last[k]; ok && now.Sub(prev) <= t.window {
		return false
	}
	t.last[k] = now
	return true
}

// Prune drops entries older than the window so the map does not grow with
// sensor churn.
func (t *AlertThrottle) Prune(now time.Time) {
	for k, at := range t.last {
		if now.Sub(at) > t.window {
			delete(t.last, k)
		}
	}
}

// ClearFacility forgets throttle state for one facility's sensors.
func (t *AlertThrottle) ClearFacility(facility string) {
	for k := range t.last {
		if k.Sensor.Facility == facility {
			delete(t.last, k)
		}
	}
}
