package stream

import (
	"math"
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// CurrentBreach computes how long the current breach episode has been
// ongoing. It scans the series backward from the newest sample until the
// first in-range sample (exclusive) or the start of the series, and reports
// the earliest point of the unbroken run. Returns ok=false when the newest
// sample is in range or the series is empty.
//
// Re-derived on every query so it is always consistent with the series
// content, including after a history clear.
func CurrentBreach(series []domain.Sample, band domain.Band, now time.Time) (domain.BreachInfo, bool) {
	if len(series) == 0 {
		return domain.BreachInfo{}, false
	}
	if InRange(band, series[len(series)-1].Value) {
		return domain.BreachInfo{}, false
	}

	start := series[len(series)-1]
	for i := len(series) - 1; i >= 0; i-- {
		if !OutOfRange(band, series[i].Value) {
			break
		}
		start = series[i]
	}

	dur := now.Sub(start.At)
	mins := int(math.Round(float64(dur) / float64(time.Minute)))
	if mins < 1 {
		// a just-started breach reports one minute, never zero
		mins = 1
	}

	return domain.BreachInfo{
		StartedAt: start.At,
		Duration:  dur,
		Minutes:   mins,
	}, true
}
