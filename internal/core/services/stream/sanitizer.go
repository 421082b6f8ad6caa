package stream

import (
	"math"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// Sanitize rejects physically implausible readings before they enter
// history. A value outside [min-2*range, max+2*range], NaN or infinite is a
// sensor glitch and is dropped silently. Accepted values pass through
// unchanged; this is a hard outlier filter, not smoothing.
func Sanitize(band domain.Band, value float64) (float64, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	r := band.Width()
	hardMin := band.Min - 2*r
	hardMax := band.Max + 2*r
	if value < hardMin || value > hardMax {
		return 0, false
	}
	return value, true
}
