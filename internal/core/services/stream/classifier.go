package stream

import (
	"github.com/facilitysense/facilityd/internal/core/domain"
)

// Classification is the result of evaluating a value against a band.
type Classification struct {
	Severity  domain.Severity
	Direction domain.Direction
}

// Classify maps a value to a severity and breach direction. The warning
// margin is 10% of the band width on each side; beyond it the value is
// danger. Pure and stateless, shared by chart zoning and alert triggering.
func Classify(value float64, band domain.Band) Classification {
	warn := 0.10 * band.Width()

	c := Classification{Severity: domain.SeverityOK, Direction: domain.DirectionNone}
	switch {
	case value < band.Min:
		c.Direction = domain.DirectionLow
	case value > band.Max:
		c.Direction = domain.DirectionHigh
	default:
		return c
	}

	if value < band.Min-warn || value > band.Max+warn {
		c.Severity = domain.SeverityDanger
	} else {
		c.Severity = domain.SeverityWarning
	}
	return c
}

// OutOfRange is the breach predicate used by breach tracking, throttling and
// acknowledgement: warning-or-worse.
func OutOfRange(band domain.Band, value float64) bool {
	return value < band.Min || value > band.Max
}

// InRange is the back-to-normal predicate used for acknowledgement eviction.
func InRange(band domain.Band, value float64) bool {
	return value >= band.Min && value <= band.Max
}
