package stream

import (
	"math"
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// ComputeStability derives the scalar health indicator for a facility from
// the latest fresh sample of every sensor. A sample older than the fresh
// window contributes nothing, so a silent facility reads as fully stable
// rather than broken.
func ComputeStability(facility string, series map[domain.SensorKey][]domain.Sample, bands map[domain.SensorType]domain.Band, freshWindow time.Duration, now time.Time) domain.StabilityReport {
	var (
		devSum      float64
		freshCount  int
		active      int
		lastAnomaly time.Time
	)

	for key, ser := range series {
		if len(ser) == 0 {
			continue
		}
		latest := ser[len(ser)-1]
		if now.Sub(latest.At) > freshWindow {
			continue
		}
		band, ok := bands[domain.TypeOf(key.Name)]
		if !ok {
			continue
		}
		freshCount++

		half := band.HalfRange()
		if half == 0 {
			half = 1
		}
		dev := math.Abs(latest.Value-band.Mid()) / half
		if dev > 1 {
			dev = 1
		}
		devSum += dev

		if OutOfRange(band, latest.Value) {
			active++
			if latest.At.After(lastAnomaly) {
				lastAnomaly = latest.At
			}
		}
	}

	var avgDev float64
	if freshCount > 0 {
		avgDev = devSum / float64(freshCount)
	}

	stability := 100 - avgDev*50 - float64(active)*10
	if stability < 0 {
		stability = 0
	}
	if stability > 100 {
		stability = 100
	}

	mode := domain.ModeNominal
	switch {
	case active > 2 || stability < 70:
		mode = domain.ModeCritical
	case active > 0 || stability < 90:
		mode = domain.ModeDegraded
	}

	rep := domain.StabilityReport{
		Facility:        facility,
		Stability:       int(math.Round(stability)),
		Mode:            mode,
		ActiveAlerts:    active,
		AvgDeviationPct: math.Round(avgDev * 100),
		ComputedAt:      now,
	}
	if !lastAnomaly.IsZero() {
		rep.LastAnomalyMinutes = int(now.Sub(lastAnomaly) / time.Minute)
	}
	rep.StatusLine = domain.StatusLineFor(rep.Mode, facility, rep.ActiveAlerts)
	return rep
}

// ActiveBreaches lists the facility's sensors whose latest fresh sample is
// out of range, with breach duration, for insight and report generation.
func ActiveBreaches(series map[domain.SensorKey][]domain.Sample, bands map[domain.SensorType]domain.Band, freshWindow time.Duration, now time.Time) map[domain.SensorKey]domain.BreachInfo {
	out := make(map[domain.SensorKey]domain.BreachInfo)
	for key, ser := range series {
		if len(ser) == 0 {
			continue
		}
		latest := ser[len(ser)-1]
		if now.Sub(latest.At) > freshWindow {
			continue
		}
		band, ok := bands[domain.TypeOf(key.Name)]
		if !ok {
			continue
		}
		if breach, hit := CurrentBreach(ser, band, now); hit {
			out[key] = breach
		}
	}
	return out
}
