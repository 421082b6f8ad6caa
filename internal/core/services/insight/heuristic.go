package insight

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// perSensorCap bounds how much history feeds the trend and "since" math.
const perSensorCap = 120

type point struct {
	Value float64
	Time  time.Time
}

// groupSamples splits a flat sample list into per-sensor series, time-ordered,
// keeping only the newest points per sensor.
func groupSamples(samples []domain.FlatSample) map[string][]point {
	by := make(map[string][]point)
	for _, s := range samples {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			continue
		}
		by[s.Sensor] = append(by[s.Sensor], point{Value: s.Value, Time: s.Time})
	}
	for name, pts := range by {
		sort.Slice(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })
		if len(pts) > perSensorCap {
			pts = pts[len(pts)-perSensorCap:]
		}
		by[name] = pts
	}
	return by
}

// movingSlope fits a least-squares line through the last 12 points and
// returns its slope. Fewer than 3 points is no trend.
func movingSlope(vals []float64) float64 {
	n := len(vals)
	if n > 12 {
		vals = vals[n-12:]
		n = 12
	}
	if n < 3 {
		return 0
	}

	var mx, my float64
	for i, v := range vals {
		mx += float64(i + 1)
		my += v
	}
	mx /= float64(n)
	my /= float64(n)

	var num, den float64
	for i, v := range vals {
		x := float64(i + 1)
		num += (x - mx) * (v - my)
		den += (x - mx) * (x - mx)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func trendWord(slope float64) string {
	const absScale = 0.08
	if slope > absScale {
		return "rising"
	}
	if slope < -absScale {
		return "falling"
	}
	return "steady"
}

// breachStart walks back to the last in-range point; the breach starts at the
// point after it. A series never in range breaches from its first point.
func breachStart(pts []point, band domain.Band) time.Time {
	for i := len(pts) - 1; i >= 0; i-- {
		if pts[i].Value >= band.Min && pts[i].Value <= band.Max {
			if i+1 < len(pts) {
				return pts[i+1].Time
			}
			return pts[i].Time
		}
	}
	return pts[0].Time
}

// Breaches lists the sensors whose latest sample is out of range, with breach
// start and trend context.
func Breaches(samples []domain.FlatSample) []domain.BreachDetail {
	by := groupSamples(samples)

	names := make([]string, 0, len(by))
	for name := range by {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []domain.BreachDetail
	for _, name := range names {
		pts := by[name]
		if len(pts) == 0 {
			continue
		}
		band, ok := domain.BandFor(name)
		if !ok {
			continue
		}
		last := pts[len(pts)-1].Value

		var status domain.Direction
		switch {
		case last < band.Min:
			status = domain.DirectionLow
		case last > band.Max:
			status = domain.DirectionHigh
		default:
			continue
		}

		vals := make([]float64, len(pts))
		for i, p := range pts {
			vals[i] = p.Value
		}

		out = append(out, domain.BreachDetail{
			Sensor: name,
			Type:   domain.TypeOf(name).Label(),
			Status: status,
			Last:   math.Round(last*100) / 100,
			Since:  breachStart(pts, band).Format("15:04"),
			Trend:  trendWord(movingSlope(vals)),
		})
	}
	return out
}

// LocalProvider is the heuristic fallback used when the remote insight
// service is unreachable: a plain-language breach summary with a risk score
// derived from deviation and breach age. It never fails.
type LocalProvider struct {
	nowFn func() time.Time
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{nowFn: time.Now}
}

type breachLine struct {
	text string
	mins int
	dev  float64
}

// Generate builds the local insight. ctx is accepted for interface symmetry;
// the computation is in-memory and immediate.
func (p *LocalProvider) Generate(_ context.Context, req domain.InsightRequest) (domain.Insight, error) {
	now := p.nowFn()
	by := groupSamples(req.Samples)
	details := Breaches(req.Samples)

	if len(details) == 0 {
		return domain.Insight{
			Summary:   fmt.Sprintf("All monitored metrics in %s are within their normal ranges based on the latest readings.", req.Facility),
			RiskScore: 5,
			Tips: []string{
				"Maintain current HVAC and ventilation settings.",
				"Schedule routine maintenance checks to keep conditions stable.",
			},
		}, nil
	}

	risk := 10.0
	var lines []breachLine
	for _, d := range details {
		band, ok := domain.BandFor(d.Sensor)
		if !ok {
			continue
		}
		pts := by[d.Sensor]
		if len(pts) == 0 {
			continue
		}

		mins := int(math.Round(now.Sub(breachStart(pts, band)).Minutes()))
		if mins < 1 {
			mins = 1
		}
		half := band.HalfRange()
		if half == 0 {
			half = 1
		}
		dev := math.Abs(d.Last-band.Mid()) / half

		plural := "s"
		if mins == 1 {
			plural = ""
		}
		subject := strings.Replace(domain.BaseName(d.Sensor), " Sensor 1", "", 1)
		text := fmt.Sprintf("%s in %s has been %s for about %d minute%s (current %d, normal %g–%g).",
			subject, domain.RoomFor(d.Sensor), d.Status, mins, plural,
			int(math.Round(d.Last)), band.Min, band.Max)

		lines = append(lines, breachLine{text: text, mins: mins, dev: dev})
		risk += 10*dev + math.Min(20, float64(mins)*1.5)
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].mins != lines[j].mins {
			return lines[i].mins > lines[j].mins
		}
		return lines[i].dev > lines[j].dev
	})
	if len(lines) > 3 {
		lines = lines[:3]
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text
	}

	plural := "s"
	if len(details) == 1 {
		plural = ""
	}
	summary := fmt.Sprintf("Currently, %d sensor%s in %s are outside their normal ranges. %s",
		len(details), plural, req.Facility, strings.Join(parts, " "))

	score := int(math.Round(risk))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return domain.Insight{
		Summary:   summary,
		RiskScore: score,
		Tips: []string{
			"Check the listed rooms and sensors first; they show the largest deviations.",
			"Adjust HVAC or lighting profiles as needed to bring values back into range.",
		},
	}, nil
}
