package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// Score rates a facility snapshot on a 0-100 stability scale. A z-score pass
// flags sensors whose latest value deviates from their recent baseline; a
// threshold pass counts sensors outside their bands. When z-issues exist the
// two are blended 40/60 so the score tracks the dashboard's own threshold
// view.
func Score(facility string, samples []domain.FlatSample) domain.ScoreResult {
	by := groupSamples(samples)

	issues := zIssues(by)
	th := thresholdStability(by)

	stability := th
	if len(issues) > 0 {
		z := zStability(len(issues))
		stability = int(math.Round(float64(z)*0.4 + float64(th)*0.6))
	}
	if stability < 0 {
		stability = 0
	}
	if stability > 100 {
		stability = 100
	}

	return domain.ScoreResult{
		Facility:  facility,
		Stability: stability,
		Score:     stability,
		TopIssues: issues,
	}
}

// Summary renders the score as a one-line sentence for the analytics panel.
func Summary(facility string, samples []domain.FlatSample) (domain.ScoreResult, string) {
	res := Score(facility, samples)
	if len(res.TopIssues) == 0 {
		return res, fmt.Sprintf("%s is %d%% stable. No significant anomalies.", facility, res.Stability)
	}

	parts := make([]string, len(res.TopIssues))
	for i, issue := range res.TopIssues {
		parts[i] = fmt.Sprintf("%s (score=%.2f, last=%.2f)", issue.Sensor, issue.Z, issue.Last)
	}
	s := fmt.Sprintf("%s is %d%% stable. Notable anomalies: %s.", facility, res.Stability, strings.Join(parts, ", "))
	return res, s
}

// zIssues flags sensors whose latest value sits more than 1.2 standard
// deviations from the sensor's own window mean. At most 6 issues, worst
// first.
func zIssues(by map[string][]point) []domain.ScoreIssue {
	var issues []domain.ScoreIssue
	for name, pts := range by {
		if len(pts) == 0 {
			continue
		}
		vals := make([]float64, len(pts))
		for i, p := range pts {
			vals[i] = p.Value
		}
		last := vals[len(vals)-1]
		mean, std := stats(vals)
		if std <= 1e-6 {
			std = 1
		}
		z := (last - mean) / std
		if math.Abs(z) > 1.2 {
			issues = append(issues, domain.ScoreIssue{
				Sensor: name,
				Z:      math.Round(z*100) / 100,
				Last:   math.Round(last*100) / 100,
			})
		}
	}
	sort.Slice(issues, func(i, j int) bool {
		return math.Abs(issues[i].Z) > math.Abs(issues[j].Z)
	})
	if len(issues) > 6 {
		issues = issues[:6]
	}
	return issues
}

func zStability(issueCount int) int {
	s := 100 - issueCount*8
	if s < 0 {
		s = 0
	}
	return s
}

// thresholdStability is the share of sensors whose latest value is inside
// its band, on a 0-100 scale. No evaluable sensors reads as fully stable.
func thresholdStability(by map[string][]point) int {
	total, breaches := 0, 0
	for name, pts := range by {
		if len(pts) == 0 {
			continue
		}
		band, ok := domain.BandFor(name)
		if !ok {
			continue
		}
		total++
		last := pts[len(pts)-1].Value
		if last < band.Min || last > band.Max {
			breaches++
		}
	}
	if total == 0 {
		return 100
	}
	s := int(math.Round(100 * (1 - float64(breaches)/float64(total))))
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return s
}

func stats(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(vals)))
	return mean, std
}
