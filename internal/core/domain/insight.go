package domain

import "time"

// Insight is a natural-language facility health summary with a risk score
// and actionable tips, produced remotely or by the local heuristic fallback.
type Insight struct {
	Summary   string   `json:"summary"`
	RiskScore int      `json:"riskScore"`
	Tips      []string `json:"tips"`
}

// BreachDetail is one out-of-range sensor in an insight, with trend context.
type BreachDetail struct {
	Sensor string    `json:"sensor"`
	Type   string    `json:"type"`
	Status Direction `json:"status"`
	Last   float64   `json:"last"`
	Since  string    `json:"since,omitempty"`
	Trend  string    `json:"trend"`
}

// InsightRequest is the payload sent to the remote insight service.
type InsightRequest struct {
	Facility string             `json:"facility"`
	Samples  []FlatSample       `json:"samples"`
	Snapshot map[string]float64 `json:"snapshot"`
	TakenAt  time.Time          `json:"ts"`
}

// ScoreResult is the response of the scoring endpoint.
type ScoreResult struct {
	Facility  string       `json:"facility"`
	Stability int          `json:"stability"`
	Score     int          `json:"score"` // alias of Stability for older clients
	TopIssues []ScoreIssue `json:"topIssues"`
}

// ScoreIssue flags one sensor whose latest value deviates notably from its
// recent baseline.
type ScoreIssue struct {
	Sensor string  `json:"sensor"`
	Z      float64 `json:"z"`
	Last   float64 `json:"last"`
}
