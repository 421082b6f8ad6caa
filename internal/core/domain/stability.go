package domain

import (
	"fmt"
	"time"
)

// FacilityMode is the coarse operating state derived from stability and
// active alert count.
type FacilityMode string

const (
	ModeNominal  FacilityMode = "Nominal"
	ModeDegraded FacilityMode = "Degraded"
	ModeCritical FacilityMode = "Critical"
)

// StabilityReport is the heuristic facility health snapshot shown on the
// analytics sidebar. Recomputed on every relevant state change, not persisted.
type StabilityReport struct {
	Facility           string       `json:"facility"`
	Stability          int          `json:"stability"`
	Mode               FacilityMode `json:"mode"`
	ActiveAlerts       int          `json:"active_alerts"`
	AvgDeviationPct    float64      `json:"avg_deviation_pct"`
	LastAnomalyMinutes int          `json:"last_anomaly_minutes"` // 0 when no recent anomaly
	StatusLine         string       `json:"status_line"`
	ComputedAt         time.Time    `json:"computed_at"`
}

// StatusLineFor builds the one-line facility pulse text for a mode.
func StatusLineFor(mode FacilityMode, facility string, activeAlerts int) string {
	switch mode {
	case ModeDegraded:
		return fmt.Sprintf("Degraded: %d active alert(s) in %s; monitor closely.", activeAlerts, facility)
	case ModeCritical:
		return fmt.Sprintf("Critical: multiple sensors outside range in %s; investigate immediately.", facility)
	}
	return fmt.Sprintf("Nominal: all systems in %s are within normal tolerances.", facility)
}
