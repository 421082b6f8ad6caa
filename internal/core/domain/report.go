package domain

import "time"

// SensorSummary is one row of the facility report table.
type SensorSummary struct {
	Sensor  string  `json:"sensor"`
	Latest  float64 `json:"latest"`
	Samples int     `json:"samples"`
	Room    string  `json:"room"`
}

// FacilityReport aggregates everything the PDF/CSV report surfaces for one
// facility and time window.
type FacilityReport struct {
	Facility    string          `json:"facility"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	GeneratedAt time.Time       `json:"generated_at"`
	GeneratedBy string          `json:"generated_by"`
	Stability   StabilityReport `json:"stability"`
	Sensors     []SensorSummary `json:"sensors"`
	Breaches    []BreachDetail  `json:"breaches"`
	AlertCount  int             `json:"alert_count"`
}
