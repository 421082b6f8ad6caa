package domain

import (
	"time"
)

// Direction tells which side of the band a value breached.
type Direction string

const (
	DirectionLow  Direction = "low"
	DirectionHigh Direction = "high"
	DirectionNone Direction = "none"
)

// Severity is the classification of a value against its band.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Alert is an ephemeral threshold-breach event surfaced to the dashboard.
type Alert struct {
	ID        string    `json:"id"`
	Sensor    SensorKey `json:"sensor"`
	Value     float64   `json:"value"`
	Direction Direction `json:"status"`
	At        time.Time `json:"time"`
}

// AlertEvent is the transport shape of a server-pushed alert. Time is
// optional; the receiver stamps the arrival instant when absent.
type AlertEvent struct {
	Sensor string     `json:"sensor"`
	Value  float64    `json:"value"`
	Status Direction  `json:"status"`
	Time   *time.Time `json:"time,omitempty"`
}

// BreachInfo describes how long the current unbroken breach episode has been
// running. Always derived from series content, never cached.
type BreachInfo struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"-"`
	Minutes   int           `json:"minutes"`
}
