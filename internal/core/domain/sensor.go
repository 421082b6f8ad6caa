package domain

import (
	"strings"
	"time"
)

// SensorKey uniquely identifies one physical sensor stream within one
// facility. Immutable once constructed; the "Facility • Name" string form is
// a serialization detail only.
type SensorKey struct {
	Facility string `json:"facility"`
	Name     string `json:"name"`
}

// String renders the key in the display form used by dashboards and exports.
func (k SensorKey) String() string {
	return k.Facility + " • " + k.Name
}

// BaseName strips an optional facility prefix from a sensor label
// ("Dubai • CO2 Sensor 1" -> "CO2 Sensor 1"). Labels without a separator are
// returned trimmed.
func BaseName(full string) string {
	if idx := strings.Index(full, "•"); idx >= 0 {
		return strings.TrimSpace(full[idx+len("•"):])
	}
	return strings.TrimSpace(full)
}

// Sample is a single timestamped sensor reading.
type Sample struct {
	At    time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Band is the acceptable value range for a sensor type. Static
// configuration, not mutated at runtime.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Mid returns the band midpoint.
func (b Band) Mid() float64 { return (b.Min + b.Max) / 2 }

// HalfRange returns half the band width.
func (b Band) HalfRange() float64 { return (b.Max - b.Min) / 2 }

// Width returns the full band width.
func (b Band) Width() float64 { return b.Max - b.Min }

// SensorType groups sensors by the physical quantity they measure.
type SensorType string

const (
	SensorTemperature SensorType = "temperature"
	SensorHumidity    SensorType = "humidity"
	SensorCO2         SensorType = "co2"
	SensorLight       SensorType = "light"
	SensorUnknown     SensorType = "other"
)

// TypeOf infers the sensor type from its name by substring match.
func TypeOf(name string) SensorType {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "temp"):
		return SensorTemperature
	case strings.Contains(n, "humid"):
		return SensorHumidity
	case strings.Contains(n, "co2"):
		return SensorCO2
	case strings.Contains(n, "light"):
		return SensorLight
	}
	return SensorUnknown
}

// Label returns a human-friendly name for voice announcements.
func (t SensorType) Label() string {
	switch t {
	case SensorTemperature:
		return "Temperature"
	case SensorHumidity:
		return "Humidity"
	case SensorCO2:
		return "CO2"
	case SensorLight:
		return "Light"
	}
	return "Sensor"
}

// Reading is the transport shape of a live sensor update.
type Reading struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FlatSample is a denormalized (sensor, value, time) row used by exports,
// persistence queries and insight requests.
type FlatSample struct {
	Sensor string    `json:"sensor"`
	Value  float64   `json:"value"`
	Time   time.Time `json:"time"`
}
