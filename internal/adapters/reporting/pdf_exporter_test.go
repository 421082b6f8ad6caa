package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

func sampleReport() *domain.FacilityReport {
	return &domain.FacilityReport{
		Facility:    "Dubai",
		From:        time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC),
		GeneratedBy: "admin",
		Stability: domain.StabilityReport{
			Facility:   "Dubai",
			Stability:  78,
			Mode:       domain.ModeDegraded,
			StatusLine: "Degraded: 1 active alert(s) in Dubai; monitor closely.",
		},
		Sensors: []domain.SensorSummary{
			{Sensor: "Temperature Sensor 1", Latest: 31.2, Samples: 120, Room: "Server Room"},
			{Sensor: "CO2 Sensor 1", Latest: 410, Samples: 118, Room: "Office 2"},
		},
		Breaches: []domain.BreachDetail{
			{Sensor: "Temperature Sensor 1", Type: "Temperature", Status: domain.DirectionHigh, Last: 31.2, Since: "11:40", Trend: "rising"},
		},
		AlertCount: 4,
	}
}

func TestExportFacilityReport(t *testing.T) {
	exporter := NewPDFExporter()

	data, err := exporter.ExportFacilityReport(sampleReport())
	assert.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.True(t, len(data) > 1000)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExportFacilityReport_EmptySections(t *testing.T) {
	exporter := NewPDFExporter()

	report := &domain.FacilityReport{
		Facility:    "Tokyo",
		GeneratedAt: time.Now(),
		GeneratedBy: "operator",
		Stability:   domain.StabilityReport{Stability: 100, Mode: domain.ModeNominal},
	}

	data, err := exporter.ExportFacilityReport(report)
	assert.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}
