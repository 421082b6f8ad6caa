package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// ExportSamplesJSON writes samples as a JSON array
func ExportSamplesJSON(w io.Writer, samples []domain.FlatSample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(samples)
}

// ExportSamplesCSV writes samples as CSV with headers
func ExportSamplesCSV(w io.Writer, samples []domain.FlatSample) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Time", "Sensor", "Value"}); err != nil {
		return err
	}

	for _, s := range samples {
		row := []string{
			s.Time.Format(time.RFC3339),
			s.Sensor,
			fmt.Sprintf("%.2f", s.Value),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

// ExportAlertsJSON writes alerts as JSON array
func ExportAlertsJSON(w io.Writer, alerts []domain.Alert) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(alerts)
}

// ExportAlertsCSV writes alerts as CSV
func ExportAlertsCSV(w io.Writer, alerts []domain.Alert) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := []string{"ID", "Facility", "Sensor", "Value", "Direction", "Time"}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, a := range alerts {
		row := []string{
			a.ID,
			a.Sensor.Facility,
			a.Sensor.Name,
			fmt.Sprintf("%.2f", a.Value),
			string(a.Direction),
			a.At.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}
