package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// PDFExporter exports facility reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportFacilityReport generates a professional PDF from a facility report
func (e *PDFExporter) ExportFacilityReport(report *domain.FacilityReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addStabilityBox(pdf, report)
	e.addSensorTable(pdf, report)
	e.addBreaches(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// addHeader adds the report header
func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *domain.FacilityReport) {
	// Title
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 15, fmt.Sprintf("%s Facility Report", report.Facility), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Date and period
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	dateStr := fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.CellFormat(0, 6, dateStr, "", 1, "L", false, 0, "")

	if !report.From.IsZero() {
		periodStr := fmt.Sprintf("Window: %s to %s",
			report.From.Format("2006-01-02 15:04"),
			report.To.Format("2006-01-02 15:04"))
		pdf.CellFormat(0, 6, periodStr, "", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
}

// addStabilityBox adds the prominent stability display
func (e *PDFExporter) addStabilityBox(pdf *gofpdf.Fpdf, report *domain.FacilityReport) {
	r, g, b := e.getModeColor(report.Stability.Mode)

	// Draw colored box
	pdf.SetFillColor(r, g, b)
	pdf.Rect(20, pdf.GetY(), 170, 30, "F")

	y := pdf.GetY()

	// Stability percentage
	pdf.SetFont("Arial", "B", 36)
	pdf.SetTextColor(255, 255, 255) // White
	pdf.SetXY(25, y+5)
	pdf.CellFormat(80, 20, fmt.Sprintf("%d%%", report.Stability.Stability), "", 0, "L", false, 0, "")

	// Mode text
	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(110, y+8)
	pdf.CellFormat(80, 14, string(report.Stability.Mode), "", 0, "L", false, 0, "")

	pdf.SetY(y + 35)

	// Status line under the box
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 6, report.Stability.StatusLine, "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

// getModeColor returns RGB color based on facility mode
func (e *PDFExporter) getModeColor(mode domain.FacilityMode) (r, g, b int) {
	switch mode {
	case domain.ModeCritical:
		return 220, 53, 69 // Red
	case domain.ModeDegraded:
		return 255, 149, 0 // Orange
	default:
		return 52, 199, 89 // Green
	}
}

// addSensorTable adds the per-sensor overview table
func (e *PDFExporter) addSensorTable(pdf *gofpdf.Fpdf, report *domain.FacilityReport) {
	// Section title
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Sensor Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(report.Sensors) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No sensor data in this window", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	// Table header
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)

	pdf.CellFormat(60, 8, "Sensor", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Room", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Latest", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "Samples", "1", 1, "C", true, 0, "")

	// Table rows
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for _, s := range report.Sensors {
		pdf.CellFormat(60, 7, s.Sensor, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, s.Room, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.1f", s.Latest), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%d", s.Samples), "1", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
}

// addBreaches lists the currently out-of-range sensors
func (e *PDFExporter) addBreaches(pdf *gofpdf.Fpdf, report *domain.FacilityReport) {
	// Section title
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Active Breaches", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(report.Breaches) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "All sensors within normal ranges", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.SetFont("Arial", "", 9)
	for _, b := range report.Breaches {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}

		r, g, b2 := e.getDirectionColor(b.Status)
		pdf.SetTextColor(r, g, b2)

		line := fmt.Sprintf("%s (%s) is %s at %.1f", b.Sensor, b.Type, b.Status, b.Last)
		if b.Since != "" {
			line += fmt.Sprintf(" since %s", b.Since)
		}
		line += fmt.Sprintf(" (%s)", b.Trend)
		pdf.CellFormat(0, 6, "• "+line, "", 1, "L", false, 0, "")
	}

	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, fmt.Sprintf("Alerts raised in window: %d", report.AlertCount), "", 1, "L", false, 0, "")
}

// getDirectionColor returns RGB color based on breach direction
func (e *PDFExporter) getDirectionColor(dir domain.Direction) (r, g, b int) {
	switch dir {
	case domain.DirectionHigh:
		return 220, 53, 69 // Red
	case domain.DirectionLow:
		return 0, 102, 204 // Blue
	default:
		return 60, 60, 60
	}
}

// addFooter adds the report footer
func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *domain.FacilityReport) {
	// Move to bottom
	pdf.SetY(-20)

	// Separator line
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	// Footer text
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	footerText := fmt.Sprintf("Generated by %s | facilityd", report.GeneratedBy)
	pdf.CellFormat(0, 5, footerText, "", 1, "C", false, 0, "")
}
