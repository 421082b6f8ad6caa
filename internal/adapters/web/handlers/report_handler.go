package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/facilitysense/facilityd/internal/adapters/reporting"
	"github.com/facilitysense/facilityd/internal/adapters/web/middleware"
	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/ports"
	"github.com/facilitysense/facilityd/internal/core/services/export"
	"github.com/facilitysense/facilityd/internal/core/services/insight"
	"github.com/facilitysense/facilityd/internal/core/services/stream"
)

// ReportHandler builds facility reports from live series plus the persisted
// history and serves them as JSON, CSV or PDF.
type ReportHandler struct {
	Monitor *stream.Monitor
	Store   ports.ReadingStore
	Insight *insight.Service
	PDF     *reporting.PDFExporter
}

func NewReportHandler(monitor *stream.Monitor, store ports.ReadingStore, svc *insight.Service) *ReportHandler {
	return &ReportHandler{
		Monitor: monitor,
		Store:   store,
		Insight: svc,
		PDF:     reporting.NewPDFExporter(),
	}
}

// window parses the facility and optional hours query parameters. The default
// window is the last 24 hours.
func (h *ReportHandler) window(w http.ResponseWriter, r *http.Request) (facility string, from, to time.Time, ok bool) {
	facility = r.URL.Query().Get("facility")
	if !domain.KnownFacility(facility) {
		http.Error(w, "Unknown facility", http.StatusBadRequest)
		return "", time.Time{}, time.Time{}, false
	}

	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &hours); err != nil || hours <= 0 || hours > 24*30 {
			http.Error(w, "Invalid hours", http.StatusBadRequest)
			return "", time.Time{}, time.Time{}, false
		}
	}

	to = time.Now()
	from = to.Add(-time.Duration(hours) * time.Hour)
	return facility, from, to, true
}

// buildReport assembles a FacilityReport for the window. Live series supply
// the stability and breach views; the store supplies the alert count.
func (h *ReportHandler) buildReport(r *http.Request, facility string, from, to time.Time) (*domain.FacilityReport, error) {
	generatedBy := "system"
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		generatedBy = user.Username
	}

	report := &domain.FacilityReport{
		Facility:    facility,
		From:        from,
		To:          to,
		GeneratedAt: time.Now(),
		GeneratedBy: generatedBy,
		Stability:   h.Monitor.Stability(facility),
	}

	snapshot := h.Monitor.Snapshot(facility)
	report.Breaches = h.Insight.Breaches(snapshot.Samples)

	for key, ser := range h.Monitor.FacilitySeries(facility) {
		if len(ser) == 0 {
			continue
		}
		report.Sensors = append(report.Sensors, domain.SensorSummary{
			Sensor:  key.Name,
			Latest:  ser[len(ser)-1].Value,
			Samples: len(ser),
			Room:    domain.RoomFor(key.Name),
		})
	}

	alerts, err := h.Store.AlertsBetween(r.Context(), facility, from, to)
	if err != nil {
		return nil, err
	}
	report.AlertCount = len(alerts)
	return report, nil
}

// HandleSummary serves the report as JSON.
func (h *ReportHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	facility, from, to, ok := h.window(w, r)
	if !ok {
		return
	}

	report, err := h.buildReport(r, facility, from, to)
	if err != nil {
		http.Error(w, "Report generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// HandleExportCSV streams the persisted readings for the window as CSV.
func (h *ReportHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	facility, from, to, ok := h.window(w, r)
	if !ok {
		return
	}

	samples, err := h.Store.ReadingsBetween(r.Context(), facility, from, to)
	if err != nil {
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s-readings-%s.csv", facility, to.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.ExportSamplesCSV(w, samples); err != nil {
		// Headers already sent; nothing sensible left to report
		return
	}
}

// HandleExportAlertsCSV streams the persisted alerts for the window as CSV.
func (h *ReportHandler) HandleExportAlertsCSV(w http.ResponseWriter, r *http.Request) {
	facility, from, to, ok := h.window(w, r)
	if !ok {
		return
	}

	alerts, err := h.Store.AlertsBetween(r.Context(), facility, from, to)
	if err != nil {
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s-alerts-%s.csv", facility, to.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	export.ExportAlertsCSV(w, alerts)
}

// HandleExportPDF renders the full report as a downloadable PDF.
func (h *ReportHandler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	facility, from, to, ok := h.window(w, r)
	if !ok {
		return
	}

	report, err := h.buildReport(r, facility, from, to)
	if err != nil {
		http.Error(w, "Report generation failed", http.StatusInternalServerError)
		return
	}

	data, err := h.PDF.ExportFacilityReport(report)
	if err != nil {
		http.Error(w, "PDF generation failed", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s-report-%s.pdf", facility, to.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}
