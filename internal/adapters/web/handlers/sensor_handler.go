package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/services/stream"
)

// SensorHandler accepts inbound sensor events and serves live state reads.
type SensorHandler struct {
	Monitor *stream.Monitor
}

func NewSensorHandler(monitor *stream.Monitor) *SensorHandler {
	return &SensorHandler{Monitor: monitor}
}

type ingestRequest struct {
	Facility string           `json:"facility"`
	Readings []domain.Reading `json:"readings"`
}

// HandleIngest accepts a batch of live readings for one facility. Readings
// for unknown facilities are rejected whole; individual glitch values are
// dropped silently downstream.
func (h *SensorHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if !domain.KnownFacility(req.Facility) {
		http.Error(w, "Unknown facility", http.StatusBadRequest)
		return
	}

	for _, reading := range req.Readings {
		h.Monitor.HandleSensorUpdated(req.Facility, reading)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"accepted": len(req.Readings),
		"paused":   h.Monitor.Paused(req.Facility),
	})
}

type seedRequest struct {
	Facility string           `json:"facility"`
	Sensors  []domain.Reading `json:"sensors"`
}

// HandleSeed accepts a full snapshot used only to initialize empty series.
func (h *SensorHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if !domain.KnownFacility(req.Facility) {
		http.Error(w, "Unknown facility", http.StatusBadRequest)
		return
	}

	h.Monitor.HandleAllSensors(req.Facility, req.Sensors)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"seeded"}`))
}

type alertEventRequest struct {
	Facility string `json:"facility"`
	domain.AlertEvent
}

// HandleAlertEvent accepts a pushed alert from an upstream detector. It runs
// through the same sanitizer and throttle as locally-derived alerts.
func (h *SensorHandler) HandleAlertEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req alertEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if !domain.KnownFacility(req.Facility) {
		http.Error(w, "Unknown facility", http.StatusBadRequest)
		return
	}

	h.Monitor.HandleSensorAlert(req.Facility, req.AlertEvent)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"accepted"}`))
}

// HandleLatest returns the newest sample per sensor for a facility. An
// optional filter narrows the result to sensors whose name contains it,
// case-insensitively.
func (h *SensorHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	facility := r.URL.Query().Get("facility")
	if !domain.KnownFacility(facility) {
		http.Error(w, "Unknown facility", http.StatusBadRequest)
		return
	}

	latest := h.Monitor.LatestMatching(facility, r.URL.Query().Get("filter"))
	readings := make([]domain.Reading, 0, len(latest))
	for key, s := range latest {
		readings = append(readings, domain.Reading{Name: key.Name, Value: s.Value, UpdatedAt: s.At})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"facility": facility,
		"sensors":  readings,
	})
}

// HandleSeries returns one sensor's bounded series plus its current breach
// state, if any.
func (h *SensorHandler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	facility := r.URL.Query().Get("facility")
	name := r.URL.Query().Get("sensor")
	if !domain.KnownFacility(facility) || name == "" {
		http.Error(w, "Unknown facility or sensor", http.StatusBadRequest)
		return
	}

	key := domain.SensorKey{Facility: facility, Name: name}
	resp := map[string]interface{}{
		"facility": facility,
		"sensor":   name,
		"series":   h.Monitor.Series(key),
	}
	if breach, ok := h.Monitor.Breach(key); ok {
		resp["breach"] = breach
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleAlerts returns the facility's recent alert log.
func (h *SensorHandler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	facility := r.URL.Query().Get("facility")
	if !domain.KnownFacility(facility) {
		http.Error(w, "Unknown facility", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"facility": facility,
		"alerts":   h.Monitor.Alerts(facility),
	})
}

// HandleStability returns the facility's current health snapshot.
func (h *SensorHandler) HandleStability(w http.ResponseWriter, r *http.Request) {
	facility := r.URL.Query().Get("facility")
	if !domain.KnownFacility(facility) {
		http.Error(w, "Unknown facility", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Monitor.Stability(facility))
}
