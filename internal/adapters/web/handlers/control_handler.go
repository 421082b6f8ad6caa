package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/services/stream"
)

// ControlHandler exposes the facility-scoped operator actions: pause,
// resume, clear and acknowledge.
type ControlHandler struct {
	Monitor *stream.Monitor
}

func NewControlHandler(monitor *stream.Monitor) *ControlHandler {
	return &ControlHandler{Monitor: monitor}
}

type controlRequest struct {
	Facility string `json:"facility"`
}

func (h *ControlHandler) decodeFacility(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return "", false
	}
	if !domain.KnownFacility(req.Facility) {
		http.Error(w, "Unknown facility", http.StatusBadRequest)
		return "", false
	}
	return req.Facility, true
}

// HandlePause gates sample ingestion and voice for one facility.
func (h *ControlHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	facility, ok := h.decodeFacility(w, r)
	if !ok {
		return
	}

	h.Monitor.Pause(facility)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"facility": facility, "paused": true})
}

// HandleResume re-enables ingestion and voice.
func (h *ControlHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	facility, ok := h.decodeFacility(w, r)
	if !ok {
		return
	}

	h.Monitor.Resume(facility)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"facility": facility, "paused": false})
}

// HandleClear resets one facility's series and alert logs.
func (h *ControlHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	facility, ok := h.decodeFacility(w, r)
	if !ok {
		return
	}

	h.Monitor.Clear(facility)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"facility": facility, "cleared": true})
}

// HandleAcknowledge snapshots the facility's breaching sensors into the
// suppression ledger.
func (h *ControlHandler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	facility, ok := h.decodeFacility(w, r)
	if !ok {
		return
	}

	suppressed := h.Monitor.Acknowledge(facility)
	names := make([]string, 0, len(suppressed))
	for _, key := range suppressed {
		names = append(names, key.Name)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"facility":     facility,
		"acknowledged": names,
	})
}
