package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/services/insight"
	"github.com/facilitysense/facilityd/internal/core/services/stream"
)

// AIHandler serves the insight endpoints backing the dashboard's AI panel.
type AIHandler struct {
	Monitor *stream.Monitor
	Service *insight.Service
}

func NewAIHandler(monitor *stream.Monitor, service *insight.Service) *AIHandler {
	return &AIHandler{Monitor: monitor, Service: service}
}

type aiRequest struct {
	Facility string              `json:"facility"`
	Samples  []domain.FlatSample `json:"samples"`
}

// decode reads the facility plus optional caller-provided samples; when the
// caller sends none, the live series feed the computation.
func (h *AIHandler) decode(w http.ResponseWriter, r *http.Request) (aiRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return aiRequest{}, false
	}

	var req aiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return aiRequest{}, false
	}
	if !domain.KnownFacility(req.Facility) {
		http.Error(w, "Unknown facility", http.StatusBadRequest)
		return aiRequest{}, false
	}
	if len(req.Samples) == 0 {
		req.Samples = h.Monitor.Snapshot(req.Facility).Samples
	}
	return req, true
}

// HandlePing reports insight subsystem availability.
func (h *AIHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":     true,
		"remote": h.Service.RemoteEnabled(),
	})
}

// HandleScore serves the stability percentage for AI panels and cards.
func (h *AIHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.Score(req.Facility, req.Samples))
}

// HandleSummary serves the score plus a one-line sentence.
func (h *AIHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, sentence := h.Service.Summary(req.Facility, req.Samples)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"facility":  res.Facility,
		"stability": res.Stability,
		"score":     res.Score,
		"topIssues": res.TopIssues,
		"summary":   sentence,
	})
}

// HandleInsights serves the natural-language insight with tips and breach
// detail. The remote provider is consulted with a bounded timeout; its
// failure degrades to the local heuristic, surfaced as source=local.
func (h *AIHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	snapshot := h.Monitor.Snapshot(req.Facility)
	snapshot.Samples = req.Samples

	ins, remote := h.Service.Generate(r.Context(), snapshot)
	source := "local"
	if remote {
		source = "remote"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":        true,
		"facility":  req.Facility,
		"summary":   ins.Summary,
		"riskScore": ins.RiskScore,
		"tips":      ins.Tips,
		"breaches":  h.Service.Breaches(req.Samples),
		"source":    source,
	})
}

// HandleRetrain forwards a retrain request when a remote provider exists.
func (h *AIHandler) HandleRetrain(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	forwarded := h.Service.Retrain(r.Context(), req.Facility)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":        true,
		"facility":  req.Facility,
		"forwarded": forwarded,
	})
}
