package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/facilitysense/facilityd/internal/adapters/web/middleware"
	"github.com/facilitysense/facilityd/internal/core/domain"
)

func SetupRoutes(s *Server) http.Handler {
	mux := http.NewServeMux()

	// Rate limiters
	loginLimiter := middleware.NewRateLimiter(5, 1*time.Minute)    // 5 login attempts per minute
	ingestLimiter := middleware.NewRateLimiter(120, 1*time.Minute) // feeders post every few seconds

	// Public API (with rate limiting)
	mux.Handle("/api/login", middleware.RateLimitMiddleware(loginLimiter)(http.HandlerFunc(s.AuthHandler.HandleLogin)))
	mux.HandleFunc("/api/logout", s.AuthHandler.HandleLogout)

	// Protected API
	auth := middleware.AuthMiddleware(s.AuthService)
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	// WebSocket endpoint (protected)
	mux.Handle("/ws", protect(s.WSManager.HandleWebSocket))

	// RBAC Middleware Helper (Operator Level)
	requireOperator := middleware.RoleMiddleware(domain.RoleOperator)
	protectOp := func(h http.HandlerFunc) http.Handler {
		return auth(requireOperator(http.HandlerFunc(h)))
	}

	mux.Handle("/api/me", protect(s.AuthHandler.HandleMe))

	// Sensor ingestion and live reads
	mux.Handle("/api/sensors/ingest", middleware.RateLimitMiddleware(ingestLimiter)(protect(s.SensorHandler.HandleIngest)))
	mux.Handle("/api/sensors/seed", protect(s.SensorHandler.HandleSeed))
	mux.Handle("/api/sensors/alert", protect(s.SensorHandler.HandleAlertEvent))
	mux.Handle("/api/sensors/latest", protect(s.SensorHandler.HandleLatest))
	mux.Handle("/api/sensors/series", protect(s.SensorHandler.HandleSeries))
	mux.Handle("/api/alerts", protect(s.SensorHandler.HandleAlerts))
	mux.Handle("/api/stability", protect(s.SensorHandler.HandleStability))

	// Facility controls (Restricted to Operator/Admin)
	mux.Handle("/api/control/pause", protectOp(s.ControlHandler.HandlePause))
	mux.Handle("/api/control/resume", protectOp(s.ControlHandler.HandleResume))
	mux.Handle("/api/control/clear", protectOp(s.ControlHandler.HandleClear))
	mux.Handle("/api/control/acknowledge", protectOp(s.ControlHandler.HandleAcknowledge))

	// AI / insight endpoints
	mux.Handle("/api/ai/ping", protect(s.AIHandler.HandlePing))
	mux.Handle("/api/ai/score", protect(s.AIHandler.HandleScore))
	mux.Handle("/api/ai/summary", protect(s.AIHandler.HandleSummary))
	mux.Handle("/api/ai/insights", protect(s.AIHandler.HandleInsights))
	mux.Handle("/api/ai/retrain", protectOp(s.AIHandler.HandleRetrain))

	// Reports (Restricted to Operator/Admin)
	mux.Handle("/api/reports/summary", protectOp(s.ReportHandler.HandleSummary))
	mux.Handle("/api/reports/export.csv", protectOp(s.ReportHandler.HandleExportCSV))
	mux.Handle("/api/reports/alerts.csv", protectOp(s.ReportHandler.HandleExportAlertsCSV))
	mux.Handle("/api/reports/export.pdf", protectOp(s.ReportHandler.HandleExportPDF))

	// Metrics endpoint (protected - requires authentication)
	mux.Handle("/metrics", protect(func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	}))

	return mux
}
