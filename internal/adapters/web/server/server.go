package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/facilitysense/facilityd/internal/adapters/web/handlers"
	"github.com/facilitysense/facilityd/internal/adapters/web/websocket"
	"github.com/facilitysense/facilityd/internal/core/ports"
	"github.com/facilitysense/facilityd/internal/core/services/insight"
	"github.com/facilitysense/facilityd/internal/core/services/stream"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr        string
	AuthService ports.AuthService
	WSManager   *websocket.WSManager

	AuthHandler    *handlers.AuthHandler
	SensorHandler  *handlers.SensorHandler
	ControlHandler *handlers.ControlHandler
	AIHandler      *handlers.AIHandler
	ReportHandler  *handlers.ReportHandler
	srv            *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, authService ports.AuthService, wsManager *websocket.WSManager, monitor *stream.Monitor, store ports.ReadingStore, insightService *insight.Service) *Server {
	return &Server{
		Addr:        addr,
		AuthService: authService,
		WSManager:   wsManager,

		AuthHandler:    handlers.NewAuthHandler(authService),
		SensorHandler:  handlers.NewSensorHandler(monitor),
		ControlHandler: handlers.NewControlHandler(monitor),
		AIHandler:      handlers.NewAIHandler(monitor, insightService),
		ReportHandler:  handlers.NewReportHandler(monitor, store, insightService),
	}
}

// Run starts the server and the stability broadcaster.
func (s *Server) Run(ctx context.Context) error {
	// Start WS Manager
	s.WSManager.Start(ctx)

	// Setup Routes
	handler := SetupRoutes(s)

	// Instrument with OpenTelemetry
	// "facilityd-server" is the name of the operation (span)
	instrumentedHandler := otelhttp.NewHandler(handler, "facilityd-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
