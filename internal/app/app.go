package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/facilitysense/facilityd/internal/adapters/storage"
	"github.com/facilitysense/facilityd/internal/adapters/voice"
	webserver "github.com/facilitysense/facilityd/internal/adapters/web/server"
	"github.com/facilitysense/facilityd/internal/adapters/web/websocket"
	"github.com/facilitysense/facilityd/internal/config"
	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/ports"
	"github.com/facilitysense/facilityd/internal/core/services/auth"
	"github.com/facilitysense/facilityd/internal/core/services/insight"
	"github.com/facilitysense/facilityd/internal/core/services/stream"
	"github.com/facilitysense/facilityd/internal/telemetry"
)

// recorderQueueSize bounds the async persistence queue; samples beyond it
// are dropped rather than stalling the stream path.
const recorderQueueSize = 1024

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config         *config.Config
	Store          *storage.SQLiteAdapter
	Recorder       *storage.Recorder
	AuthService    *auth.AuthService
	Monitor        *stream.Monitor
	WSManager      *websocket.WSManager
	Announcer      *voice.Announcer
	InsightService *insight.Service
	WebServer      *webserver.Server
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	store, err := app.initStorage()
	if err != nil {
		return err
	}
	app.Store = store

	app.AuthService = auth.NewAuthService(store)
	if err := app.ensureDefaultAdmin(store); err != nil {
		log.Printf("Warning: could not ensure default admin: %v", err)
	}

	// 2. Persistence pipeline
	var recorder stream.Recorder
	if app.Config.Persist {
		app.Recorder = storage.NewRecorder(store, recorderQueueSize)
		recorder = app.Recorder
	} else {
		log.Println("Persistence disabled: readings and alerts are kept in memory only")
	}

	// 3. Streaming engine. The WS manager is both the notifier and the
	// voice publisher, so it is created first and gets the monitor after.
	app.WSManager = websocket.NewWSManager(nil)
	app.Announcer = voice.NewAnnouncer(app.WSManager)

	streamCfg := stream.DefaultConfig()
	streamCfg.SeriesCap = app.Config.SeriesCap
	streamCfg.ThrottleWindow = app.Config.ThrottleWindow
	streamCfg.VoiceCooldown = app.Config.VoiceCooldown
	streamCfg.MinBreach = app.Config.MinBreach
	streamCfg.FreshWindow = app.Config.FreshWindow

	app.Monitor = stream.NewMonitor(streamCfg, app.WSManager, app.Announcer, recorder)
	app.WSManager.Monitor = app.Monitor
	app.warmAlertLog(store)

	// 4. Insight service
	var remote ports.InsightProvider
	if app.Config.InsightURL != "" {
		remote = insight.NewRemoteProvider(app.Config.InsightURL)
		slog.Info("Remote insight provider configured", "url", app.Config.InsightURL)
	}
	app.InsightService = insight.NewService(remote)

	// 5. Web server
	app.WebServer = webserver.NewServer(app.Config.Addr, app.AuthService, app.WSManager, app.Monitor, store, app.InsightService)

	return nil
}

// warmAlertLog replays the last day of persisted alerts into the monitor's
// recent log, so dashboards connecting right after a restart still see
// history.
func (app *Application) warmAlertLog(store *storage.SQLiteAdapter) {
	ctx := context.Background()
	to := time.Now()
	from := to.Add(-24 * time.Hour)

	for _, facility := range domain.Facilities {
		alerts, err := store.AlertsBetween(ctx, facility, from, to)
		if err != nil {
			log.Printf("Warning: could not warm alert log for %s: %v", facility, err)
			continue
		}
		if len(alerts) == 0 {
			continue
		}
		events := make([]domain.AlertEvent, 0, len(alerts))
		for _, a := range alerts {
			at := a.At
			events = append(events, domain.AlertEvent{
				Sensor: a.Sensor.Name,
				Value:  a.Value,
				Status: a.Direction,
				Time:   &at,
			})
		}
		app.Monitor.HandleAllAlerts(facility, events)
		slog.Info("alert log warmed", "facility", facility, "count", len(events))
	}
}

func (app *Application) initStorage() (*storage.SQLiteAdapter, error) {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}
	return store, nil
}

func (app *Application) ensureDefaultAdmin(store *storage.SQLiteAdapter) error {
	if _, err := store.GetByUsername(context.Background(), "admin"); err != nil {
		log.Println("Provisioning default admin user...")
		return app.AuthService.CreateUser(context.Background(), domain.User{
			Username: "admin",
			Role:     domain.RoleAdmin,
		}, "changeit")
	}
	return nil
}

// Run starts the application components and manages their execution lifecycle.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting facilityd components...")

	if app.Recorder != nil {
		app.Recorder.Start(ctx)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	slog.Info("facilityd ready", "addr", app.Config.Addr)

	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case err := <-errChan:
		return err
	}

	return app.cleanup()
}

func (app *Application) cleanup() error {
	slog.Info("Cleaning up resources...")

	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}

	return nil
}
