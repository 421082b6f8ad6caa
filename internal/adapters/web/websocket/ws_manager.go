package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/facilitysense/facilityd/internal/adapters/web/middleware"
	"github.com/facilitysense/facilityd/internal/adapters/voice"
	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/ports"
	"github.com/facilitysense/facilityd/internal/core/services/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Allow same-origin (no Origin header)
		if origin == "" {
			return true
		}

		// Allowed origins
		allowedOrigins := []string{
			"http://localhost:8080",
			"http://127.0.0.1:8080",
			"http://[::1]:8080",
		}

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: Rejected origin: %s", origin)
		return false
	},
}

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSManager owns the dashboard connections. It is both the stream engine's
// notifier and the announcer's publisher; every live event the UI sees goes
// through here.
type WSManager struct {
	Monitor *stream.Monitor
	Clients map[*websocket.Conn]*domain.User
	mu      sync.Mutex
}

func NewWSManager(monitor *stream.Monitor) *WSManager {
	return &WSManager{
		Monitor: monitor,
		Clients: make(map[*websocket.Conn]*domain.User),
	}
}

func (m *WSManager) Start(ctx context.Context) {
	go m.sweepStability(ctx)
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Extract user from context (set by AuthMiddleware)
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.Clients[conn] = user
	count := len(m.Clients)
	m.mu.Unlock()
	m.Monitor.SetUserPresent(count > 0)

	log.Printf("WebSocket connected: user=%s, role=%s", user.Username, user.Role)

	// Replay current state so a reconnecting dashboard starts warm
	m.sendSnapshot(conn)

	// Clean up on disconnect
	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.Clients, conn)
			remaining := len(m.Clients)
			m.mu.Unlock()
			m.Monitor.SetUserPresent(remaining > 0)
			log.Printf("WebSocket disconnected: user=%s", user.Username)
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

// sendSnapshot pushes all-sensors and all-alerts replays for every facility
// to one freshly connected client.
func (m *WSManager) sendSnapshot(conn *websocket.Conn) {
	for _, facility := range domain.Facilities {
		latest := m.Monitor.Latest(facility)
		if len(latest) > 0 {
			readings := make([]domain.Reading, 0, len(latest))
			for key, s := range latest {
				readings = append(readings, domain.Reading{Name: key.Name, Value: s.Value, UpdatedAt: s.At})
			}
			m.sendTo(conn, WSMessage{Type: "all-sensors", Payload: map[string]interface{}{
				"facility": facility,
				"sensors":  readings,
			}})
		}

		if alerts := m.Monitor.Alerts(facility); len(alerts) > 0 {
			m.sendTo(conn, WSMessage{Type: "all-alerts", Payload: map[string]interface{}{
				"facility": facility,
				"alerts":   alerts,
			}})
		}
	}
}

func (m *WSManager) sweepStability(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second) // "Sweep" every 2 seconds
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			idle := len(m.Clients) == 0
			m.mu.Unlock()
			if idle {
				continue
			}
			for _, facility := range domain.Facilities {
				m.StabilityChanged(m.Monitor.Stability(facility))
			}
		}
	}
}

// SensorUpdated implements ports.Notifier.
func (m *WSManager) SensorUpdated(key domain.SensorKey, s domain.Sample) {
	m.broadcastMessage(WSMessage{
		Type: "sensor-updated",
		Payload: map[string]interface{}{
			"facility":   key.Facility,
			"name":       key.Name,
			"value":      s.Value,
			"updated_at": s.At,
		},
	})
}

// AlertRaised implements ports.Notifier.
func (m *WSManager) AlertRaised(a domain.Alert) {
	m.broadcastMessage(WSMessage{
		Type:    "sensor-alert",
		Payload: a,
	})
}

// StabilityChanged implements ports.Notifier.
func (m *WSManager) StabilityChanged(r domain.StabilityReport) {
	m.broadcastMessage(WSMessage{
		Type:    "stability",
		Payload: r,
	})
}

// VoiceSpeak implements voice.Publisher.
func (m *WSManager) VoiceSpeak(u voice.Utterance) {
	m.broadcastMessage(WSMessage{
		Type:    "voice",
		Payload: u,
	})
}

// VoiceCancel implements voice.Publisher.
func (m *WSManager) VoiceCancel() {
	m.broadcastMessage(WSMessage{
		Type:    "voice-cancel",
		Payload: nil,
	})
}

func (m *WSManager) broadcastMessage(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.Clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(m.Clients, conn)
		}
	}
}

func (m *WSManager) sendTo(conn *websocket.Conn, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		conn.Close()
	}
}

var _ ports.Notifier = (*WSManager)(nil)
var _ voice.Publisher = (*WSManager)(nil)
