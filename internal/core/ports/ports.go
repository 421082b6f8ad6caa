// Package ports defines the interfaces between the core services and the
// adapters that feed or consume them.
package ports

import (
	"context"
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// Notifier pushes live events to connected dashboard clients.
type Notifier interface {
	SensorUpdated(key domain.SensorKey, s domain.Sample)
	AlertRaised(a domain.Alert)
	StabilityChanged(r domain.StabilityReport)
}

// VoiceSink receives alert utterances. Implementations must serialize
// playback: a new utterance cancels the one in progress, and pausing cancels
// in-flight speech immediately.
type VoiceSink interface {
	Speak(text string)
	CancelAll()
	SetPaused(paused bool)
}

// ReadingStore persists accepted samples and alerts and serves the report
// queries.
type ReadingStore interface {
	SaveReadingsBatch(readings []domain.FlatSample, facility string) error
	SaveAlert(a domain.Alert) error
	ReadingsBetween(ctx context.Context, facility string, from, to time.Time) ([]domain.FlatSample, error)
	AlertsBetween(ctx context.Context, facility string, from, to time.Time) ([]domain.Alert, error)
}

// InsightProvider generates a natural-language insight for a facility
// snapshot. Remote implementations must honor ctx cancellation.
type InsightProvider interface {
	Generate(ctx context.Context, req domain.InsightRequest) (domain.Insight, error)
}

// UserRepository stores dashboard users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	SaveUser(ctx context.Context, user domain.User) error
}

// AuthService validates credentials and session tokens.
type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
}
