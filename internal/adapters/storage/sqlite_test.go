package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

// setupInMemoryDB creates a new SQLiteAdapter used for testing
func setupInMemoryDB(t *testing.T) *SQLiteAdapter {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&ReadingModel{}, &AlertModel{}, &UserModel{})
	require.NoError(t, err)

	return &SQLiteAdapter{db: db}
}

func TestSaveAndQueryReadings(t *testing.T) {
	adapter := setupInMemoryDB(t)
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	readings := []domain.FlatSample{
		{Sensor: "Temperature Sensor 1", Value: 22.5, Time: at},
		{Sensor: "CO2 Sensor 1", Value: 410, Time: at.Add(time.Minute)},
	}
	err := adapter.SaveReadingsBatch(readings, "Dubai")
	assert.NoError(t, err)

	// other facility's data must not leak into the window query
	err = adapter.SaveReadingsBatch([]domain.FlatSample{
		{Sensor: "Temperature Sensor 1", Value: 30, Time: at},
	}, "London")
	assert.NoError(t, err)

	got, err := adapter.ReadingsBetween(context.Background(), "Dubai", at.Add(-time.Hour), at.Add(time.Hour))
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Temperature Sensor 1", got[0].Sensor)
	assert.Equal(t, 22.5, got[0].Value)
}

func TestReadingsBetween_WindowBounds(t *testing.T) {
	adapter := setupInMemoryDB(t)
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	err := adapter.SaveReadingsBatch([]domain.FlatSample{
		{Sensor: "Light Sensor 1", Value: 300, Time: at.Add(-2 * time.Hour)},
		{Sensor: "Light Sensor 1", Value: 350, Time: at},
	}, "Dubai")
	require.NoError(t, err)

	got, err := adapter.ReadingsBetween(context.Background(), "Dubai", at.Add(-time.Hour), at.Add(time.Hour))
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, float64(350), got[0].Value)
}

func TestSaveAlert_UpsertOnReplay(t *testing.T) {
	adapter := setupInMemoryDB(t)
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	alert := domain.Alert{
		ID:        "a-1",
		Sensor:    domain.SensorKey{Facility: "Dubai", Name: "Temperature Sensor 1"},
		Value:     31,
		Direction: domain.DirectionHigh,
		At:        at,
	}

	assert.NoError(t, adapter.SaveAlert(alert))
	assert.NoError(t, adapter.SaveAlert(alert)) // replay does not duplicate

	got, err := adapter.AlertsBetween(context.Background(), "Dubai", at.Add(-time.Hour), at.Add(time.Hour))
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, alert.Sensor, got[0].Sensor)
	assert.Equal(t, domain.DirectionHigh, got[0].Direction)
}

func TestUserRepo_RoundTrip(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	user := domain.User{
		ID:           "u-1",
		Username:     "admin",
		PasswordHash: "hash",
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, adapter.SaveUser(ctx, user))

	byName, err := adapter.GetByUsername(ctx, "admin")
	assert.NoError(t, err)
	assert.Equal(t, "u-1", byName.ID)
	assert.Equal(t, domain.RoleAdmin, byName.Role)

	byID, err := adapter.GetByID(ctx, "u-1")
	assert.NoError(t, err)
	assert.Equal(t, "admin", byID.Username)

	_, err = adapter.GetByUsername(ctx, "ghost")
	assert.Equal(t, ErrUserNotFound, err)
}

func TestRecorder_BatchesAndFlushes(t *testing.T) {
	adapter := setupInMemoryDB(t)
	recorder := NewRecorder(adapter, 64)
	recorder.interval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	recorder.Start(ctx)

	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		recorder.RecordSample("Dubai", domain.FlatSample{
			Sensor: "CO2 Sensor 1",
			Value:  400 + float64(i),
			Time:   at.Add(time.Duration(i) * time.Second),
		})
	}

	assert.Eventually(t, func() bool {
		got, err := adapter.ReadingsBetween(context.Background(), "Dubai", at.Add(-time.Minute), at.Add(time.Minute))
		return err == nil && len(got) == 5
	}, 2*time.Second, 25*time.Millisecond)
}

func TestRecorder_DisabledDropsWrites(t *testing.T) {
	adapter := setupInMemoryDB(t)
	recorder := NewRecorder(adapter, 8)
	recorder.SetEnabled(false)

	recorder.RecordAlert(domain.Alert{ID: "a-1", Sensor: domain.SensorKey{Facility: "Dubai", Name: "x"}})

	got, err := adapter.AlertsBetween(context.Background(), "Dubai", time.Time{}, time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, recorder.IsEnabled())
}
