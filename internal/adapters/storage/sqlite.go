package storage

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/ports"
)

// SQLiteAdapter implements ports.ReadingStore using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// ReadingModel is the GORM model for sensor readings.
type ReadingModel struct {
	ID         uint   `gorm:"primaryKey"`
	Facility   string `gorm:"index"`
	SensorName string
	Value      float64
	RecordedAt time.Time
}

// AlertModel is the GORM model for threshold alerts.
type AlertModel struct {
	ID         string `gorm:"primaryKey"`
	Facility   string `gorm:"index"`
	SensorName string
	Value      float64
	Direction  string
	RaisedAt   time.Time
}

// UserModel is the GORM model for dashboard users.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex"`
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	LastLogin    time.Time
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// Auto Migrate
	if err := db.AutoMigrate(&ReadingModel{}, &AlertModel{}, &UserModel{}); err != nil {
		return nil, err
	}

	// Create Indices for Performance
	db.Exec("CREATE INDEX IF NOT EXISTS idx_readings_recorded_at ON reading_models(recorded_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_readings_sensor ON reading_models(sensor_name)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_alerts_raised_at ON alert_models(raised_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_alerts_sensor ON alert_models(sensor_name)")

	return &SQLiteAdapter{db: db}, nil
}

// SaveReadingsBatch persists accepted samples in a single transaction.
func (a *SQLiteAdapter) SaveReadingsBatch(readings []domain.FlatSample, facility string) error {
	if len(readings) == 0 {
		return nil
	}

	models := make([]ReadingModel, len(readings))
	for i, r := range readings {
		models[i] = ReadingModel{
			Facility:   facility,
			SensorName: r.Sensor,
			Value:      r.Value,
			RecordedAt: r.Time,
		}
	}

	return a.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, 100).Error
	})
}

// SaveAlert persists one emitted alert. Replays with the same ID upsert
// instead of duplicating.
func (a *SQLiteAdapter) SaveAlert(alert domain.Alert) error {
	model := AlertModel{
		ID:         alert.ID,
		Facility:   alert.Sensor.Facility,
		SensorName: alert.Sensor.Name,
		Value:      alert.Value,
		Direction:  string(alert.Direction),
		RaisedAt:   alert.At,
	}
	return a.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// ReadingsBetween returns a facility's samples inside the window, oldest
// first.
func (a *SQLiteAdapter) ReadingsBetween(ctx context.Context, facility string, from, to time.Time) ([]domain.FlatSample, error) {
	var models []ReadingModel
	err := a.db.WithContext(ctx).
		Where("facility = ? AND recorded_at >= ? AND recorded_at <= ?", facility, from, to).
		Order("recorded_at ASC").
		Limit(8000).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	samples := make([]domain.FlatSample, len(models))
	for i, m := range models {
		samples[i] = domain.FlatSample{Sensor: m.SensorName, Value: m.Value, Time: m.RecordedAt}
	}
	return samples, nil
}

// AlertsBetween returns a facility's alerts inside the window, oldest first.
func (a *SQLiteAdapter) AlertsBetween(ctx context.Context, facility string, from, to time.Time) ([]domain.Alert, error) {
	var models []AlertModel
	err := a.db.WithContext(ctx).
		Where("facility = ? AND raised_at >= ? AND raised_at <= ?", facility, from, to).
		Order("raised_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, len(models))
	for i, m := range models {
		alerts[i] = domain.Alert{
			ID:        m.ID,
			Sensor:    domain.SensorKey{Facility: m.Facility, Name: m.SensorName},
			Value:     m.Value,
			Direction: domain.Direction(m.Direction),
			At:        m.RaisedAt,
		}
	}
	return alerts, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.ReadingStore = (*SQLiteAdapter)(nil)
