package storage

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
	"github.com/facilitysense/facilityd/internal/core/ports"
)

type queuedSample struct {
	facility string
	sample   domain.FlatSample
}

// Recorder batches accepted samples into periodic writes so the event path
// never waits on the database. Alerts are written through immediately; they
// are rare and must not be lost to a crash.
type Recorder struct {
	store      ports.ReadingStore
	sampleChan chan queuedSample
	batchSize  int
	interval   time.Duration
	enabled    bool
	mu         sync.RWMutex
}

// NewRecorder creates a recorder with the given queue capacity.
func NewRecorder(store ports.ReadingStore, bufferSize int) *Recorder {
	return &Recorder{
		store:      store,
		sampleChan: make(chan queuedSample, bufferSize),
		batchSize:  100,
		interval:   5 * time.Second,
		enabled:    true,
	}
}

// RecordSample queues a sample for persistence. When the queue is full the
// sample is dropped rather than blocking the stream.
func (r *Recorder) RecordSample(facility string, s domain.FlatSample) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.enabled {
		return
	}
	select {
	case r.sampleChan <- queuedSample{facility: facility, sample: s}:
	default:
		// queue full, drop to avoid blocking ingestion
	}
}

// RecordAlert writes the alert synchronously.
func (r *Recorder) RecordAlert(a domain.Alert) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.enabled {
		return
	}
	if err := r.store.SaveAlert(a); err != nil {
		log.Printf("[DB-ERR] Failed to save alert: %v", err)
	}
}

// SetEnabled toggles recording.
func (r *Recorder) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// IsEnabled returns the current recording status.
func (r *Recorder) IsEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Start begins the batching loop. The final partial batch is flushed on
// context cancellation.
func (r *Recorder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	buffer := make(map[string][]domain.FlatSample)
	count := 0

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.flush(buffer)
				return
			case q := <-r.sampleChan:
				buffer[q.facility] = append(buffer[q.facility], q.sample)
				count++
				if count >= r.batchSize {
					r.flush(buffer)
					buffer = make(map[string][]domain.FlatSample)
					count = 0
				}
			case <-ticker.C:
				if count > 0 {
					r.flush(buffer)
					buffer = make(map[string][]domain.FlatSample)
					count = 0
				}
			}
		}
	}()
}

func (r *Recorder) flush(buffer map[string][]domain.FlatSample) {
	for facility, samples := range buffer {
		if len(samples) == 0 {
			continue
		}
		if err := r.store.SaveReadingsBatch(samples, facility); err != nil {
			log.Printf("[DB-ERR] Failed to batch save readings: %v", err)
		}
	}
}
