// Command sensor-sim feeds facilityd with synthetic sensor readings. It logs
// in, then posts a batch per facility on a fixed interval. Values wander
// around the middle of each band with occasional excursions outside it, so
// alerts and voice announcements fire during a demo.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facilitysense/facilityd/internal/core/domain"
)

type simSensor struct {
	name string
	min  float64
	max  float64
}

// Ranges intentionally exceed the alert bands so breaches occur.
var simSensors = []simSensor{
	{"Temperature Sensor 1", 20, 30},
	{"Humidity Sensor 1", 30, 70},
	{"CO2 Sensor 1", 400, 900},
	{"Light Sensor 1", 100, 700},
}

type feeder struct {
	client *http.Client
	base   string
	token  string
	values map[string]float64 // (facility|sensor) -> last value
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	base := flag.String("server", "http://localhost:8080", "facilityd base URL")
	username := flag.String("user", "admin", "Login username")
	password := flag.String("pass", "changeit", "Login password")
	interval := flag.Duration("interval", 3*time.Second, "Delay between batches")
	flag.Parse()

	f := &feeder{
		client: &http.Client{Timeout: 10 * time.Second},
		base:   *base,
		values: make(map[string]float64),
	}

	if err := f.login(*username, *password); err != nil {
		slog.Error("Login failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Feeder authenticated", "server", *base)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Feeder stopping")
			return
		case <-ticker.C:
			for _, facility := range domain.Facilities {
				if err := f.postBatch(ctx, facility); err != nil {
					slog.Warn("Batch rejected", "facility", facility, "error", err)
				}
			}
		}
	}
}

func (f *feeder) login(username, password string) error {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	resp, err := f.client.Post(f.base+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned %s", resp.Status)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if out.Token == "" {
		return fmt.Errorf("login response had no token")
	}
	f.token = out.Token
	return nil
}

func (f *feeder) postBatch(ctx context.Context, facility string) error {
	readings := make([]domain.Reading, 0, len(simSensors))
	now := time.Now()
	for _, s := range simSensors {
		readings = append(readings, domain.Reading{
			Name:      s.name,
			Value:     f.next(facility, s),
			UpdatedAt: now,
		})
	}

	body, _ := json.Marshal(map[string]interface{}{
		"facility": facility,
		"readings": readings,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.base+"/api/sensors/ingest", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest returned %s", resp.Status)
	}
	return nil
}

// next random-walks the sensor's value inside its simulation range.
func (f *feeder) next(facility string, s simSensor) float64 {
	key := facility + "|" + s.name
	v, ok := f.values[key]
	if !ok {
		v = s.min + rand.Float64()*(s.max-s.min)
	}

	step := (s.max - s.min) * 0.08
	v += (rand.Float64()*2 - 1) * step
	if v < s.min {
		v = s.min
	}
	if v > s.max {
		v = s.max
	}

	f.values[key] = v
	return v
}
