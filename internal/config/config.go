package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Addr       string
	DBPath     string
	InsightURL string
	Persist    bool
	Debug      bool

	// Streaming engine tunables
	SeriesCap      int
	ThrottleWindow time.Duration
	VoiceCooldown  time.Duration
	MinBreach      time.Duration
	FreshWindow    time.Duration
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("FACILITYD_ADDR", ":8080")
	cfg.DBPath = getEnv("FACILITYD_DB", getDefaultDBPath())
	cfg.InsightURL = getEnv("FACILITYD_INSIGHT_URL", "")
	cfg.Persist = getEnvBool("FACILITYD_PERSIST", true)
	cfg.SeriesCap = getEnvInt("FACILITYD_SERIES_CAP", 150)
	cfg.ThrottleWindow = getEnvDuration("FACILITYD_THROTTLE", 10*time.Second)
	cfg.VoiceCooldown = getEnvDuration("FACILITYD_VOICE_COOLDOWN", 120*time.Second)
	cfg.MinBreach = getEnvDuration("FACILITYD_MIN_BREACH", 30*time.Second)
	cfg.FreshWindow = getEnvDuration("FACILITYD_FRESH_WINDOW", 5*time.Minute)

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.StringVar(&cfg.InsightURL, "insight-url", cfg.InsightURL, "Remote insight service URL (empty for local heuristic)")
	flag.BoolVar(&cfg.Persist, "persist", cfg.Persist, "Persist readings and alerts to the database")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.IntVar(&cfg.SeriesCap, "series-cap", cfg.SeriesCap, "Samples retained per sensor series")
	flag.DurationVar(&cfg.ThrottleWindow, "throttle", cfg.ThrottleWindow, "Duplicate alert suppression window")
	flag.DurationVar(&cfg.VoiceCooldown, "voice-cooldown", cfg.VoiceCooldown, "Minimum gap between repeated voice alerts")
	flag.DurationVar(&cfg.MinBreach, "min-breach", cfg.MinBreach, "Breach age before voice alerts fire")
	flag.DurationVar(&cfg.FreshWindow, "fresh-window", cfg.FreshWindow, "Sample age counted by stability analytics")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "facilityd.db"
	}

	dir := filepath.Join(home, ".facilityd")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .facilityd directory, using current dir: %v", err)
		return "facilityd.db"
	}

	return filepath.Join(dir, "facilityd.db")
}
