package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the service needs at startup. Only the database
// DSN is mandatory; throttle thresholds default to the documented policy.
type Config struct {
	DatabaseDSN string
	RedisAddr   string // empty disables the slug cache
	ListenAddr  string
	ShortHost   string // host advertised in returned short links

	CreateLimit  int           // successful creates allowed per window
	CreateWindow time.Duration
	DelayAfter   int           // requests per window before delay kicks in
	DelayStep    time.Duration // added per request over the allowance
	DelayMax     time.Duration
	DelayWindow  time.Duration
	GuardRPS     float64 // redirect-path token bucket
	GuardBurst   int
}

func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN environment variable is required")
	}

	cfg := &Config{
		DatabaseDSN:  dsn,
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		ListenAddr:   envString("LISTEN_ADDR", ":8080"),
		ShortHost:    envString("SHORT_HOST", "localhost:8080"),
		CreateLimit:  envInt("CREATE_LIMIT", 2),
		CreateWindow: envDuration("CREATE_WINDOW", 140*time.Second),
		DelayAfter:   envInt("DELAY_AFTER", 1),
		DelayStep:    envDuration("DELAY_STEP", 500*time.Millisecond),
		DelayMax:     envDuration("DELAY_MAX", 5*time.Second),
		DelayWindow:  envDuration("DELAY_WINDOW", 5*time.Minute),
		GuardRPS:     envFloat("GUARD_RPS", 50),
		GuardBurst:   envInt("GUARD_BURST", 100),
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
