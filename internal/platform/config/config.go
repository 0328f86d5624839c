// Package config builds service configuration from environment variables so
// main stays lean. Every duration knob has a production-sensible default;
// only the endpoints need to be provided.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything cmd/server needs to wire the service.
type Config struct {
	Addr string

	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string

	Verification Verification
	Sweep        Sweep

	// NotifyEndpoint is the outbound notification channel base URL. Empty
	// means notifications are logged instead of sent.
	NotifyEndpoint string
	// ContactsEndpoint is the upstream case-data provider base URL.
	ContactsEndpoint string
	// MediaEndpoint is the object-storage gateway base URL.
	MediaEndpoint string
	// CompareEndpoint is the face comparison service base URL. Empty means
	// the deterministic mock comparer is used.
	CompareEndpoint string
}

// Verification holds the identity-verification engine knobs.
type Verification struct {
	// RequiredConfidence is the similarity threshold for a MATCH, 0-100.
	RequiredConfidence float64
	// MaxAttempts bounds retries of a single comparison call.
	MaxAttempts int
	// InitialBackoff seeds the exponential backoff between retries.
	InitialBackoff time.Duration
	// BreakerFailureRate opens the circuit when reached over BreakerWindow calls.
	BreakerFailureRate float64
	BreakerWindow      int
	// BreakerCooldown is how long the circuit stays open before a trial call.
	BreakerCooldown time.Duration
}

// Sweep holds the scheduled sweep cadence and lock lease.
type Sweep struct {
	// Interval is the tick between sweep cycles.
	Interval time.Duration
	// LeaseDuration is the distributed lock lease per sweep kind.
	LeaseDuration time.Duration
	// ReminderLead is how far before the due date reminders go out.
	ReminderLead time.Duration
	// CreateAhead is how far past the sweep time check-ins get scheduled.
	CreateAhead time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:             envOr("CHECKIN_ADDR", ":8080"),
		PostgresDSN:      os.Getenv("CHECKIN_POSTGRES_DSN"),
		RedisURL:         os.Getenv("CHECKIN_REDIS_URL"),
		KafkaBrokers:     splitList(os.Getenv("CHECKIN_KAFKA_BROKERS")),
		KafkaTopic:       envOr("CHECKIN_KAFKA_TOPIC", "checkin-events"),
		NotifyEndpoint:   os.Getenv("CHECKIN_NOTIFY_ENDPOINT"),
		ContactsEndpoint: os.Getenv("CHECKIN_CONTACTS_ENDPOINT"),
		MediaEndpoint:    os.Getenv("CHECKIN_MEDIA_ENDPOINT"),
		CompareEndpoint:  os.Getenv("CHECKIN_COMPARE_ENDPOINT"),
		Verification: Verification{
			RequiredConfidence: envFloat("CHECKIN_VERIFY_CONFIDENCE", 90),
			MaxAttempts:        envInt("CHECKIN_VERIFY_MAX_ATTEMPTS", 3),
			InitialBackoff:     envDuration("CHECKIN_VERIFY_BACKOFF", 200*time.Millisecond),
			BreakerFailureRate: envFloat("CHECKIN_VERIFY_BREAKER_RATE", 0.5),
			BreakerWindow:      envInt("CHECKIN_VERIFY_BREAKER_WINDOW", 10),
			BreakerCooldown:    envDuration("CHECKIN_VERIFY_BREAKER_COOLDOWN", 30*time.Second),
		},
		Sweep: Sweep{
			Interval:      envDuration("CHECKIN_SWEEP_INTERVAL", time.Minute),
			LeaseDuration: envDuration("CHECKIN_SWEEP_LEASE", 50*time.Second),
			ReminderLead:  envDuration("CHECKIN_REMINDER_LEAD", 24*time.Hour),
			CreateAhead:   envDuration("CHECKIN_SWEEP_CREATE_AHEAD", 24*time.Hour),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
