// Package config loads issuer daemon configuration from the process
// environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every environment-tunable setting for hesha-issuerd.
type Config struct {
	HTTPAddr         string
	IssuerDomain     string
	KeyPath          string
	ChallengeJournal string
	ValidityWindow   time.Duration
	LogLevel         string
}

// FromEnv builds a Config from the process environment, applying the
// same defaults a developer running the issuer locally would expect.
func FromEnv() Config {
	return Config{
		HTTPAddr:         envDefault("HESHA_HTTP_ADDR", ":8443"),
		IssuerDomain:     envDefault("HESHA_ISSUER_DOMAIN", "localhost"),
		KeyPath:          envDefault("HESHA_KEY_PATH", "hesha-issuer-key.json"),
		ChallengeJournal: envDefault("HESHA_CHALLENGE_JOURNAL", ""),
		ValidityWindow:   envDurationDefault("HESHA_VALIDITY_WINDOW_SECONDS", 365*24*time.Hour),
		LogLevel:         envDefault("HESHA_LOG_LEVEL", "info"),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}
