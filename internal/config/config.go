package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ovaphlow/pitchfork/service-journal-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-journal-go/pkg/utilities"
)

// Config is the whole process configuration, parsed once at startup.
type Config struct {
	HTTP       HTTPConfig
	Database   database.Config
	Log        utilities.Config
	Encryption EncryptionConfig
	Steam      SteamConfig
	Session    SessionConfig
	// SnowflakeNode identifies this instance when generating row IDs.
	SnowflakeNode int64 `env:"SNOWFLAKE_NODE" envDefault:"1"`
}

type HTTPConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8431"`
}

// EncryptionConfig holds the connection-credential key: 32 bytes as 64 hex chars.
type EncryptionConfig struct {
	Key string `env:"ENCRYPTION_KEY"`
}

type SteamConfig struct {
	APIKey  string        `env:"STEAM_API_KEY"`
	BaseURL string        `env:"STEAM_API_BASE_URL" envDefault:"https://api.steampowered.com"`
	Timeout time.Duration `env:"STEAM_HTTP_TIMEOUT" envDefault:"10s"`
	// RateLimit is in requests per second; 0 disables throttling.
	RateLimit float64 `env:"STEAM_RATE_LIMIT" envDefault:"10"`
	Burst     int     `env:"STEAM_RATE_BURST" envDefault:"4"`
}

type SessionConfig struct {
	Secret string        `env:"SESSION_SECRET"`
	Issuer string        `env:"SESSION_ISSUER" envDefault:"game-journal"`
	TTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	// SecureCookie marks the session cookie Secure; enable behind TLS.
	SecureCookie bool `env:"SESSION_SECURE_COOKIE" envDefault:"false"`
}

var (
	ErrMalformedEncryptionKey = errors.New("ENCRYPTION_KEY must be 64 hex characters (32 bytes)")
	ErrMissingSessionSecret   = errors.New("SESSION_SECRET is required")
)

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the secrets. A missing encryption key is allowed (stored
// credentials are then passed through unread); a malformed one is not.
func (c *Config) Validate() error {
	if c.Encryption.Key != "" {
		raw, err := hex.DecodeString(c.Encryption.Key)
		if err != nil || len(raw) != 32 {
			return ErrMalformedEncryptionKey
		}
	}
	if c.Session.Secret == "" {
		return ErrMissingSessionSecret
	}
	return nil
}
