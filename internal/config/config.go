// Package config builds the immutable process configuration once at startup.
// Components receive what they need by injection; nothing reads the
// environment after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "FRAXION_"

// Config is the full process configuration.
type Config struct {
	HTTPAddr string
	Version  string

	PostgresDSN string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	LoginChallenge string

	ChainRPCURL     string
	ChainID         int64
	RegistryAddress string

	RateBurst  int
	RatePerSec int
}

// Load reads configuration from the environment, after loading an optional
// .env file for local development.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		Version:         getenv("VERSION", "dev"),
		PostgresDSN:     getenv("PG_DSN", ""),
		AccessSecret:    getenv("ACCESS_SECRET", ""),
		RefreshSecret:   getenv("REFRESH_SECRET", ""),
		LoginChallenge:  getenv("LOGIN_CHALLENGE", "fraxion-admin-login"),
		ChainRPCURL:     getenv("CHAIN_RPC_URL", ""),
		RegistryAddress: getenv("REGISTRY_ADDRESS", ""),
	}

	var err error
	if cfg.AccessTTL, err = getduration("ACCESS_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = getduration("REFRESH_TTL", 14*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ChainID, err = getint64("CHAIN_ID", 1); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = getint("RATE_BURST", 20); err != nil {
		return Config{}, err
	}
	if cfg.RatePerSec, err = getint("RATE_PER_SEC", 10); err != nil {
		return Config{}, err
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var missing []string
	if c.PostgresDSN == "" {
		missing = append(missing, envPrefix+"PG_DSN")
	}
	if c.AccessSecret == "" {
		missing = append(missing, envPrefix+"ACCESS_SECRET")
	}
	if c.RefreshSecret == "" {
		missing = append(missing, envPrefix+"REFRESH_SECRET")
	}
	if c.ChainRPCURL == "" {
		missing = append(missing, envPrefix+"CHAIN_RPC_URL")
	}
	if c.RegistryAddress == "" {
		missing = append(missing, envPrefix+"REGISTRY_ADDRESS")
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration: " + strings.Join(missing, ", "))
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return def
}

func getduration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", envPrefix, key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s%s must be positive", envPrefix, key)
	}
	return d, nil
}

func getint(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", envPrefix, key, err)
	}
	return v, nil
}

func getint64(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", envPrefix, key, err)
	}
	return v, nil
}
