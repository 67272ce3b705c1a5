package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bankprofile/internal/pkg/logger"
)

const (
	defaultHTTPAddr            = ":8080"
	defaultDatabaseURL         = "profiles.db"
	defaultJWTSecret           = "change-me-jwt-secret"
	defaultJWTTTL              = "24h"
	defaultProfileCacheTTL     = "5m"
	defaultSavedFlagDelay      = "3s"
	defaultEditorIdleTTL       = "30m"
	defaultEditorSweepInterval = "1m"
	defaultEditorMaxPerUser    = "5"
)

type Config struct {
	AppEnv              string
	HTTPAddr            string
	DatabaseURL         string
	JWTSecret           string
	JWTTTL              time.Duration
	RedisAddrs          []string
	RedisPassword       string
	ProfileCacheTTL     time.Duration
	SavedFlagDelay      time.Duration
	EditorIdleTTL       time.Duration
	EditorSweepInterval time.Duration
	EditorMaxPerUser    int
	CORSAllowedOrigins  []string
}

// CacheEnabled reports whether a redis address was configured.
func (c *Config) CacheEnabled() bool {
	return len(c.RedisAddrs) > 0
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.RedisAddrs = splitList(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.ProfileCacheTTL, err = parseDurationEnv("PROFILE_CACHE_TTL", defaultProfileCacheTTL); err != nil {
		return nil, err
	}
	if cfg.SavedFlagDelay, err = parseDurationEnv("SAVED_FLAG_DELAY", defaultSavedFlagDelay); err != nil {
		return nil, err
	}
	if cfg.EditorIdleTTL, err = parseDurationEnv("EDITOR_IDLE_TTL", defaultEditorIdleTTL); err != nil {
		return nil, err
	}
	if cfg.EditorSweepInterval, err = parseDurationEnv("EDITOR_SWEEP_INTERVAL", defaultEditorSweepInterval); err != nil {
		return nil, err
	}

	if cfg.EditorMaxPerUser, err = parseIntEnv("EDITOR_MAX_SESSIONS_PER_USER", defaultEditorMaxPerUser); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.ProfileCacheTTL <= 0 {
		return fmt.Errorf("PROFILE_CACHE_TTL must be > 0")
	}
	if cfg.SavedFlagDelay <= 0 {
		return fmt.Errorf("SAVED_FLAG_DELAY must be > 0")
	}
	if cfg.EditorIdleTTL <= 0 {
		return fmt.Errorf("EDITOR_IDLE_TTL must be > 0")
	}
	if cfg.EditorSweepInterval <= 0 {
		return fmt.Errorf("EDITOR_SWEEP_INTERVAL must be > 0")
	}

	if cfg.EditorMaxPerUser <= 0 {
		return fmt.Errorf("EDITOR_MAX_SESSIONS_PER_USER must be > 0")
	}

	if logger.IsProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
