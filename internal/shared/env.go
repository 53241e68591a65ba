package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override config.toml values.
const (
	EnvAPIURL   = "DREAMSPROUT_API_URL"
	EnvDBPath   = "DREAMSPROUT_DB_PATH"
	EnvLogLevel = "DREAMSPROUT_LOG_LEVEL"
	EnvTimeout  = "DREAMSPROUT_API_TIMEOUT"
	EnvToken    = "DREAMSPROUT_TOKEN"
)

// LoadEnv loads variables from the given .env files (".env" when none are given).
//
// Missing files are not an error; variables already set in the process environment are kept.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var present []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if len(present) == 0 {
		return nil
	}

	return godotenv.Load(present...)
}

// ApplyEnv overlays DREAMSPROUT_* environment variables onto config.
func ApplyEnv(config *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		config.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		config.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		config.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvTimeout, v)
		}
		config.API.TimeoutSeconds = secs
	}
	return nil
}

// TokenFromEnv returns a bearer token supplied through the environment, if any.
func TokenFromEnv() string {
	return strings.TrimSpace(os.Getenv(EnvToken))
}
