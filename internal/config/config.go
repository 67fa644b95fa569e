package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultMapDir   = "dotmaps"
	defaultMode     = "interpolate"
	defaultWorkers  = 1
	defaultLogLevel = "info"
)

type Config struct {
	MapDir   string
	Mode     string
	Workers  int
	LogLevel string
}

// Load reads .env (if present) and the PINKDOTS_* environment variables.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		MapDir:   getenv("PINKDOTS_MAP_DIR", defaultMapDir),
		Mode:     getenv("PINKDOTS_MODE", defaultMode),
		Workers:  defaultWorkers,
		LogLevel: getenv("PINKDOTS_LOG_LEVEL", defaultLogLevel),
	}

	if v := os.Getenv("PINKDOTS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("PINKDOTS_WORKERS must be a positive integer, got %q", v)
		}
		cfg.Workers = n
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
