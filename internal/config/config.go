package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the process configuration, read from the environment
// with an optional .env file for local development.
type Config struct {
	Port           string
	DBPath         string
	LogLevel       string
	AllowedOrigins []string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:     getenv("SPLITNEST_PORT", "8080"),
		DBPath:   getenv("SPLITNEST_DB_PATH", "splitnest.db"),
		LogLevel: getenv("SPLITNEST_LOG_LEVEL", "info"),
	}

	origins := getenv("SPLITNEST_ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
