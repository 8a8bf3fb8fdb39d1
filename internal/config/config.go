// internal/config/config.go
package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Config is the environment configuration surface of the client. The binary
// loads a .env file via godotenv autoload before this runs.
type Config struct {
	// ServerAddr is the websocket address of the game server,
	// e.g. ws://localhost:8080/game/ws.
	ServerAddr string

	// SessionToken is the externally acquired auth token. Optional: without
	// it the client still connects and waits for session_info.
	SessionToken string

	// LogLevel is a logrus level name (debug, info, warn, ...).
	LogLevel string
}

// Load reads the configuration from the environment with dev defaults.
func Load() Config {
	cfg := Config{
		ServerAddr:   os.Getenv("CABO_SERVER_ADDR"),
		SessionToken: os.Getenv("CABO_SESSION_TOKEN"),
		LogLevel:     os.Getenv("CABO_LOG_LEVEL"),
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = "ws://localhost:8080/game/ws"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg
}

// ParseLevel maps the configured level name to a logrus level, defaulting to
// Info for unknown values.
func (c Config) ParseLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
