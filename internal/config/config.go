// Package config resolves the monitoring session configuration from
// defaults, an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds one monitoring session's configuration. All values are
// resolved once at startup and immutable for the session.
type Config struct {
	// WebhookURL is the Slack webhook endpoint. Empty disables delivery.
	WebhookURL string

	// ErrorRateThreshold is the error percentage above which (strictly) a
	// high error rate alert fires.
	ErrorRateThreshold float64

	// WindowSize is the number of requests in the sliding window.
	WindowSize int

	// AlertCooldown is the minimum interval between delivered alerts of
	// the same type.
	AlertCooldown time.Duration

	// LogFile is the access log to follow.
	LogFile string

	// MaintenanceMode suppresses all alert delivery when set.
	MaintenanceMode bool

	// ActivePool is the designated primary pool.
	ActivePool string

	// ListenAddr is the status API address.
	ListenAddr string

	// HistoryDB is the SQLite alert history path. Empty disables history.
	HistoryDB string
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		ErrorRateThreshold: 2.0,
		WindowSize:         200,
		AlertCooldown:      300 * time.Second,
		LogFile:            "/var/log/nginx/access.log",
		ActivePool:         "blue",
		ListenAddr:         ":8080",
	}
}

// ApplyEnv overlays environment variables onto the config. A malformed
// numeric or boolean value is a startup-fatal error.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("SLACK_WEBHOOK_URL"); ok {
		c.WebhookURL = v
	}
	if v, ok := os.LookupEnv("ERROR_RATE_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ERROR_RATE_THRESHOLD %q: %w", v, err)
		}
		c.ErrorRateThreshold = f
	}
	if v, ok := os.LookupEnv("WINDOW_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_SIZE %q: %w", v, err)
		}
		c.WindowSize = n
	}
	if v, ok := os.LookupEnv("ALERT_COOLDOWN_SEC"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ALERT_COOLDOWN_SEC %q: %w", v, err)
		}
		c.AlertCooldown = time.Duration(n) * time.Second
	}
	if v, ok := os.LookupEnv("NGINX_LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := os.LookupEnv("MAINTENANCE_MODE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MAINTENANCE_MODE %q: %w", v, err)
		}
		c.MaintenanceMode = b
	}
	if v, ok := os.LookupEnv("ACTIVE_POOL"); ok {
		c.ActivePool = v
	}
	if v, ok := os.LookupEnv("POOLWATCH_LISTEN"); ok {
		c.ListenAddr = v
	}
	if v, ok := os.LookupEnv("POOLWATCH_DB"); ok {
		c.HistoryDB = v
	}
	return nil
}

// Validate checks that the resolved configuration can start a session.
func (c *Config) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive, got %d", c.WindowSize)
	}

	if c.AlertCooldown < 0 {
		return fmt.Errorf("alert cooldown must not be negative, got %s", c.AlertCooldown)
	}

	if c.ErrorRateThreshold < 0 {
		return fmt.Errorf("error rate threshold must not be negative, got %v", c.ErrorRateThreshold)
	}

	if c.LogFile == "" {
		return fmt.Errorf("log file path is required")
	}

	if c.ActivePool == "" {
		return fmt.Errorf("active pool is required")
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}

	return nil
}
