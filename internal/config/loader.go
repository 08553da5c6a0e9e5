package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/timeresolver"
)

// Config captures environment driven configuration values for the planner service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	DefaultTimeZone string
	DeviceTimeZone  string
	NowStepMinutes  int
	BasicAuthUser   string
	BasicAuthHash   string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

// AuthEnabled reports whether HTTP Basic credentials are configured.
func (c Config) AuthEnabled() bool {
	return c.BasicAuthUser != "" && c.BasicAuthHash != ""
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. The device zone defaults to the host
// zone when it is on the supported list. All missing and invalid variables are
// reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "planner.db",
		DefaultTimeZone: "Europe/London",
		DeviceTimeZone:  timeresolver.DeviceZone(),
		NowStepMinutes:  5,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("PLANNER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PLANNER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("PLANNER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if zone := strings.TrimSpace(os.Getenv("PLANNER_DEFAULT_TIME_ZONE")); zone != "" {
		if !timeresolver.IsSupportedZone(zone) {
			invalid = append(invalid, "PLANNER_DEFAULT_TIME_ZONE")
		} else {
			cfg.DefaultTimeZone = zone
		}
	}

	if zone := strings.TrimSpace(os.Getenv("PLANNER_DEVICE_TIME_ZONE")); zone != "" {
		if !timeresolver.IsSupportedZone(zone) {
			invalid = append(invalid, "PLANNER_DEVICE_TIME_ZONE")
		} else {
			cfg.DeviceTimeZone = zone
		}
	}

	if stepValue := strings.TrimSpace(os.Getenv("PLANNER_NOW_STEP_MINUTES")); stepValue != "" {
		step, err := strconv.Atoi(stepValue)
		if err != nil || step <= 0 || step > 60 {
			invalid = append(invalid, "PLANNER_NOW_STEP_MINUTES")
		} else {
			cfg.NowStepMinutes = step
		}
	}

	user := strings.TrimSpace(os.Getenv("PLANNER_BASIC_AUTH_USER"))
	hash := strings.TrimSpace(os.Getenv("PLANNER_BASIC_AUTH_HASH"))
	switch {
	case user != "" && hash == "":
		missing = append(missing, "PLANNER_BASIC_AUTH_HASH")
	case user == "" && hash != "":
		missing = append(missing, "PLANNER_BASIC_AUTH_USER")
	case user != "" && !strings.HasPrefix(hash, "$argon2id$"):
		invalid = append(invalid, "PLANNER_BASIC_AUTH_HASH")
	default:
		cfg.BasicAuthUser = user
		cfg.BasicAuthHash = hash
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("PLANNER_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "PLANNER_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if level := strings.ToLower(strings.TrimSpace(os.Getenv("PLANNER_LOG_LEVEL"))); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "PLANNER_LOG_LEVEL")
		}
	}

	if format := strings.ToLower(strings.TrimSpace(os.Getenv("PLANNER_LOG_FORMAT"))); format != "" {
		switch format {
		case "json", "text":
			cfg.LogFormat = format
		default:
			invalid = append(invalid, "PLANNER_LOG_FORMAT")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
