/*
Package config loads runtime configuration from the environment.

PURPOSE:
  Centralizes every tunable the engine exposes. Business constants that
  used to be hard-coded (the 7-day auto-reject threshold, carry-forward
  caps via the quota file) are configuration here.

SOURCES:
  A .env file is loaded when present (godotenv); real environment
  variables win over file entries. Everything has a working default so a
  bare `go run ./cmd/server` starts.

VARIABLES:
  PORT                  HTTP port (default 8080)
  DB_PATH               SQLite path, ":memory:" allowed (default leave.db)
  AUTO_REJECT_AFTER_DAYS  Pending age before auto-rejection (default 7)
  AUTO_REJECT_CRON      Daily sweep schedule (default "0 1 * * *")
  ROLLOVER_CRON         Annual sweep schedule (default "30 0 1 1 *")
  SCHEDULER_ENABLED     Set "false" to disable background sweeps
  WEEKEND_DAYS          Comma list, e.g. "Saturday,Sunday" (the default)
  QUOTA_CONFIG          Path to a quota JSON file (optional)
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime tunable.
type Config struct {
	Port   int
	DBPath string

	AutoRejectAfter  time.Duration
	AutoRejectCron   string
	RolloverCron     string
	SchedulerEnabled bool

	WeekendDays     []time.Weekday
	QuotaConfigPath string
}

// Load reads configuration from the environment, consulting a .env file
// when one exists.
func Load() (*Config, error) {
	// Missing .env is fine; env vars alone are a complete source.
	_ = godotenv.Load()

	weekend, err := parseWeekdays(getEnv("WEEKEND_DAYS", "Saturday,Sunday"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:             getEnvInt("PORT", 8080),
		DBPath:           getEnv("DB_PATH", "leave.db"),
		AutoRejectAfter:  time.Duration(getEnvInt("AUTO_REJECT_AFTER_DAYS", 7)) * 24 * time.Hour,
		AutoRejectCron:   getEnv("AUTO_REJECT_CRON", "0 1 * * *"),
		RolloverCron:     getEnv("ROLLOVER_CRON", "30 0 1 1 *"),
		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),
		WeekendDays:      weekend,
		QuotaConfigPath:  getEnv("QUOTA_CONFIG", ""),
	}, nil
}

// =============================================================================
// ENV HELPERS
// =============================================================================

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		d, ok := names[part]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q in WEEKEND_DAYS", part)
		}
		out = append(out, d)
	}
	return out, nil
}
