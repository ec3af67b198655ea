package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process-level environment configuration. Leaderboard
// settings live in a separate YAML file (see leaderboard_loader.go) because
// they are owned by the frontend's settings UI, not by the process env.
type Config struct {
	// Leaderboard settings file
	SettingsPath string

	// SQLite stores
	ArchivePath string // raw wire-message archive
	HistoryPath string // submission history

	// Local control endpoint (manual submit trigger + status)
	TriggerAddr string

	// Optional remote notification webhook; empty disables it
	NotifyWebhookURL string

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		SettingsPath: envStr("SCORETRACKER_SETTINGS", "leaderboard.yaml"),

		ArchivePath: envStr("SCORETRACKER_ARCHIVE_PATH", "data/wire_archive.db"),
		HistoryPath: envStr("SCORETRACKER_HISTORY_PATH", "data/submissions.db"),

		TriggerAddr: envStr("SCORETRACKER_TRIGGER_ADDR", "127.0.0.1:3141"),

		NotifyWebhookURL: envStr("SCORETRACKER_NOTIFY_WEBHOOK", ""),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
