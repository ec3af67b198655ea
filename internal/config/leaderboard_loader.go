package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	SendModeManual    = "manual"
	SendModeAutomatic = "automatic"
)

// DisplaySettings holds the display ids used for screenshot targeting.
// A nil id means "not configured". Screenshot priority: DMD, then BG,
// then the primary display.
type DisplaySettings struct {
	DMDScreenID          *int `yaml:"dmd_screen_id"`
	BGScreenID           *int `yaml:"bg_screen_id"`
	NotificationScreenID *int `yaml:"notification_screen_id"`
}

// LeaderboardSettings mirrors the [Leaderboard] section of the frontend's
// settings file. The tracker only reads it.
type LeaderboardSettings struct {
	Enabled         bool            `yaml:"enabled"`
	APIURL          string          `yaml:"api_url"`
	APIKey          string          `yaml:"api_key"`
	MachineID       string          `yaml:"machine_id"`
	ScoreServerHost string          `yaml:"score_server_host"`
	ScoreServerPort int             `yaml:"score_server_port"`
	SendMode        string          `yaml:"send_mode"` // "manual" or "automatic"
	Displays        DisplaySettings `yaml:"displays"`
}

func defaultSettings() LeaderboardSettings {
	return LeaderboardSettings{
		Enabled:         false,
		ScoreServerHost: "localhost",
		ScoreServerPort: 3131,
		SendMode:        SendModeManual,
	}
}

// LoadLeaderboardSettings reads the YAML settings file. A missing file is
// not an error: it yields the disabled defaults, matching a fresh install
// where the frontend has not written its config yet.
func LoadLeaderboardSettings(path string) (LeaderboardSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSettings(), nil
		}
		return LeaderboardSettings{}, fmt.Errorf("read leaderboard settings: %w", err)
	}

	s := defaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return LeaderboardSettings{}, fmt.Errorf("parse leaderboard settings: %w", err)
	}

	s.SendMode = strings.ToLower(strings.TrimSpace(s.SendMode))
	if s.SendMode != SendModeAutomatic {
		s.SendMode = SendModeManual
	}
	if s.ScoreServerHost == "" {
		s.ScoreServerHost = "localhost"
	}
	if s.ScoreServerPort == 0 {
		s.ScoreServerPort = 3131
	}
	if s.MachineID == "" {
		s.MachineID = uuid.NewString()
	}

	return s, nil
}

// ServerAddr returns the score server host:port.
func (s LeaderboardSettings) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.ScoreServerHost, s.ScoreServerPort)
}

// Configured reports whether the remote leaderboard API can be reached.
func (s LeaderboardSettings) Configured() bool {
	return s.APIURL != "" && s.APIKey != ""
}
