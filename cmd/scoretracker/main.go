package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vpinfe/score-tracker/internal/adapters/outbound/notify"
	"github.com/vpinfe/score-tracker/internal/adapters/outbound/screengrab"
	"github.com/vpinfe/score-tracker/internal/config"
	"github.com/vpinfe/score-tracker/internal/process"
	"github.com/vpinfe/score-tracker/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting score tracker")

	// ── Leaderboard settings ────────────────────────────────────
	settings, err := config.LoadLeaderboardSettings(cfg.SettingsPath)
	if err != nil {
		telemetry.Errorf("Failed to load settings: %v", err)
		os.Exit(1)
	}

	// ── Notification sink ───────────────────────────────────────
	notifyFn := notify.Func(notify.Logger)
	if cfg.NotifyWebhookURL != "" {
		webhook := notify.NewWebhook(cfg.NotifyWebhookURL)
		notifyFn = notify.Fanout(notify.Logger, webhook.Notify)
	}

	// ── Agent ───────────────────────────────────────────────────
	agent := process.NewAgent(cfg, settings, screengrab.SystemGrabber{}, notifyFn)
	if err := agent.Start(); err != nil {
		telemetry.Errorf("Failed to start: %v", err)
		os.Exit(1)
	}

	// ── Shutdown + manual trigger ───────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	for {
		sig := <-sigCh
		if sig == syscall.SIGUSR1 {
			// manual submission trigger for installs without the HTTP surface
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				defer cancel()
				if err := agent.Submit(ctx); err != nil {
					telemetry.Debugf("manual submit: %v", err)
				}
			}()
			continue
		}
		break
	}

	telemetry.Infof("Shutting down...")
	agent.Stop()

	telemetry.Infof("Shutdown complete  messages=%d  sessions=%d  finalized=%d  submitted=%d  errors=%d",
		telemetry.Metrics.WSMessagesReceived.Value(),
		telemetry.Metrics.SessionsStarted.Value(),
		telemetry.Metrics.ScoresFinalized.Value(),
		telemetry.Metrics.SubmissionsSent.Value(),
		telemetry.Metrics.SubmissionErrors.Value(),
	)
}
