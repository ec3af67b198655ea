package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"github.com/vpinfe/score-tracker/internal/adapters/outbound/leaderboard_http"
	"github.com/vpinfe/score-tracker/internal/adapters/outbound/screengrab"
	"github.com/vpinfe/score-tracker/internal/config"
	"github.com/vpinfe/score-tracker/internal/core/pending"
	"github.com/vpinfe/score-tracker/internal/telemetry"
)

var (
	// ErrNoScore means no finalized score is waiting for submission.
	ErrNoScore = errors.New("no pending score")
	// ErrNotConfigured means the leaderboard API URL or key is missing.
	ErrNotConfigured = errors.New("leaderboard not configured")
)

// Pipeline turns the pending score into a leaderboard submission: capture a
// screenshot of the configured display, upload score + screenshot as one
// multipart POST, and report the outcome through the notification callback.
//
// There is no retry loop. A failed submission leaves the pending score
// intact so a manual trigger (or the next finalized session) can try again.
type Pipeline struct {
	settings config.LeaderboardSettings
	pending  *pending.Store
	client   *leaderboard_http.Client
	grabber  screengrab.Grabber
	history  *leaderboard_http.History
	notify   func(title, message string)

	// Concurrent triggers (hotkey spam, auto + manual overlap) collapse
	// into a single in-flight submission.
	sf singleflight.Group
}

func NewPipeline(
	settings config.LeaderboardSettings,
	pend *pending.Store,
	client *leaderboard_http.Client,
	grabber screengrab.Grabber,
	history *leaderboard_http.History,
	notify func(title, message string),
) *Pipeline {
	return &Pipeline{
		settings: settings,
		pending:  pend,
		client:   client,
		grabber:  grabber,
		history:  history,
		notify:   notify,
	}
}

// ScheduleSubmit spawns the one-shot deferred automatic submission.
// Fire-and-forget: a submission scheduled right before shutdown may be
// abandoned.
func (p *Pipeline) ScheduleSubmit(delay time.Duration) {
	time.AfterFunc(delay, func() {
		p.Submit(context.Background())
	})
}

// Submit runs one submission attempt against the current pending score.
// Every terminal state reaches the notification callback; the pending score
// is cleared only on confirmed success.
func (p *Pipeline) Submit(ctx context.Context) error {
	_, err, _ := p.sf.Do("submit", func() (any, error) {
		return nil, p.submit(ctx)
	})
	return err
}

func (p *Pipeline) submit(ctx context.Context) error {
	score, ok := p.pending.Snapshot()
	if !ok {
		telemetry.Warnf("submit: no score available")
		p.notify("Error", "No score available!\nPlay a game first.")
		return ErrNoScore
	}

	if !p.settings.Configured() {
		telemetry.Errorf("submit: leaderboard API URL or key not configured")
		p.notify("Error", "Leaderboard not configured!")
		return ErrNotConfigured
	}

	img, err := screengrab.Capture(p.grabber, p.settings.Displays)
	if err != nil {
		telemetry.Errorf("submit: screenshot: %v", err)
		p.notify("Error", "Failed to capture screenshot")
		return fmt.Errorf("screenshot: %w", err)
	}

	shot, err := screengrab.EncodePNG(img)
	if err != nil {
		telemetry.Errorf("submit: %v", err)
		p.notify("Error", "Failed to capture screenshot")
		return err
	}

	telemetry.Infof("submit: %s score=%s png=%d bytes", score.Rom, humanize.Comma(score.Score), len(shot))

	result, err := p.client.SubmitScore(ctx, leaderboard_http.Submission{
		Rom:   score.Rom,
		Score: score.Score,
		PNG:   shot,
	})
	if err != nil {
		telemetry.Metrics.SubmissionErrors.Inc()
		telemetry.Errorf("submit: %v", err)
		p.record(score, "", false, err.Error())
		p.notify("Error", "Failed to submit:\n"+truncate(err.Error(), 50))
		return err
	}

	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "Unknown error"
		}
		telemetry.Metrics.SubmissionErrors.Inc()
		telemetry.Errorf("submit: rejected: %s", reason)
		p.record(score, result.TableName, false, reason)
		p.notify("Error", "Submission failed:\n"+truncate(reason, 50))
		return fmt.Errorf("submission rejected: %s", reason)
	}

	tableName := result.TableName
	if tableName == "" {
		tableName = score.Rom
	}
	formatted := humanize.Comma(score.Score)

	telemetry.Metrics.SubmissionsSent.Inc()
	telemetry.Infof("Score submitted: %s - %s", tableName, formatted)
	p.record(score, tableName, true, "")
	p.notify("Score Submitted!", fmt.Sprintf("Table: %s\nScore: %s", tableName, formatted))
	p.pending.Clear()
	return nil
}

func (p *Pipeline) record(score pending.Score, tableName string, success bool, errMsg string) {
	p.history.Record(leaderboard_http.HistoryEntry{
		Rom:         score.Rom,
		Score:       score.Score,
		TableName:   tableName,
		Success:     success,
		Error:       errMsg,
		SubmittedAt: time.Now(),
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
