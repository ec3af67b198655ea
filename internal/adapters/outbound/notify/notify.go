// Package notify delivers user-facing notifications for terminal
// success/failure states of the submission pipeline. Rendering is the
// caller's problem; the frontend overlays a toast, headless installs can
// point a webhook at a chat channel instead.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vpinfe/score-tracker/internal/telemetry"
)

// Func is the notification callback: a short title and a message body.
type Func func(title, message string)

// Logger writes notifications to the process log. Default sink.
func Logger(title, message string) {
	telemetry.Infof("[notify] %s: %s", title, message)
}

// Webhook posts notifications to a chat webhook (Discord-compatible
// content payload).
type Webhook struct {
	url        string
	httpClient *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify implements Func. Delivery is best-effort; failures are logged.
func (w *Webhook) Notify(title, message string) {
	payload := struct {
		Content string `json:"content"`
	}{
		Content: fmt.Sprintf("**%s**\n%s", title, message),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		telemetry.Warnf("notify: marshal: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		telemetry.Warnf("notify: new request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		telemetry.Warnf("notify: webhook: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		telemetry.Warnf("notify: webhook status=%d", resp.StatusCode)
	}
}

// Fanout returns a Func that delivers to every sink in order.
func Fanout(sinks ...Func) Func {
	return func(title, message string) {
		for _, s := range sinks {
			s(title, message)
		}
	}
}
