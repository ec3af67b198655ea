package leaderboard_http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vpinfe/score-tracker/internal/telemetry"
)

const submitPath = "/api/submit-score-with-screenshot"

// Submission is the score + screenshot bundle posted to the leaderboard.
type Submission struct {
	Rom   string
	Score int64
	PNG   []byte // lossless screenshot, already encoded
}

// Result is the leaderboard's JSON response.
type Result struct {
	Success   bool   `json:"success"`
	TableName string `json:"tableName,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Client posts scores to the remote leaderboard API. Uploads are limited to
// one per second so hotkey spam cannot hammer the remote service.
type Client struct {
	baseURL    string
	apiKey     string
	machineID  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL, apiKey, machineID string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		machineID: machineID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 2),
	}
}

// SubmitScore performs the multipart upload. A transport failure, non-2xx
// status, or unparseable response returns an error; a well-formed response
// is returned as-is, including success=false rejections.
func (c *Client) SubmitScore(ctx context.Context, sub Submission) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, contentType, err := c.encodeForm(sub)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + submitPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	telemetry.Infof("leaderboard: POST %s -> %d (%s)", submitPath, resp.StatusCode, time.Since(start))
	telemetry.Metrics.SubmitLatency.Record(time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("submit: status=%d", resp.StatusCode)
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func (c *Client) encodeForm(sub Submission) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"apiKey":    c.apiKey,
		"machineID": c.machineID,
		"romName":   sub.Rom,
		"score":     strconv.FormatInt(sub.Score, 10),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="screenshot"; filename="screenshot.png"`)
	header.Set("Content-Type", "image/png")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create screenshot part: %w", err)
	}
	if _, err := part.Write(sub.PNG); err != nil {
		return nil, "", fmt.Errorf("write screenshot: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
