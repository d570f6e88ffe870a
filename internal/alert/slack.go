package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const slackFooter = "Blue/Green Monitoring"

// SlackConfig holds Slack webhook sink configuration.
type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// DefaultSlackConfig returns the reference configuration: a 10 second
// delivery timeout.
func DefaultSlackConfig(webhookURL string) SlackConfig {
	return SlackConfig{
		WebhookURL: webhookURL,
		Timeout:    10 * time.Second,
	}
}

// SlackSink delivers alerts to a Slack incoming webhook.
type SlackSink struct {
	webhookURL string
	client     *http.Client
}

// NewSlackSink creates a SlackSink with the given config.
func NewSlackSink(cfg SlackConfig) *SlackSink {
	return &SlackSink{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

// Send posts the alert as a Slack attachment. Alert types whose name carries
// an error marker render red, everything else amber.
func (s *SlackSink) Send(ctx context.Context, a Alert) error {
	color := "#ffa500"
	if strings.Contains(strings.ToLower(a.Type), "error") {
		color = "#ff0000"
	}

	fields := make([]slackField, 0, len(a.Details))
	for _, d := range a.Details {
		fields = append(fields, slackField{Title: d.Label, Value: d.Value, Short: true})
	}

	payload := slackPayload{
		Attachments: []slackAttachment{{
			Color:  color,
			Title:  a.Type,
			Text:   a.Message,
			Fields: fields,
			Footer: slackFooter,
			Ts:     a.Timestamp.Unix(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}
