package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSlackSink_PayloadShape(t *testing.T) {
	var got slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer server.Close()

	sink := NewSlackSink(DefaultSlackConfig(server.URL))
	now := time.Now()
	err := sink.Send(context.Background(), Alert{
		Type:    "Failover Detected",
		Message: "Traffic has switched from blue to green",
		Details: []Detail{
			{Label: "Previous Pool", Value: "blue"},
			{Label: "Current Pool", Value: "green"},
		},
		Timestamp: now,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(got.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(got.Attachments))
	}
	att := got.Attachments[0]
	if att.Color != "#ffa500" {
		t.Errorf("color = %q, want amber for non-error alert", att.Color)
	}
	if att.Title != "Failover Detected" {
		t.Errorf("title = %q", att.Title)
	}
	if att.Footer != slackFooter {
		t.Errorf("footer = %q", att.Footer)
	}
	if att.Ts != now.Unix() {
		t.Errorf("ts = %d, want %d", att.Ts, now.Unix())
	}
	if len(att.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(att.Fields))
	}
	if att.Fields[0].Title != "Previous Pool" || att.Fields[0].Value != "blue" || !att.Fields[0].Short {
		t.Errorf("field[0] = %+v", att.Fields[0])
	}
	if att.Fields[1].Title != "Current Pool" {
		t.Errorf("field order not preserved: %+v", att.Fields)
	}
}

func TestSlackSink_ErrorAlertsAreRed(t *testing.T) {
	var got slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	sink := NewSlackSink(DefaultSlackConfig(server.URL))
	if err := sink.Send(context.Background(), Alert{Type: "High Error Rate", Timestamp: time.Now()}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Attachments[0].Color != "#ff0000" {
		t.Errorf("color = %q, want red", got.Attachments[0].Color)
	}
}

func TestSlackSink_NonSuccessResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer server.Close()

	sink := NewSlackSink(DefaultSlackConfig(server.URL))
	if err := sink.Send(context.Background(), Alert{Type: "Failover Detected", Timestamp: time.Now()}); err == nil {
		t.Fatal("expected an error for a 400 response")
	}
}

func TestSlackSink_TimeoutIsDeliveryFailure(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	cfg := SlackConfig{WebhookURL: server.URL, Timeout: 50 * time.Millisecond}
	sink := NewSlackSink(cfg)

	start := time.Now()
	err := sink.Send(context.Background(), Alert{Type: "Failover Detected", Timestamp: time.Now()})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("send blocked for %v, timeout not enforced", elapsed)
	}
}
