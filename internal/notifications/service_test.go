package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hindsight/internal/config"
	"hindsight/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyClipReady(context.Background(), "Example", "/clips/a.mp4", 42); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func newNtfyService(t *testing.T, endpoint string) notifications.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = endpoint
	return notifications.NewService(&cfg)
}

func TestNotifyClipReadyFormatsPayload(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := newNtfyService(t, server.URL)

	if err := svc.NotifyClipReady(context.Background(), "Goal Replay", "/clips/goal.mp4", 2048); err != nil {
		t.Fatalf("NotifyClipReady failed: %v", err)
	}

	reqs := *requests
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].title != "Hindsight - Clip Ready" {
		t.Fatalf("unexpected title: %q", reqs[0].title)
	}
	if reqs[0].tags != "hindsight,clip,completed" {
		t.Fatalf("unexpected tags: %q", reqs[0].tags)
	}
	if !strings.Contains(reqs[0].body, "Goal Replay") || !strings.Contains(reqs[0].body, "/clips/goal.mp4") {
		t.Fatalf("unexpected body: %q", reqs[0].body)
	}
}

func TestNotifyClipFailedUsesHighPriority(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := newNtfyService(t, server.URL)

	if err := svc.NotifyClipFailed(context.Background(), "Doomed", errors.New("capture timed out")); err != nil {
		t.Fatalf("NotifyClipFailed failed: %v", err)
	}

	reqs := *requests
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].priority != "high" {
		t.Fatalf("expected high priority, got %q", reqs[0].priority)
	}
	if !strings.Contains(reqs[0].body, "capture timed out") {
		t.Fatalf("expected cause in body, got %q", reqs[0].body)
	}
}

func TestGatesSuppressNotifications(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.ClipReady = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	if err := svc.NotifyClipReady(ctx, "Quiet", "", 0); err != nil {
		t.Fatalf("NotifyClipReady failed: %v", err)
	}
	if err := svc.NotifyClipFailed(ctx, "Quiet", errors.New("boom")); err != nil {
		t.Fatalf("NotifyClipFailed failed: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("boom"), "pipeline"); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}

	if len(*requests) != 0 {
		t.Fatalf("expected gated notifications to be suppressed, got %d requests", len(*requests))
	}
}

func TestSendSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	svc := newNtfyService(t, server.URL)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status in error, got %v", err)
	}
}
