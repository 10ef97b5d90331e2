package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hindsight/internal/config"
)

const userAgent = "Hindsight/0.1.0"

// Service is the outbound event channel for finished clips. The daemon hands
// every completed or failed extraction to it; shipping the artifact anywhere
// beyond the push notification is out of scope.
type Service interface {
	NotifyClipReady(ctx context.Context, title, artifactPath string, sizeBytes int64) error
	NotifyClipFailed(ctx context.Context, title string, cause error) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		clipReady: cfg.Notifications.ClipReady,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	clipReady bool
	errors    bool
}

func (n *ntfyService) NotifyClipReady(ctx context.Context, title, artifactPath string, sizeBytes int64) error {
	if !n.clipReady {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Clip ready: %s", title)
	if artifactPath != "" {
		message = fmt.Sprintf("%s\nFile: %s (%d bytes)", message, artifactPath, sizeBytes)
	}
	data := payload{
		title:   "Hindsight - Clip Ready",
		message: message,
		tags:    []string{"hindsight", "clip", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyClipFailed(ctx context.Context, title string, cause error) error {
	if !n.errors {
		return nil
	}
	title = strings.TrimSpace(title)
	detail := "unknown"
	if cause != nil {
		detail = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "Hindsight - Clip Failed",
		message:  fmt.Sprintf("Clip failed: %s\n%s", title, detail),
		tags:     []string{"hindsight", "clip", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Hindsight - Error",
		message:  builder.String(),
		tags:     []string{"hindsight", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Hindsight - Test",
		message:  "Notification system test",
		tags:     []string{"hindsight", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyClipReady(context.Context, string, string, int64) error { return nil }
func (noopService) NotifyClipFailed(context.Context, string, error) error       { return nil }
func (noopService) NotifyError(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
