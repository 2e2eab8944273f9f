package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipcast/internal/config"
)

const userAgent = "Clipcast-Go/0.1.0"

// Service defines the notification surface exposed to the relay.
type Service interface {
	NotifyRelayCompleted(ctx context.Context, itemName, videoID string) error
	NotifyRelayFailed(ctx context.Context, itemName string, err error) error
	NotifyStateSyncDegraded(ctx context.Context, err error) error
	NotifyNothingToRelay(ctx context.Context) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRelayCompleted(ctx context.Context, itemName, videoID string) error {
	itemName = strings.TrimSpace(itemName)
	message := fmt.Sprintf("Published: %s", itemName)
	if videoID = strings.TrimSpace(videoID); videoID != "" {
		message = fmt.Sprintf("%s\nVideo ID: %s", message, videoID)
	}
	data := payload{
		title:   "Clipcast - Published",
		message: message,
		tags:    []string{"clipcast", "relay", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRelayFailed(ctx context.Context, itemName string, err error) error {
	var builder strings.Builder
	builder.WriteString("Relay failed")
	if itemName = strings.TrimSpace(itemName); itemName != "" {
		builder.WriteString(" for ")
		builder.WriteString(itemName)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Clipcast - Error",
		message:  builder.String(),
		tags:     []string{"clipcast", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStateSyncDegraded(ctx context.Context, err error) error {
	message := "Published, but the state mirror is stale; the next run may repeat this item"
	if err != nil {
		message = fmt.Sprintf("%s\nCause: %s", message, strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    "Clipcast - State Sync Degraded",
		message:  message,
		tags:     []string{"clipcast", "state", "degraded"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyNothingToRelay(ctx context.Context) error {
	data := payload{
		title:    "Clipcast - Idle",
		message:  "No unrelayed items in the catalog",
		tags:     []string{"clipcast", "relay", "idle"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Clipcast - Test",
		message:  "Notification system test",
		tags:     []string{"clipcast", "test"},
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

func (noopService) NotifyRelayCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyRelayFailed(context.Context, string, error) error     { return nil }
func (noopService) NotifyStateSyncDegraded(context.Context, error) error       { return nil }
func (noopService) NotifyNothingToRelay(context.Context) error                 { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
