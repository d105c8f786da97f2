package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"metascraper/internal/config"
)

const userAgent = "metascraper/0.1"

// Event names a notification kind.
type Event string

const (
	EventRunCompleted   Event = "run_completed"
	EventRunFailed      Event = "run_failed"
	EventBatchCompleted Event = "batch_completed"
	EventTest           Event = "test"
)

// Payload holds event fields by name.
type Payload map[string]string

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op one when
// notifications.ntfy_topic is empty. Successful single runs are published
// only with notifications.notify_on_success.
func NewService(cfg *config.Config) Service {
	if cfg == nil || !cfg.NotificationsEnabled() {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  cfg.Notifications.NtfyTopic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.NotifyOnSuccess,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, p Payload) (message, bool) {
	get := func(key string) string { return strings.TrimSpace(p[key]) }
	switch event {
	case EventRunCompleted:
		if !n.onSuccess {
			return message{}, false
		}
		body := fmt.Sprintf("🎬 Scraped: %s", get("title"))
		if root := get("root"); root != "" {
			body += "\nFolder: " + root
		}
		if w := get("warnings"); w != "" && w != "0" {
			body += fmt.Sprintf("\nWarnings: %s", w)
		}
		return message{
			title: "metascraper - Complete",
			body:  body,
			tags:  []string{"metascraper", "run", "completed"},
		}, true
	case EventRunFailed:
		var b strings.Builder
		b.WriteString("❌ Failed")
		if q := get("query"); q != "" {
			b.WriteString(": ")
			b.WriteString(q)
		}
		if kind := get("kind"); kind != "" {
			b.WriteString(" (")
			b.WriteString(kind)
			if stage := get("stage"); stage != "" {
				b.WriteString(" at ")
				b.WriteString(stage)
			}
			b.WriteString(")")
		}
		if errText := get("error"); errText != "" {
			b.WriteString("\n")
			b.WriteString(errText)
		}
		return message{
			title:    "metascraper - Error",
			body:     b.String(),
			tags:     []string{"metascraper", "error", "alert"},
			priority: "high",
		}, true
	case EventBatchCompleted:
		failed := get("failed")
		title := "metascraper - Batch Complete"
		body := fmt.Sprintf("Batch complete: %s titles in %s", get("succeeded"), get("duration"))
		if failed != "" && failed != "0" {
			title = "metascraper - Batch Complete (with errors)"
			body = fmt.Sprintf("Batch complete: %s succeeded, %s failed in %s", get("succeeded"), failed, get("duration"))
		}
		return message{
			title: title,
			body:  body,
			tags:  []string{"metascraper", "batch", "completed"},
		}, true
	case EventTest:
		return message{
			title:    "metascraper - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"metascraper", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
