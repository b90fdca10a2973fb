package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"realitease/internal/config"
)

const userAgent = "realitease/0.1.0"

// Event names a notification class.
type Event string

const (
	EventStageStarted   Event = "stage_started"
	EventStageCompleted Event = "stage_completed"
	EventRunCompleted   Event = "run_completed"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event fields. Values are rendered with fmt.Sprint.
type Payload map[string]any

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if d, ok := v.(time.Duration); ok {
		return d.Round(time.Second).String()
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (p Payload) count(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Service is the notification surface used by stages and the runner.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService returns an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		runSummary: cfg.Notifications.RunSummary,
		errors:     cfg.Notifications.Errors,
	}
}

// NewNoop returns a service that drops every event.
func NewNoop() Service { return noopService{} }

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	runSummary bool
	errors     bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) render(event Event, p Payload) (message, bool) {
	switch event {
	case EventStageCompleted:
		if !n.runSummary {
			return message{}, false
		}
		stage := p.text("stage")
		body := fmt.Sprintf("%s finished: %d processed, %d appended, %d updated",
			stage, p.count("processed"), p.count("appended"), p.count("updated"))
		if failed := p.count("failed"); failed > 0 {
			body += fmt.Sprintf(", %d failed", failed)
		}
		if d := p.text("duration"); d != "" {
			body += " in " + d
		}
		return message{
			title: "Realitease - Stage Complete",
			body:  body,
			tags:  []string{"realitease", stage, "completed"},
		}, true
	case EventRunCompleted:
		if !n.runSummary {
			return message{}, false
		}
		title := "Realitease - Run Complete"
		body := fmt.Sprintf("Pipeline complete: %d stages in %s", p.count("stages"), p.text("duration"))
		if failed := p.text("failed_stage"); failed != "" {
			title = "Realitease - Run Failed"
			body = fmt.Sprintf("Pipeline stopped at %s after %d stages", failed, p.count("stages"))
		}
		return message{title: title, body: body, tags: []string{"realitease", "run", "completed"}}, true
	case EventError:
		if !n.errors {
			return message{}, false
		}
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := p.text("context"); label != "" {
			b.WriteString(" in ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		if e := p.text("error"); e != "" {
			b.WriteString(e)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "Realitease - Error",
			body:     b.String(),
			tags:     []string{"realitease", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Realitease - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"realitease", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}
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
