package main

import (
	"context"
	"strconv"
	"time"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/notifications"
)

// notifyReport publishes the outcome of a single run. Delivery failures are
// logged and never change the command result.
func (s *session) notifyReport(ctx context.Context, r *media.Report) {
	if r == nil {
		return
	}
	event := notifications.EventRunCompleted
	payload := notifications.Payload{
		"query":    r.Query,
		"root":     r.Root,
		"warnings": strconv.Itoa(len(r.Warnings)),
	}
	if r.Title != "" {
		payload["title"] = r.Title
		if r.Year > 0 {
			payload["title"] += " (" + strconv.Itoa(r.Year) + ")"
		}
	}
	if r.Failure != nil {
		event = notifications.EventRunFailed
		payload["kind"] = r.Failure.Kind
		payload["stage"] = r.Failure.Stage
		payload["error"] = r.Failure.Message
	}
	s.publish(ctx, event, payload)
}

func (s *session) notifyBatch(ctx context.Context, reports []*media.Report, elapsed time.Duration) {
	failed := 0
	for _, r := range reports {
		if !r.Succeeded() {
			failed++
		}
	}
	s.publish(ctx, notifications.EventBatchCompleted, notifications.Payload{
		"succeeded": strconv.Itoa(len(reports) - failed),
		"failed":    strconv.Itoa(failed),
		"duration":  elapsed.Round(time.Second).String(),
	})
}

func (s *session) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if s.notifier == nil {
		return
	}
	// The run context may already be canceled; the notice should still go out.
	if err := s.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(s.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "outcome was not delivered to ntfy"))
	}
}
