// Package notifications publishes run and batch outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Events carry a small string payload and
// the service owns the title, tags, and priority of each message.
package notifications
