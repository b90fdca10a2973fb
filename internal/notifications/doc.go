// Package notifications publishes pipeline events to ntfy.
//
// Stages and the workflow runner call Publish with an Event and a loosely
// typed Payload; the ntfy implementation renders a title, message body, tags
// and priority for each event. When no topic is configured, or when the event
// class is disabled in config, Publish is a no-op so callers never need to
// check.
package notifications
