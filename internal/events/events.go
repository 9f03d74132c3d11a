// Package events announces build and deploy lifecycle events to NATS.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Type names an event; it is also the subject suffix.
type Type string

const (
	BuildStarted    Type = "build.started"
	BuildSucceeded  Type = "build.succeeded"
	BuildFailed     Type = "build.failed"
	DeploySucceeded Type = "deploy.succeeded"
	DeployFailed    Type = "deploy.failed"
)

// BuildEvent is the JSON payload of every event.
type BuildEvent struct {
	Type      Type      `json:"type"`
	BuildID   string    `json:"build_id"`
	Site      string    `json:"site,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Selected  int       `json:"selected,omitempty"`
	Target    string    `json:"target,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Marshal encodes the event, stamping the time when unset.
func (e BuildEvent) Marshal() ([]byte, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return json.Marshal(e)
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev BuildEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BuildEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }

// Emit publishes ev and logs a failure instead of returning it. Event
// delivery never decides the outcome of a build.
func Emit(ctx context.Context, p Publisher, ev BuildEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.Warn("Failed to publish event",
			slog.String("type", string(ev.Type)),
			logfields.BuildID(ev.BuildID),
			logfields.Error(err))
	}
}
