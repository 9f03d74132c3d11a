package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, BuildEvent) error {
	f.calls++
	return errors.New("nats down")
}
func (f *failingPublisher) Close() error { return nil }

func TestBuildEvent_Marshal(t *testing.T) {
	data, err := BuildEvent{Type: BuildSucceeded, BuildID: "b1", Mode: "production", Selected: 2}.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "build.succeeded", decoded["type"])
	assert.Equal(t, "b1", decoded["build_id"])
	assert.InDelta(t, 2, decoded["selected"], 0)
	assert.NotEmpty(t, decoded["timestamp"])
	assert.NotContains(t, decoded, "error")
}

func TestBuildEvent_MarshalKeepsTimestamp(t *testing.T) {
	ts := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	data, err := BuildEvent{Type: DeployFailed, Timestamp: ts}.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp":"2026-02-01T00:00:00Z"`)
}

func TestEmit_SwallowsFailures(t *testing.T) {
	p := &failingPublisher{}
	Emit(context.Background(), p, BuildEvent{Type: BuildFailed})
	Emit(context.Background(), nil, BuildEvent{Type: BuildFailed})
	Emit(context.Background(), NoopPublisher{}, BuildEvent{Type: BuildFailed})
	assert.Equal(t, 1, p.calls)
}

func TestSubjectAndStreamName(t *testing.T) {
	p := &NATSPublisher{subject: "blog.ci"}
	assert.Equal(t, "blog.ci.deploy.succeeded", p.Subject(BuildEvent{Type: DeploySucceeded}))
	assert.Equal(t, "BLOG_CI", StreamName("blog.ci"))
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher(context.Background(), "nats://127.0.0.1:1", "blogbuilder")
	require.Error(t, err)
	_, err = NewNATSPublisher(context.Background(), "nats://127.0.0.1:1", "")
	require.Error(t, err)
}
