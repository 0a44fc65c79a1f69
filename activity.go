package identity

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure ActivityEventType = "auth.login.failure"
	ActivityEventLogout       ActivityEventType = "auth.logout"
)

// ActivityEvent is the fixed payload delivered to the audit/event sink.
// Login success always carries the subject id, username, and timestamp.
type ActivityEvent struct {
	EventType  ActivityEventType
	SubjectID  string
	Username   string
	OccurredAt time.Time
	Metadata   map[string]any
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: failures are logged, never surfaced to callers.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
