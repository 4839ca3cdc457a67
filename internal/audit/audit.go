// Package audit publishes a Kafka event for every change an operator makes
// through the console.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/kafka"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/logger"
)

// TopicAdminActions carries every audit event.
const TopicAdminActions = "bindu.admin.actions"

// SourceConsole identifies events published by the console.
const SourceConsole = "admin-console"

// Action names.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionStatusChanged = "status_changed"
	ActionDeleted       = "deleted"
	ActionUploaded      = "uploaded"
	ActionLoggedIn      = "logged_in"
	ActionLoggedOut     = "logged_out"
)

// Publisher is the part of *pkgkafka.Producer the recorder needs.
type Publisher interface {
	Publish(ctx context.Context, event *pkgkafka.Event) error
}

// Entry describes one operator action.
type Entry struct {
	Resource  string
	SubjectID string
	Action    string
	Data      any
}

// EventType is "admin.<resource>.<action>".
func (e Entry) EventType() string {
	return fmt.Sprintf("admin.%s.%s", e.Resource, e.Action)
}

// Recorder turns entries into events. A Recorder without a publisher only
// logs.
type Recorder struct {
	pub    Publisher
	logger *slog.Logger
}

// NewRecorder creates a Recorder. pub may be nil.
func NewRecorder(pub Publisher, logger *slog.Logger) *Recorder {
	return &Recorder{pub: pub, logger: logger}
}

// Enabled reports whether events leave the process.
func (r *Recorder) Enabled() bool { return r.pub != nil }

// Record publishes e. Failures are logged and never fail the action that
// was already applied at the backend.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	l := logger.FromContext(ctx)
	if l == slog.Default() {
		l = r.logger
	}
	l.InfoContext(ctx, "admin action",
		slog.String("event_type", e.EventType()),
		slog.String("subject_id", e.SubjectID),
	)
	if r.pub == nil {
		return
	}

	event, err := pkgkafka.NewEvent(e.EventType(), e.SubjectID, e.Resource, SourceConsole, e.Data)
	if err != nil {
		l.ErrorContext(ctx, "failed to build audit event", slog.String("error", err.Error()))
		return
	}
	event.WithActor(logger.AdminIDFromContext(ctx)).
		WithCorrelationID(logger.CorrelationIDFromContext(ctx))
	if sid := logger.SessionFromContext(ctx); sid != "" {
		event.WithMetadata("session", shortID(sid))
	}

	if err := r.pub.Publish(ctx, event); err != nil {
		l.WarnContext(ctx, "failed to publish audit event",
			slog.String("event_type", e.EventType()),
			slog.String("error", err.Error()),
		)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
