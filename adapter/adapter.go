// Package adapter defines the downstream notification boundary.
//
// Adapters publish follow-finished events to external systems once a
// follow session ends. The CLI owns adapter lifecycle; users provide
// configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/justapithecus/adit/types"
)

// EventTypeFollowFinished is the event_type of every published event.
const EventTypeFollowFinished = "follow_finished"

// FollowFinishedEvent is the payload published when a follow session
// ends.
type FollowFinishedEvent struct {
	EventType string `json:"event_type"` // always "follow_finished"
	Log       string `json:"log"`
	Source    string `json:"source,omitempty"`
	JobID     string `json:"job_id,omitempty"`

	Outcome string `json:"outcome"` // success, test_failure, incomplete
	Message string `json:"message,omitempty"`

	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Retries int `json:"retries"`

	BytesRead  int64  `json:"bytes_read"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"` // ISO 8601
}

// NewFollowFinishedEvent builds the published payload from session
// results. run may be nil when the session failed before any parse.
func NewFollowFinishedEvent(meta *types.FollowMeta, outcome *types.FollowOutcome,
	run *types.TestRun, bytesRead int64, duration time.Duration) *FollowFinishedEvent {

	event := &FollowFinishedEvent{
		EventType:  EventTypeFollowFinished,
		Log:        meta.Log,
		Source:     meta.Source,
		JobID:      meta.JobID,
		Outcome:    string(outcome.Status),
		Message:    outcome.Message,
		BytesRead:  bytesRead,
		DurationMs: duration.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if run != nil {
		event.Total = run.Total
		event.Passed = run.Passed
		event.Failed = run.Failed
		event.Skipped = run.Skipped
		event.Retries = run.Retries
	}
	return event
}

// Adapter publishes follow-finished events to a downstream system.
// Implementations must be safe for single-use per session.
type Adapter interface {
	// Publish sends a follow-finished event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *FollowFinishedEvent) error

	// Close releases adapter resources.
	Close() error
}
