package types

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// EventKind tags a translated protocol event.
type EventKind string

const (
	EventSystem            EventKind = "system"
	EventAssistant         EventKind = "assistant"
	EventToolRequest       EventKind = "tool_request"
	EventToolResult        EventKind = "tool_result"
	EventPermissionRequest EventKind = "permission_request"
	EventCompletion        EventKind = "completion"
	EventError             EventKind = "error"
	// EventRawOutput wraps a primary-output line that failed structured
	// decoding. Nothing is silently dropped.
	EventRawOutput EventKind = "raw_output"
	// EventStderr wraps a diagnostic-stream line, tagged distinctly from
	// primary-stream errors.
	EventStderr EventKind = "stderr"
)

// Event is one translated record from the supervised process. Action is set
// iff RequiresApproval is true.
type Event struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Kind             EventKind `json:"kind"`
	Payload          Value     `json:"payload"`
	RequiresApproval bool      `json:"requires_approval"`
	Action           *Action   `json:"action,omitempty"`
}

// NewEvent constructs an event with a fresh ID and timestamp.
func NewEvent(kind EventKind, payload Value) Event {
	return Event{
		ID:        ulid.Make().String(),
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Payload:   payload,
	}
}

// WithApproval marks the event as requiring approval for the given action.
func (e Event) WithApproval(action Action) Event {
	e.RequiresApproval = true
	e.Action = &action
	return e
}
