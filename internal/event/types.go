package event

import "github.com/agentgate-ai/agentgate/pkg/types"

// SessionStartedData is the data for session.started notifications.
type SessionStartedData struct {
	SessionID  string `json:"session_id"`
	WorkingDir string `json:"working_dir"`
}

// SessionEndedData is the data for session.ended notifications.
type SessionEndedData struct {
	SessionID string `json:"session_id"`
}

// EventReceivedData is the data for event.received notifications: one
// translated protocol event, in arrival order.
type EventReceivedData struct {
	Event types.Event `json:"event"`
}

// ApprovalAutoData is the data for approval.auto notifications: the event
// was approved by a rule without human involvement.
type ApprovalAutoData struct {
	Event         types.Event `json:"event"`
	MatchedRuleID string      `json:"matched_rule_id"`
}

// ApprovalRequiredData is the data for approval.required notifications.
// SuggestedPatterns are rule patterns the caller can offer as one-click
// auto-approval rules for similar shell commands.
type ApprovalRequiredData struct {
	Event             types.Event `json:"event"`
	SuggestedPatterns []string    `json:"suggested_patterns,omitempty"`
}

// ApprovalResolvedData is the data for approval.resolved notifications.
type ApprovalResolvedData struct {
	EventID  string         `json:"event_id"`
	Decision types.Decision `json:"decision"`
	Auto     bool           `json:"auto"`
}

// RulesReplacedData is the data for rules.replaced notifications.
type RulesReplacedData struct {
	Count int `json:"count"`
}
