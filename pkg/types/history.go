package types

import "time"

// Decision records the outcome of an approval.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionDenied   Decision = "denied"
)

// HistoryEntry is one resolved approval, kept in a bounded ring of the most
// recent entries.
type HistoryEntry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Action        Action    `json:"action"`
	Decision      Decision  `json:"decision"`
	Auto          bool      `json:"auto"`
	MatchedRuleID string    `json:"matched_rule_id,omitempty"`
}

// SessionStatus is a read-only snapshot of the coordinator's state.
type SessionStatus struct {
	Active             bool       `json:"active"`
	SessionID          string     `json:"session_id,omitempty"`
	WorkingDir         string     `json:"working_dir,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	HasPendingApproval bool       `json:"has_pending_approval"`
	AutoApproveAll     bool       `json:"auto_approve_all"`
	ApprovedCount      int        `json:"approved_count"`
	DeniedCount        int        `json:"denied_count"`
	AutoApprovedCount  int        `json:"auto_approved_count"`
}
