// Package session implements the coordinator: the single owner of session
// lifecycle, approval dispatch, the pending-approval slot, and the decision
// history.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/agentgate-ai/agentgate/internal/bridge"
	"github.com/agentgate-ai/agentgate/internal/event"
	"github.com/agentgate-ai/agentgate/internal/logging"
	"github.com/agentgate-ai/agentgate/internal/rules"
	"github.com/agentgate-ai/agentgate/pkg/types"
)

// Sentinel errors mirroring the session state contract.
var (
	ErrSessionActive     = bridge.ErrSessionActive
	ErrNoSession         = bridge.ErrNoSession
	ErrNoPendingApproval = errors.New("no pending approval")
)

// historyLimit bounds the decision history; the oldest entry is evicted
// first.
const historyLimit = 100

// processBridge is the slice of the bridge the coordinator drives. Tests
// substitute a fake to exercise dispatch without a real child process.
type processBridge interface {
	Spawn(opts bridge.SpawnOptions) error
	Events() <-chan types.Event
	Write(input string) error
	Approve() error
	Deny() error
	Stop() error
	Active() bool
	RemoteSessionID() string
	WorkingDir() string
}

// Options configure the external process the coordinator supervises.
type Options struct {
	// Command is the assistant executable; Args are passed before the
	// protocol flags the coordinator appends.
	Command string
	Args    []string
}

// StartOptions parameterize one session.
type StartOptions struct {
	WorkingDir string
	// Prompt, when set, is passed as the initial non-interactive prompt.
	Prompt string
}

// Coordinator supervises at most one session at a time. Every privileged
// action surfaced by the process flows through the rule engine; unmatched
// actions park in the single pending-approval slot until a caller resolves
// them or a newer request overwrites them.
type Coordinator struct {
	opts   Options
	bridge processBridge
	engine *rules.Engine
	bus    *event.Bus
	log    zerolog.Logger

	mu        sync.Mutex
	sessionID string
	startedAt *time.Time
	pending   *types.Event
	history   []types.HistoryEntry

	approved     int
	denied       int
	autoApproved int
}

// NewCoordinator creates a coordinator over a real process bridge.
func NewCoordinator(opts Options, engine *rules.Engine, bus *event.Bus) *Coordinator {
	return newCoordinator(opts, bridge.New(), engine, bus)
}

func newCoordinator(opts Options, b processBridge, engine *rules.Engine, bus *event.Bus) *Coordinator {
	return &Coordinator{
		opts:   opts,
		bridge: b,
		engine: engine,
		bus:    bus,
		log:    logging.For("session"),
	}
}

// Start spawns the supervised process and begins dispatching its events.
// It fails if a session is already active.
func (c *Coordinator) Start(opts StartOptions) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != "" {
		return "", ErrSessionActive
	}

	args := make([]string, 0, len(c.opts.Args)+4)
	args = append(args, c.opts.Args...)
	args = append(args, "--output-format", "stream-json")
	if opts.Prompt != "" {
		args = append(args, "-p", opts.Prompt)
	}

	if err := c.bridge.Spawn(bridge.SpawnOptions{
		WorkingDir: opts.WorkingDir,
		Command:    c.opts.Command,
		Args:       args,
	}); err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}

	id := ulid.Make().String()
	now := time.Now()
	c.sessionID = id
	c.startedAt = &now
	c.pending = nil

	go c.dispatch(id, c.bridge.Events())

	c.log.Info().Str("session", id).Str("dir", opts.WorkingDir).Msg("session started")
	c.bus.Publish(event.Event{Type: event.SessionStarted, Data: event.SessionStartedData{
		SessionID:  id,
		WorkingDir: opts.WorkingDir,
	}})
	return id, nil
}

// dispatch consumes the process event stream until it closes, routing each
// approval-bearing event through the rule engine.
func (c *Coordinator) dispatch(sessionID string, events <-chan types.Event) {
	for ev := range events {
		c.bus.Publish(event.Event{Type: event.EventReceived, Data: event.EventReceivedData{Event: ev}})

		if !ev.RequiresApproval || ev.Action == nil {
			continue
		}

		ruleID, approved := c.engine.Decide(*ev.Action)
		if approved {
			c.autoApprove(ev, ruleID)
			continue
		}

		c.parkPending(ev)
	}

	c.mu.Lock()
	if c.sessionID == sessionID {
		c.sessionID = ""
		c.startedAt = nil
		c.pending = nil
	}
	c.mu.Unlock()

	c.log.Info().Str("session", sessionID).Msg("session ended")
	c.bus.Publish(event.Event{Type: event.SessionEnded, Data: event.SessionEndedData{SessionID: sessionID}})
}

// autoApprove answers an action matched by a rule and records the decision.
func (c *Coordinator) autoApprove(ev types.Event, ruleID string) {
	if err := c.bridge.Approve(); err != nil {
		c.log.Error().Err(err).Str("rule", ruleID).Msg("failed to send auto-approval")
		return
	}

	c.mu.Lock()
	c.autoApproved++
	c.appendHistoryLocked(types.HistoryEntry{
		ID:            ulid.Make().String(),
		Timestamp:     time.Now(),
		Action:        *ev.Action,
		Decision:      types.DecisionApproved,
		Auto:          true,
		MatchedRuleID: ruleID,
	})
	c.mu.Unlock()

	c.log.Debug().Str("rule", ruleID).Str("action", ev.Action.Title()).Msg("auto-approved")
	c.bus.Publish(event.Event{Type: event.ApprovalAuto, Data: event.ApprovalAutoData{
		Event:         ev,
		MatchedRuleID: ruleID,
	}})
}

// parkPending installs the event in the pending-approval slot. A newer
// request overwrites an unresolved older one: the process only ever answers
// its most recent prompt, so the stale slot is unanswerable anyway.
func (c *Coordinator) parkPending(ev types.Event) {
	c.mu.Lock()
	overwrote := c.pending != nil
	c.pending = &ev
	c.mu.Unlock()

	if overwrote {
		c.log.Warn().Str("action", ev.Action.Title()).Msg("pending approval superseded by newer request")
	}

	c.bus.Publish(event.Event{Type: event.ApprovalRequired, Data: event.ApprovalRequiredData{
		Event:             ev,
		SuggestedPatterns: suggestedPatterns(ev.Action),
	}})
}

// suggestedPatterns proposes rule patterns a caller can install to cover
// future occurrences of this action.
func suggestedPatterns(action *types.Action) []string {
	if action == nil || action.Kind != types.ActionShellCommand {
		return nil
	}
	return rules.SuggestPatterns(action.Command)
}

// Send forwards a user message to the process's input stream.
func (c *Coordinator) Send(text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return c.bridge.Write(text)
}

// Approve resolves the pending approval affirmatively and returns the
// action that was approved. The slot is taken before the answer is
// written, so concurrent resolvers cannot double-answer.
func (c *Coordinator) Approve() (types.Action, error) {
	return c.resolvePending(types.DecisionApproved, c.bridge.Approve)
}

// Deny resolves the pending approval negatively and returns the action
// that was denied.
func (c *Coordinator) Deny() (types.Action, error) {
	return c.resolvePending(types.DecisionDenied, c.bridge.Deny)
}

func (c *Coordinator) resolvePending(decision types.Decision, answer func() error) (types.Action, error) {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return types.Action{}, ErrNoPendingApproval
	}
	ev := *c.pending
	c.pending = nil
	c.mu.Unlock()

	if err := answer(); err != nil {
		return types.Action{}, fmt.Errorf("failed to answer approval prompt: %w", err)
	}

	c.mu.Lock()
	if decision == types.DecisionApproved {
		c.approved++
	} else {
		c.denied++
	}
	c.appendHistoryLocked(types.HistoryEntry{
		ID:        ulid.Make().String(),
		Timestamp: time.Now(),
		Action:    *ev.Action,
		Decision:  decision,
	})
	c.mu.Unlock()

	c.log.Info().Str("decision", string(decision)).Str("action", ev.Action.Title()).Msg("approval resolved")
	c.bus.Publish(event.Event{Type: event.ApprovalResolved, Data: event.ApprovalResolvedData{
		EventID:  ev.ID,
		Decision: decision,
	}})
	return *ev.Action, nil
}

// Stop forcibly terminates the active session. Teardown notifications are
// published by the dispatcher once the event stream drains.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	active := c.sessionID != ""
	c.mu.Unlock()

	if !active {
		return ErrNoSession
	}
	return c.bridge.Stop()
}

// PendingApproval returns a copy of the event awaiting a decision, if any.
func (c *Coordinator) PendingApproval() *types.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return nil
	}
	ev := *c.pending
	return &ev
}

// Status reports a snapshot of the session and decision counters.
func (c *Coordinator) Status() types.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := types.SessionStatus{
		Active:             c.sessionID != "",
		SessionID:          c.sessionID,
		StartedAt:          c.startedAt,
		HasPendingApproval: c.pending != nil,
		AutoApproveAll:     c.engine.AutoApproveAll(),
		ApprovedCount:      c.approved,
		DeniedCount:        c.denied,
		AutoApprovedCount:  c.autoApproved,
	}
	if status.Active {
		status.WorkingDir = c.bridge.WorkingDir()
	}
	return status
}

// Rules returns the installed rule set.
func (c *Coordinator) Rules() []types.Rule {
	return c.engine.Rules()
}

// ReplaceRules installs a new rule set and notifies subscribers.
func (c *Coordinator) ReplaceRules(ruleSet []types.Rule) {
	c.engine.Replace(ruleSet)
	installed := c.engine.Rules()
	c.log.Info().Int("count", len(installed)).Msg("rules replaced")
	c.bus.Publish(event.Event{Type: event.RulesReplaced, Data: event.RulesReplacedData{Count: len(installed)}})
}

// SetAutoApproveAll toggles the global approve-everything switch.
func (c *Coordinator) SetAutoApproveAll(enabled bool) {
	c.engine.SetAutoApproveAll(enabled)
	c.log.Info().Bool("enabled", enabled).Msg("auto-approve-all toggled")
}

// History returns the decision history, oldest first.
func (c *Coordinator) History() []types.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]types.HistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

// ClearHistory discards the decision history and resets the counters.
func (c *Coordinator) ClearHistory() {
	c.mu.Lock()
	c.history = nil
	c.approved = 0
	c.denied = 0
	c.autoApproved = 0
	c.mu.Unlock()
}

func (c *Coordinator) appendHistoryLocked(entry types.HistoryEntry) {
	if len(c.history) >= historyLimit {
		c.history = c.history[1:]
	}
	c.history = append(c.history, entry)
}
