// Package rules implements the approval engine: an ordered list of
// pattern-based rules deciding whether a privileged action is auto-approved.
package rules

import (
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/agentgate-ai/agentgate/internal/logging"
	"github.com/agentgate-ai/agentgate/pkg/types"
)

// RuleAutoApproveAll is the sentinel rule id reported when the global
// approve-everything switch short-circuits rule evaluation.
const RuleAutoApproveAll = "auto_approve_all"

// GlobPrefix marks a rule pattern as a doublestar path glob instead of a
// regular expression.
const GlobPrefix = "glob:"

// matcher is one compiled rule pattern.
type matcher func(input string) bool

// Engine owns the installed rule set and the global auto-approve-all switch.
// Decisions are purely functional over the currently installed rules.
type Engine struct {
	mu         sync.RWMutex
	rules      []types.Rule
	matchers   map[string]matcher // rule id -> compiled pattern
	approveAll bool

	log zerolog.Logger
}

// NewEngine creates an engine loaded with the default rule set.
func NewEngine() *Engine {
	e := &Engine{log: logging.For("rules")}
	e.Replace(DefaultRules())
	return e
}

// Replace installs a new rule set, recompiling every matcher. A rule whose
// pattern fails to compile is dropped with a warning; the rest of the set
// still loads. Order is preserved: the first match wins.
func (e *Engine) Replace(rules []types.Rule) {
	matchers := make(map[string]matcher, len(rules))
	kept := make([]types.Rule, 0, len(rules))

	for _, rule := range rules {
		m, err := compile(rule.Pattern)
		if err != nil {
			e.log.Warn().
				Str("rule", rule.ID).
				Str("pattern", rule.Pattern).
				Err(err).
				Msg("dropping rule with invalid pattern")
			continue
		}
		matchers[rule.ID] = m
		kept = append(kept, rule)
	}

	e.mu.Lock()
	e.rules = kept
	e.matchers = matchers
	e.mu.Unlock()
}

// compile builds a matcher for a rule pattern.
func compile(pattern string) (matcher, error) {
	if glob, ok := strings.CutPrefix(pattern, GlobPrefix); ok {
		if !doublestar.ValidatePattern(glob) {
			return nil, doublestar.ErrBadPattern
		}
		return func(input string) bool {
			ok, err := doublestar.Match(glob, input)
			return err == nil && ok
		}, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re.MatchString, nil
}

// Rules returns a copy of the installed rule set in order.
func (e *Engine) Rules() []types.Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]types.Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// SetAutoApproveAll toggles the global approve-everything switch.
func (e *Engine) SetAutoApproveAll(enabled bool) {
	e.mu.Lock()
	e.approveAll = enabled
	e.mu.Unlock()
}

// AutoApproveAll reports whether the global switch is set.
func (e *Engine) AutoApproveAll() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.approveAll
}

// Decide reports whether the action is auto-approved and by which rule.
// The global switch returns the RuleAutoApproveAll sentinel without
// evaluating rules. Otherwise enabled, auto-approving rules are scanned in
// list order against the action's rendered match text; the first matching
// rule's id is returned.
func (e *Engine) Decide(action types.Action) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.approveAll {
		return RuleAutoApproveAll, true
	}

	input := action.MatchText()
	for _, rule := range e.rules {
		if !rule.Enabled || !rule.AutoApprove {
			continue
		}
		if rule.AppliesTo != action.Kind && rule.AppliesTo != types.ActionAny {
			continue
		}
		if m, ok := e.matchers[rule.ID]; ok && m(input) {
			return rule.ID, true
		}
	}

	return "", false
}
