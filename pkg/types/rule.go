package types

// Rule is a pattern-based policy deciding whether an action is
// auto-approved. Rules are ordered; the first enabled, auto-approving rule
// whose pattern matches wins.
type Rule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Pattern is a Go regular expression matched against the action's
	// rendered text. A "glob:" prefix switches to doublestar path-glob
	// matching instead.
	Pattern     string     `json:"pattern"`
	AppliesTo   ActionKind `json:"applies_to"`
	Enabled     bool       `json:"enabled"`
	AutoApprove bool       `json:"auto_approve"`
}
