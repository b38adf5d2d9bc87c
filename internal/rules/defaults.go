package rules

import "github.com/agentgate-ai/agentgate/pkg/types"

// DefaultRules returns the shipped rule set: read-only and inspection
// operations are pre-approved, mutating operations are present but disabled
// for auto-approval so the user opts in explicitly.
func DefaultRules() []types.Rule {
	return []types.Rule{
		{
			ID:          "git-read",
			Name:        "Git Read Commands",
			Description: "Safe read-only git commands",
			Pattern:     `^git\s+(status|log|diff|branch|show|remote|tag|stash\s+list)`,
			AppliesTo:   types.ActionShellCommand,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "npm-read",
			Name:        "NPM Read Commands",
			Description: "Safe npm/yarn info commands",
			Pattern:     `^(npm|yarn|pnpm)\s+(list|ls|info|view|outdated|audit)`,
			AppliesTo:   types.ActionShellCommand,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "npm-scripts",
			Name:        "NPM Run Scripts",
			Description: "Run npm scripts defined in package.json",
			Pattern:     `^(npm|yarn|pnpm)\s+run\s+\w+`,
			AppliesTo:   types.ActionShellCommand,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "npm-install",
			Name:        "NPM Install",
			Description: "Install dependencies",
			Pattern:     `^(npm|yarn|pnpm)\s+(install|add|i)\b`,
			AppliesTo:   types.ActionShellCommand,
			Enabled:     true,
			AutoApprove: false, // manual by default
		},
		{
			ID:          "dir-list",
			Name:        "Directory Listing",
			Description: "Safe directory listing commands",
			Pattern:     `^(ls|dir|tree|pwd|cd)\b`,
			AppliesTo:   types.ActionShellCommand,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "file-read-cmd",
			Name:        "File Read Commands",
			Description: "Read file content commands",
			Pattern:     `^(cat|type|head|tail|less|more)\s+`,
			AppliesTo:   types.ActionShellCommand,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "cargo-safe",
			Name:        "Cargo Safe Commands",
			Description: "Safe Rust/Cargo commands",
			Pattern:     `^cargo\s+(check|build|test|clippy|fmt|doc)`,
			AppliesTo:   types.ActionShellCommand,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "python-safe",
			Name:        "Python Safe Commands",
			Description: "Safe Python introspection commands",
			Pattern:     `^(python|python3|pip)\s+(--version|-V|list|show|freeze)`,
			AppliesTo:   types.ActionShellCommand,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "tool-read",
			Name:        "File Read Tool",
			Description: "Allow reading files",
			Pattern:     `.*`,
			AppliesTo:   types.ActionFileRead,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "web-docs",
			Name:        "Documentation URLs",
			Description: "Fetch from documentation sites",
			Pattern:     `^https?://(docs\.|developer\.|api\.|stackoverflow\.com|github\.com)`,
			AppliesTo:   types.ActionURLFetch,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "docs-write",
			Name:        "Documentation Writes",
			Description: "Write markdown documentation files",
			Pattern:     GlobPrefix + "**/*.md",
			AppliesTo:   types.ActionFileWrite,
			Enabled:     true,
			AutoApprove: false, // mutating, opt in
		},
	}
}
