package rules

import (
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ShellCommand is one parsed call within a shell command line.
type ShellCommand struct {
	Name       string   // command name (e.g. "rm", "git")
	Args       []string // command arguments
	Subcommand string   // first non-flag argument (e.g. "commit" in "git commit")
}

// ParseShellCommand parses a shell command line into its individual calls,
// including calls joined by pipes, && and ;.
func ParseShellCommand(command string) ([]ShellCommand, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	var commands []ShellCommand
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok {
			if cmd := extractCall(call); cmd != nil {
				commands = append(commands, *cmd)
			}
		}
		return true
	})

	return commands, nil
}

func extractCall(call *syntax.CallExpr) *ShellCommand {
	if len(call.Args) == 0 {
		return nil
	}

	cmd := &ShellCommand{}

	cmd.Name = wordToString(call.Args[0])
	if cmd.Name == "" {
		return nil
	}

	for _, arg := range call.Args[1:] {
		argStr := wordToString(arg)
		cmd.Args = append(cmd.Args, argStr)

		if cmd.Subcommand == "" && !strings.HasPrefix(argStr, "-") {
			cmd.Subcommand = argStr
		}
	}

	return cmd
}

func wordToString(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				if lit, ok := qp.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		case *syntax.ParamExp:
			sb.WriteString("$" + p.Param.Value)
		case *syntax.CmdSubst:
			// Command substitution content is dynamic; mark it as such.
			sb.WriteString("$()")
		}
	}
	return sb.String()
}

// SuggestPatterns proposes rule patterns covering every call in a shell
// command line, in "git commit *" form. A caller can offer these as
// one-click auto-approval rules when manual approval is required. Patterns
// are anchored regular expressions when installed as rules; the wildcard
// tail is expressed here in display form.
func SuggestPatterns(command string) []string {
	commands, err := ParseShellCommand(command)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var patterns []string

	for _, cmd := range commands {
		// Skip cd; directory changes are not worth a standing rule.
		if cmd.Name == "cd" {
			continue
		}

		pattern := cmd.Name + " *"
		if cmd.Subcommand != "" {
			pattern = cmd.Name + " " + cmd.Subcommand + " *"
		}

		if !seen[pattern] {
			seen[pattern] = true
			patterns = append(patterns, pattern)
		}
	}

	return patterns
}

// PatternToRegexp converts a "git commit *" display pattern into the
// anchored regular expression form used by Rule.Pattern.
func PatternToRegexp(pattern string) string {
	parts := strings.Fields(pattern)
	var sb strings.Builder
	sb.WriteString("^")
	for i, part := range parts {
		if part == "*" {
			// Trailing wildcard also matches the bare command.
			sb.WriteString(`(\s+.*)?`)
			continue
		}
		if i > 0 {
			sb.WriteString(`\s+`)
		}
		sb.WriteString(regexp.QuoteMeta(part))
	}
	return sb.String()
}
