// Package types defines the shared data model for agentgate: privileged
// actions, approval rules, events, history entries, and session status.
package types

import "fmt"

// ActionKind identifies the privileged operation an action describes.
type ActionKind string

const (
	ActionShellCommand  ActionKind = "shell_command"
	ActionFileWrite     ActionKind = "file_write"
	ActionFileEdit      ActionKind = "file_edit"
	ActionFileRead      ActionKind = "file_read"
	ActionURLFetch      ActionKind = "url_fetch"
	ActionExtensionTool ActionKind = "extension_tool"

	// ActionAny is the wildcard kind usable in Rule.AppliesTo.
	ActionAny ActionKind = "any"
)

// Action describes a privileged operation the supervised process wants to
// perform. Only the fields relevant to the Kind are set. Actions are
// immutable once constructed.
type Action struct {
	Kind        ActionKind `json:"type"`
	Command     string     `json:"command,omitempty"`
	Description string     `json:"description,omitempty"`
	Path        string     `json:"path,omitempty"`
	Changes     string     `json:"changes,omitempty"`
	URL         string     `json:"url,omitempty"`
	Server      string     `json:"server,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	Input       *Value     `json:"input,omitempty"`
}

// ShellCommandAction builds a shell command action.
func ShellCommandAction(command, description string) Action {
	return Action{Kind: ActionShellCommand, Command: command, Description: description}
}

// FileWriteAction builds a file write action.
func FileWriteAction(path string) Action {
	return Action{Kind: ActionFileWrite, Path: path}
}

// FileEditAction builds a file edit action with an optional change preview.
func FileEditAction(path, changes string) Action {
	return Action{Kind: ActionFileEdit, Path: path, Changes: changes}
}

// FileReadAction builds a file read action.
func FileReadAction(path string) Action {
	return Action{Kind: ActionFileRead, Path: path}
}

// URLFetchAction builds a URL fetch action.
func URLFetchAction(url string) Action {
	return Action{Kind: ActionURLFetch, URL: url}
}

// ExtensionToolAction builds an extension tool action.
func ExtensionToolAction(server, tool string, input *Value) Action {
	return Action{Kind: ActionExtensionTool, Server: server, Tool: tool, Input: input}
}

// MatchText renders the single string rules are matched against.
func (a Action) MatchText() string {
	switch a.Kind {
	case ActionShellCommand:
		return a.Command
	case ActionFileWrite, ActionFileEdit, ActionFileRead:
		return a.Path
	case ActionURLFetch:
		return a.URL
	case ActionExtensionTool:
		return a.Server + ":" + a.Tool
	}
	return ""
}

// Title renders a short human-readable description for display.
func (a Action) Title() string {
	switch a.Kind {
	case ActionShellCommand:
		return fmt.Sprintf("Run: %s", a.Command)
	case ActionFileWrite:
		return fmt.Sprintf("Write file: %s", a.Path)
	case ActionFileEdit:
		return fmt.Sprintf("Edit file: %s", a.Path)
	case ActionFileRead:
		return fmt.Sprintf("Read file: %s", a.Path)
	case ActionURLFetch:
		return fmt.Sprintf("Fetch: %s", a.URL)
	case ActionExtensionTool:
		return fmt.Sprintf("Extension tool: %s:%s", a.Server, a.Tool)
	}
	return string(a.Kind)
}
