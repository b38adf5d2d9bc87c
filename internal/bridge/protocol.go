package bridge

import (
	"encoding/json"
	"strings"

	"github.com/agentgate-ai/agentgate/pkg/types"
)

// Wire record discriminators on the primary output stream.
const (
	recordSystem            = "system"
	recordAssistant         = "assistant"
	recordToolUse           = "tool_use"
	recordToolResult        = "tool_result"
	recordPermissionRequest = "permission_request"
	recordResult            = "result"
	recordError             = "error"
)

// Tool names recognized on the tool-invocation path.
const (
	toolBash     = "Bash"
	toolWrite    = "Write"
	toolEdit     = "Edit"
	toolRead     = "Read"
	toolWebFetch = "WebFetch"

	// extensionPrefix marks namespaced extension tools: "mcp__server__tool".
	extensionPrefix = "mcp__"
)

// streamRecord is one decoded line of the process's structured output.
// Fields are a union over all record kinds; Type selects which apply.
type streamRecord struct {
	Type string `json:"type"`

	// system, assistant, error
	Message string `json:"message,omitempty"`

	// assistant
	SessionID string `json:"session_id,omitempty"`

	// tool_use, tool_result
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name,omitempty"`
	Input types.Value `json:"input,omitempty"`

	// tool_result
	Output  *string `json:"output,omitempty"`
	IsError bool    `json:"is_error,omitempty"`

	// permission_request
	Tool    string      `json:"tool,omitempty"`
	Action  string      `json:"action,omitempty"`
	Details types.Value `json:"details,omitempty"`

	// result
	CostUSD    *float64 `json:"cost_usd,omitempty"`
	DurationMs *int64   `json:"duration_ms,omitempty"`
}

// translateLine turns one primary-output line into an event. A line that is
// not a recognized structured record degrades to a raw_output event; nothing
// is dropped.
func translateLine(line string) types.Event {
	var rec streamRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Type == "" {
		return rawOutputEvent(line)
	}

	switch rec.Type {
	case recordSystem:
		return types.NewEvent(types.EventSystem, types.Object(map[string]types.Value{
			"message": types.String(rec.Message),
		}))

	case recordAssistant:
		fields := map[string]types.Value{
			"message": types.String(rec.Message),
		}
		if rec.SessionID != "" {
			fields["session_id"] = types.String(rec.SessionID)
		}
		return types.NewEvent(types.EventAssistant, types.Object(fields))

	case recordToolUse:
		ev := types.NewEvent(types.EventToolRequest, types.Object(map[string]types.Value{
			"id":    types.String(rec.ID),
			"name":  types.String(rec.Name),
			"input": rec.Input,
		}))
		if action, ok := detectAction(rec.Name, rec.Input); ok {
			ev = ev.WithApproval(action)
		}
		return ev

	case recordToolResult:
		fields := map[string]types.Value{
			"id":       types.String(rec.ID),
			"is_error": types.Bool(rec.IsError),
		}
		if rec.Output != nil {
			fields["output"] = types.String(*rec.Output)
		}
		return types.NewEvent(types.EventToolResult, types.Object(fields))

	case recordPermissionRequest:
		ev := types.NewEvent(types.EventPermissionRequest, types.Object(map[string]types.Value{
			"tool":    types.String(rec.Tool),
			"action":  types.String(rec.Action),
			"details": rec.Details,
		}))
		return ev.WithApproval(permissionAction(rec.Tool, rec.Action, rec.Details))

	case recordResult:
		fields := map[string]types.Value{
			"session_id": types.String(rec.SessionID),
		}
		if rec.CostUSD != nil {
			fields["cost_usd"] = types.Number(*rec.CostUSD)
		}
		if rec.DurationMs != nil {
			fields["duration_ms"] = types.Number(float64(*rec.DurationMs))
		}
		return types.NewEvent(types.EventCompletion, types.Object(fields))

	case recordError:
		return types.NewEvent(types.EventError, types.Object(map[string]types.Value{
			"message": types.String(rec.Message),
		}))
	}

	// Structurally valid JSON with an unknown discriminator still degrades
	// to raw output rather than vanishing.
	return rawOutputEvent(line)
}

func rawOutputEvent(line string) types.Event {
	return types.NewEvent(types.EventRawOutput, types.Object(map[string]types.Value{
		"text": types.String(line),
		"raw":  types.Bool(true),
	}))
}

// stderrEvent wraps a diagnostic-stream line, tagged distinctly from
// primary-stream errors.
func stderrEvent(line string) types.Event {
	return types.NewEvent(types.EventStderr, types.Object(map[string]types.Value{
		"text": types.String(line),
	}))
}

// detectAction derives the privileged action behind a tool invocation.
// A shell tool without a command field yields no action, which drops the
// event's approval flag.
func detectAction(name string, input types.Value) (types.Action, bool) {
	switch name {
	case toolBash:
		command := input.Field("command").Str()
		if command == "" {
			return types.Action{}, false
		}
		return types.ShellCommandAction(command, input.Field("description").Str()), true

	case toolWrite:
		path := input.Field("file_path").Str()
		if path == "" {
			return types.Action{}, false
		}
		return types.FileWriteAction(path), true

	case toolEdit:
		path := input.Field("file_path").Str()
		if path == "" {
			return types.Action{}, false
		}
		return types.FileEditAction(path, editPreview(input)), true

	case toolRead:
		path := input.Field("file_path").Str()
		if path == "" {
			return types.Action{}, false
		}
		return types.FileReadAction(path), true

	case toolWebFetch:
		url := input.Field("url").Str()
		if url == "" {
			return types.Action{}, false
		}
		return types.URLFetchAction(url), true
	}

	if strings.HasPrefix(name, extensionPrefix) {
		parts := strings.Split(name, "__")
		if len(parts) >= 3 {
			in := input
			return types.ExtensionToolAction(parts[1], strings.Join(parts[2:], "__"), &in), true
		}
	}

	return types.Action{}, false
}

// permissionAction derives the action behind an explicit permission-request
// record. Unknown tools are treated as extension tools so the request is
// still displayable and matchable.
func permissionAction(tool, action string, details types.Value) types.Action {
	switch tool {
	case toolBash:
		return types.ShellCommandAction(action, details.Field("description").Str())
	case toolWrite:
		return types.FileWriteAction(action)
	case toolEdit:
		return types.FileEditAction(action, "")
	case toolRead:
		return types.FileReadAction(action)
	case toolWebFetch:
		return types.URLFetchAction(action)
	}
	return types.ExtensionToolAction(tool, action, &details)
}
