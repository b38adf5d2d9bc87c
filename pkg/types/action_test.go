package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionMatchText(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{
			name:   "shell command",
			action: ShellCommandAction("git status", ""),
			want:   "git status",
		},
		{
			name:   "file write",
			action: FileWriteAction("/tmp/out.txt"),
			want:   "/tmp/out.txt",
		},
		{
			name:   "file edit",
			action: FileEditAction("/tmp/main.go", "old"),
			want:   "/tmp/main.go",
		},
		{
			name:   "file read",
			action: FileReadAction("/etc/hosts"),
			want:   "/etc/hosts",
		},
		{
			name:   "url fetch",
			action: URLFetchAction("https://docs.example.com/api"),
			want:   "https://docs.example.com/api",
		},
		{
			name:   "extension tool",
			action: ExtensionToolAction("github", "create_issue", nil),
			want:   "github:create_issue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.MatchText())
		})
	}
}

func TestActionJSONRoundTrip(t *testing.T) {
	in := ShellCommandAction("npm run build", "build the project")

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Action
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
	assert.Equal(t, ActionShellCommand, out.Kind)
}

func TestEventWithApproval(t *testing.T) {
	ev := NewEvent(EventToolRequest, Object(map[string]Value{"name": String("Bash")}))
	assert.False(t, ev.RequiresApproval)
	assert.Nil(t, ev.Action)
	assert.NotEmpty(t, ev.ID)

	approved := ev.WithApproval(ShellCommandAction("ls", ""))
	assert.True(t, approved.RequiresApproval)
	require.NotNil(t, approved.Action)
	assert.Equal(t, "ls", approved.Action.Command)

	// Original event is unchanged.
	assert.False(t, ev.RequiresApproval)
}
