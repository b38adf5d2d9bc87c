package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgate-ai/agentgate/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.CLI)
	assert.Equal(t, "127.0.0.1", cfg.Hostname)
	assert.Equal(t, 4517, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadProjectConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	content := `{
		// project overrides
		"cli": "assistant",
		"port": 9000,
		"pretty_logs": true
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "agentgate.jsonc"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "assistant", cfg.CLI)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.PrettyLogs)
	// Untouched fields keep defaults.
	assert.Equal(t, "127.0.0.1", cfg.Hostname)
}

func TestLoadEnvInterpolation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TEST_CLI_PATH", "/opt/bin/assistant")

	dir := t.TempDir()
	content := `{"cli": "{env:TEST_CLI_PATH}"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "agentgate.json"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/assistant", cfg.CLI)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("AGENTGATE_PORT", "8080")
	t.Setenv("AGENTGATE_LOG_LEVEL", "debug")
	t.Setenv("AGENTGATE_AUTO_APPROVE_ALL", "true")

	dir := t.TempDir()
	content := `{"port": 9000}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "agentgate.json"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Env beats file.
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.AutoApproveAll)
}

func TestRulesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")

	in := []types.Rule{
		{
			ID:          "git-read",
			Name:        "Git Read Commands",
			Pattern:     `^git\s+(status|log)`,
			AppliesTo:   types.ActionShellCommand,
			Enabled:     true,
			AutoApprove: true,
		},
		{
			ID:          "docs-write",
			Name:        "Documentation Writes",
			Pattern:     "glob:**/*.md",
			AppliesTo:   types.ActionFileWrite,
			Enabled:     false,
			AutoApprove: false,
		},
	}

	require.NoError(t, SaveRules(in, path))

	out, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadRulesEnabledDefaultsTrue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - id: one
    name: One
    pattern: "^ls"
    applies_to: shell_command
    auto_approve: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].Enabled)
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWatchRulesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, SaveRules([]types.Rule{{
		ID: "a", Name: "A", Pattern: "^ls", AppliesTo: types.ActionShellCommand,
		Enabled: true, AutoApprove: true,
	}}, path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan []types.Rule, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = WatchRules(ctx, path, func(rules []types.Rule) {
			select {
			case reloaded <- rules:
			default:
			}
		})
	}()

	// Give the watcher time to install before rewriting the file.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, SaveRules([]types.Rule{
		{ID: "a", Name: "A", Pattern: "^ls", AppliesTo: types.ActionShellCommand, Enabled: true, AutoApprove: true},
		{ID: "b", Name: "B", Pattern: "^pwd", AppliesTo: types.ActionShellCommand, Enabled: true, AutoApprove: true},
	}, path))

	select {
	case rules := <-reloaded:
		assert.Len(t, rules, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
