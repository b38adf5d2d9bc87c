package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgate-ai/agentgate/internal/event"
	"github.com/agentgate-ai/agentgate/internal/rules"
	"github.com/agentgate-ai/agentgate/internal/session"
	"github.com/agentgate-ai/agentgate/pkg/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	bus := event.NewBus()
	t.Cleanup(func() { _ = bus.Close() })

	// "sh -c cat" swallows the protocol flags appended at start and echoes
	// stdin, standing in for the real assistant process.
	coordinator := session.NewCoordinator(session.Options{
		Command: "sh",
		Args:    []string{"-c", "cat"},
	}, rules.NewEngine(), bus)
	t.Cleanup(func() { _ = coordinator.Stop() })

	return New(DefaultConfig(), coordinator, bus)
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSessionStatusIdle(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/session/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status types.SessionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Active)
	assert.False(t, status.HasPendingApproval)
}

func TestSessionStartStop(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/session/start", map[string]string{
		"working_dir": t.TempDir(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var started startSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.NotEmpty(t, started.SessionID)

	// Second start conflicts while the first session is active.
	rec = doRequest(t, srv, http.MethodPost, "/session/start", map[string]string{
		"working_dir": t.TempDir(),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeSessionActive, decodeError(t, rec).Error.Code)

	rec = doRequest(t, srv, http.MethodPost, "/session/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Eventually(t, func() bool {
		rec := doRequest(t, srv, http.MethodGet, "/session/status", nil)
		var status types.SessionStatus
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			return false
		}
		return !status.Active
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSessionStartValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/session/start", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeInvalidRequest, decodeError(t, rec).Error.Code)
}

func TestSessionStopWithoutSession(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/session/stop", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeNoSession, decodeError(t, rec).Error.Code)
}

func TestSessionInputWithoutSession(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/session/input", map[string]string{"text": "hi"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeNoSession, decodeError(t, rec).Error.Code)
}

func TestApproveWithoutPending(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/session/approve", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeNoPendingApproval, decodeError(t, rec).Error.Code)

	rec = doRequest(t, srv, http.MethodPost, "/session/deny", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeNoPendingApproval, decodeError(t, rec).Error.Code)
}

func TestApproveReturnsResolvedAction(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/session/start", map[string]string{
		"working_dir": t.TempDir(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The echoed tool request carries a command no default rule matches,
	// so it parks as the pending approval.
	rec = doRequest(t, srv, http.MethodPost, "/session/input", map[string]string{
		"text": `{"type":"tool_use","id":"t1","name":"Bash","input":{"command":"terraform apply"}}`,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		rec := doRequest(t, srv, http.MethodGet, "/session/status", nil)
		var status types.SessionStatus
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.HasPendingApproval
	}, 5*time.Second, 20*time.Millisecond)

	rec = doRequest(t, srv, http.MethodPost, "/session/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resolved resolveApprovalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.Equal(t, types.DecisionApproved, resolved.Decision)
	assert.Equal(t, types.ActionShellCommand, resolved.Action.Kind)
	assert.Equal(t, "terraform apply", resolved.Action.Command)
}

func TestGetPendingApprovalEmpty(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/session/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp["pending"])
}

func TestRulesRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/rules/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var initial rulesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initial))
	assert.NotEmpty(t, initial.Rules, "defaults should be installed")

	replacement := replaceRulesRequest{Rules: []types.Rule{{
		ID:          "echo-only",
		Name:        "Echo Only",
		Pattern:     "^echo\\b",
		AppliesTo:   types.ActionShellCommand,
		Enabled:     true,
		AutoApprove: true,
	}}}
	rec = doRequest(t, srv, http.MethodPut, "/rules/", replacement)
	require.Equal(t, http.StatusOK, rec.Code)

	var replaced rulesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replaced))
	require.Len(t, replaced.Rules, 1)
	assert.Equal(t, "echo-only", replaced.Rules[0].ID)
}

func TestReplaceRulesDropsInvalidPatterns(t *testing.T) {
	srv := newTestServer(t)

	replacement := replaceRulesRequest{Rules: []types.Rule{
		{ID: "bad", Name: "Bad", Pattern: "([unclosed", AppliesTo: types.ActionShellCommand, Enabled: true, AutoApprove: true},
		{ID: "good", Name: "Good", Pattern: "^ls", AppliesTo: types.ActionShellCommand, Enabled: true, AutoApprove: true},
	}}
	rec := doRequest(t, srv, http.MethodPut, "/rules/", replacement)
	require.Equal(t, http.StatusOK, rec.Code)

	var replaced rulesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replaced))
	require.Len(t, replaced.Rules, 1)
	assert.Equal(t, "good", replaced.Rules[0].ID)
}

func TestAutoApproveAllToggle(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/rules/auto-approve-all", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/session/status", nil)
	var status types.SessionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.AutoApproveAll)

	rec = doRequest(t, srv, http.MethodPost, "/rules/auto-approve-all", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/session/status", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.AutoApproveAll)
}

func TestHistoryEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/history/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Empty(t, history.Entries)

	rec = doRequest(t, srv, http.MethodDelete, "/history/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/session/start", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
