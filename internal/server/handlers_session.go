package server

import (
	"encoding/json"
	"net/http"

	"github.com/agentgate-ai/agentgate/internal/session"
	"github.com/agentgate-ai/agentgate/pkg/types"
)

// startSessionRequest is the body for POST /session/start.
type startSessionRequest struct {
	WorkingDir string `json:"working_dir"`
	Prompt     string `json:"prompt,omitempty"`
}

// startSessionResponse is the response for POST /session/start.
type startSessionResponse struct {
	SessionID string `json:"session_id"`
}

// startSession handles POST /session/start.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if req.WorkingDir == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "working_dir is required")
		return
	}

	id, err := s.coordinator.Start(session.StartOptions{
		WorkingDir: req.WorkingDir,
		Prompt:     req.Prompt,
	})
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, startSessionResponse{SessionID: id})
}

// stopSession handles POST /session/stop.
func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.Stop(); err != nil {
		writeCoordinatorError(w, err)
		return
	}
	writeSuccess(w)
}

// getSessionStatus handles GET /session/status.
func (s *Server) getSessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coordinator.Status())
}

// sendInputRequest is the body for POST /session/input.
type sendInputRequest struct {
	Text string `json:"text"`
}

// sendInput handles POST /session/input.
func (s *Server) sendInput(w http.ResponseWriter, r *http.Request) {
	var req sendInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "text is required")
		return
	}

	if err := s.coordinator.Send(req.Text); err != nil {
		writeCoordinatorError(w, err)
		return
	}
	writeSuccess(w)
}

// resolveApprovalResponse is the response for POST /session/approve and
// POST /session/deny: the action the decision applied to.
type resolveApprovalResponse struct {
	Action   types.Action   `json:"action"`
	Decision types.Decision `json:"decision"`
}

// approvePending handles POST /session/approve.
func (s *Server) approvePending(w http.ResponseWriter, r *http.Request) {
	action, err := s.coordinator.Approve()
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveApprovalResponse{
		Action:   action,
		Decision: types.DecisionApproved,
	})
}

// denyPending handles POST /session/deny.
func (s *Server) denyPending(w http.ResponseWriter, r *http.Request) {
	action, err := s.coordinator.Deny()
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveApprovalResponse{
		Action:   action,
		Decision: types.DecisionDenied,
	})
}

// getPendingApproval handles GET /session/pending.
func (s *Server) getPendingApproval(w http.ResponseWriter, r *http.Request) {
	pending := s.coordinator.PendingApproval()
	if pending == nil {
		writeJSON(w, http.StatusOK, map[string]any{"pending": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}
