package server

import (
	"encoding/json"
	"net/http"

	"github.com/agentgate-ai/agentgate/pkg/types"
)

// rulesResponse is the response for GET /rules.
type rulesResponse struct {
	Rules []types.Rule `json:"rules"`
}

// getRules handles GET /rules.
func (s *Server) getRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rulesResponse{Rules: s.coordinator.Rules()})
}

// replaceRulesRequest is the body for PUT /rules.
type replaceRulesRequest struct {
	Rules []types.Rule `json:"rules"`
}

// replaceRules handles PUT /rules. The installed set replaces the previous
// one wholesale; rules with invalid patterns are dropped during compilation.
func (s *Server) replaceRules(w http.ResponseWriter, r *http.Request) {
	var req replaceRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	s.coordinator.ReplaceRules(req.Rules)
	writeJSON(w, http.StatusOK, rulesResponse{Rules: s.coordinator.Rules()})
}

// setAutoApproveAllRequest is the body for POST /rules/auto-approve-all.
type setAutoApproveAllRequest struct {
	Enabled bool `json:"enabled"`
}

// setAutoApproveAll handles POST /rules/auto-approve-all.
func (s *Server) setAutoApproveAll(w http.ResponseWriter, r *http.Request) {
	var req setAutoApproveAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	s.coordinator.SetAutoApproveAll(req.Enabled)
	writeSuccess(w)
}
