package server

import (
	"net/http"

	"github.com/agentgate-ai/agentgate/pkg/types"
)

// historyResponse is the response for GET /history.
type historyResponse struct {
	Entries []types.HistoryEntry `json:"entries"`
}

// getHistory handles GET /history. Entries are ordered oldest first.
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.coordinator.History()
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

// clearHistory handles DELETE /history.
func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	s.coordinator.ClearHistory()
	writeSuccess(w)
}
