package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Session lifecycle and interaction
	r.Route("/session", func(r chi.Router) {
		r.Post("/start", s.startSession)
		r.Post("/stop", s.stopSession)
		r.Get("/status", s.getSessionStatus)
		r.Post("/input", s.sendInput)

		// Approval resolution
		r.Post("/approve", s.approvePending)
		r.Post("/deny", s.denyPending)
		r.Get("/pending", s.getPendingApproval)
	})

	// Rule management
	r.Route("/rules", func(r chi.Router) {
		r.Get("/", s.getRules)
		r.Put("/", s.replaceRules)
		r.Post("/auto-approve-all", s.setAutoApproveAll)
	})

	// Decision history
	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.getHistory)
		r.Delete("/", s.clearHistory)
	})

	// Event streaming (SSE)
	r.Get("/event", s.streamEvents)
}
