package server

import "net/http"

// handleHealth implements GET /v1/health: liveness plus per-connection
// health, C2 health().
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	connectionHealth := s.connections.Health(r.Context())
	aiErr := s.ai.Health(r.Context())

	status := "healthy"
	statusCode := http.StatusOK
	if aiErr != nil {
		status = "degraded"
	}

	s.writeJSONResponse(w, statusCode, map[string]any{
		"status":      status,
		"connections": connectionHealth,
	})
}
