package server

import "net/http"

// handleListHandlerKinds implements GET /v1/handlers: every supported (or
// describe-only) backend kind and its field schema, the wire form of C1's
// Registry.Describe.
func (s *Server) handleListHandlerKinds(w http.ResponseWriter, r *http.Request) {
	kinds := s.registry.SupportedKinds()
	out := make([]map[string]any, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, map[string]any{
			"kind":   kind,
			"fields": s.registry.Describe(kind),
		})
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{"handlers": out})
}
