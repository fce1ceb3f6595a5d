package server

import (
	"net/http"
	"strconv"

	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/handler"
)

// handleTestConnection implements POST /v1/connections/test: C2 test().
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	var cfg handler.ConnectionConfig
	if err := parseJSONRequest(r, &cfg); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.connections.Test(r.Context(), cfg)
	if err != nil {
		s.writeErrorFromAssistant(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, result)
}

// handleCreateConnection implements POST /v1/connections: C2 create().
func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var cfg handler.ConnectionConfig
	if err := parseJSONRequest(r, &cfg); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.connections.Create(r.Context(), cfg)
	if err != nil {
		s.writeErrorFromAssistant(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, map[string]any{"id": id})
}

// handleListConnections implements GET /v1/connections: C2 list().
func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.connections.List()
	out := make([]map[string]any, 0, len(conns))
	for _, c := range conns {
		out = append(out, map[string]any{
			"id":     c.Config.ID,
			"name":   c.Config.Name,
			"kind":   c.Config.Kind,
			"state":  c.State,
			"active": c.Active,
		})
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{"connections": out})
}

// handleUpdateConnection implements PATCH /v1/connections/{id}: remove and
// recreate under the same id, the only form of "update" C2's contract
// exposes (create/test/activate/deactivate/remove/schema/execute).
func (s *Server) handleUpdateConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var cfg handler.ConnectionConfig
	if err := parseJSONRequest(r, &cfg); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg.ID = id

	if err := s.connections.Remove(r.Context(), id); err != nil {
		s.writeErrorFromAssistant(w, err)
		return
	}
	if _, err := s.connections.Create(r.Context(), cfg); err != nil {
		s.writeErrorFromAssistant(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{"id": id})
}

// handleDeleteConnection implements DELETE /v1/connections/{id}: C2
// remove(), idempotent on a missing id.
func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.connections.Remove(r.Context(), id); err != nil {
		s.writeErrorFromAssistant(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActivateConnection implements POST /v1/connections/{id}/activate:
// C2 activate().
func (s *Server) handleActivateConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.connections.Activate(r.Context(), id); err != nil {
		s.writeErrorFromAssistant(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{"id": id, "active": true})
}

// handleConnectionSchema implements GET
// /v1/connections/{id}/schema?include_columns=bool: C2 schema().
func (s *Server) handleConnectionSchema(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	includeColumns := true
	if v := r.URL.Query().Get("include_columns"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			includeColumns = parsed
		}
	}

	snapshot, err := s.connections.Schema(r.Context(), id, includeColumns)
	if err != nil {
		s.writeErrorFromAssistant(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, snapshot)
}

// handleConnectionQuery implements POST /v1/connections/{id}/query: C2
// execute() against a named connection.
func (s *Server) handleConnectionQuery(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var query handler.Query
	if err := parseJSONRequest(r, &query); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.connections.Execute(r.Context(), id, query)
	if err != nil {
		s.writeErrorFromAssistant(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, result)
}

// writeErrorFromAssistant maps an apperrors.AssistantError's code to an
// HTTP status per the propagation policy of spec.md §7; any other error
// is a 500.
func (s *Server) writeErrorFromAssistant(w http.ResponseWriter, err error) {
	assistantErr, ok := err.(*apperrors.AssistantError)
	if !ok {
		s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch assistantErr.Code {
	case apperrors.CodeConfigInvalid, apperrors.CodePlanInvalid:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeDuplicateID:
		status = http.StatusConflict
	case apperrors.CodeNotConnected, apperrors.CodeUnsupportedKind:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeTimeout:
		status = http.StatusRequestTimeout
	case apperrors.CodeCancelled:
		status = 499 // client closed request, nginx convention
	case apperrors.CodeQueryFailed, apperrors.CodeWorkspaceSQLError, apperrors.CodeToolCallFailed:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeBudgetExhausted:
		status = http.StatusConflict
	}
	s.writeErrorResponse(w, status, assistantErr.Error())
}
