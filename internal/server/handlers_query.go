package server

import (
	"net/http"

	"github.com/koopa0/nlqagent/internal/orchestrator"
)

// naturalLanguageQueryRequest is the body of POST /v1/query.
type naturalLanguageQueryRequest struct {
	Question     string `json:"question"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// handleNaturalLanguageQuery implements POST /v1/query: runs the
// orchestrator to completion (no streaming) and returns the final
// aggregate payload plus the executed SQL.
func (s *Server) handleNaturalLanguageQuery(w http.ResponseWriter, r *http.Request) {
	var req naturalLanguageQueryRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Question == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "question is required")
		return
	}

	events := s.orchestrator.Run(r.Context(), req.Question, req.ConnectionID)

	var final *orchestrator.AggregateResult
	var errMessage string
	for ev := range events {
		switch ev.Type {
		case orchestrator.EventResult:
			final = ev.Final
		case orchestrator.EventError:
			errMessage = ev.Message
		}
	}

	if final == nil {
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, errMessage)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, final)
}
