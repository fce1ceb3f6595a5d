package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/koopa0/nlqagent/internal/orchestrator"
)

// chatCompletionsRequest is the OpenAI-compatible request body of
// POST /v1/chat/completions, per spec.md §6.
type chatCompletionsRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Model        string `json:"model,omitempty"`
	Stream       bool   `json:"stream,omitempty"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// handleChatCompletions implements POST /v1/chat/completions. The last
// user message is taken as the utterance driving the orchestrator;
// stream=true flushes one SSE frame per StreamEvent, terminated by
// "data: [DONE]\n\n"; otherwise the full StreamEvent sequence is
// collected and returned as one JSON object whose "events" field holds
// the array.
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionsRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	utterance := lastUserMessage(req)
	if utterance == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "messages must contain at least one user message")
		return
	}

	events := s.orchestrator.Run(r.Context(), utterance, req.ConnectionID)

	if !req.Stream {
		var collected []orchestrator.StreamEvent
		for ev := range events {
			collected = append(collected, ev)
		}
		s.writeJSONResponse(w, http.StatusOK, map[string]any{"events": collected})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeErrorResponse(w, http.StatusInternalServerError, "streaming unsupported by response writer")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("failed to marshal stream event", "error", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func lastUserMessage(req chatCompletionsRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}
