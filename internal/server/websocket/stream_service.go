// Package websocket adapts the teacher's gorilla/websocket connection
// registry into an alternate push channel for the orchestrator's
// StreamEvent sequence (spec.md §6's "websocket variant of the same
// StreamEvent sequence"), for callers that prefer a persistent socket
// over SSE polling.
package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/koopa0/nlqagent/internal/orchestrator"
)

// queryRequest is the first (and only) client-to-server message a
// websocket connection sends: the utterance to run.
type queryRequest struct {
	Question     string `json:"question"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// StreamService upgrades a GET /v1/stream/ws request, reads one
// queryRequest, runs the Orchestrator, and writes each StreamEvent back
// as a JSON text frame until done.
type StreamService struct {
	orchestrator *orchestrator.Orchestrator
	logger       *slog.Logger
	upgrader     websocket.Upgrader
}

// NewStreamService builds a StreamService bound to orch.
func NewStreamService(orch *orchestrator.Orchestrator, logger *slog.Logger) *StreamService {
	return &StreamService{
		orchestrator: orch,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket is the http.HandlerFunc for GET /v1/stream/ws.
func (s *StreamService) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		s.logger.Warn("websocket read failed before first query", slog.Any("error", err))
		return
	}

	var req queryRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.writeError(conn, "invalid query request: "+err.Error())
		return
	}

	ctx := r.Context()
	events := s.orchestrator.Run(ctx, req.Question, req.ConnectionID)

	for ev := range events {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		body, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("failed to marshal stream event", slog.Any("error", err))
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			s.logger.Warn("websocket write failed, aborting stream", slog.Any("error", err))
			return
		}
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *StreamService) writeError(conn *websocket.Conn, message string) {
	errBody, _ := json.Marshal(orchestrator.StreamEvent{Type: orchestrator.EventError, Message: message})
	conn.WriteMessage(websocket.TextMessage, errBody)
	doneBody, _ := json.Marshal(orchestrator.StreamEvent{Type: orchestrator.EventDone})
	conn.WriteMessage(websocket.TextMessage, doneBody)
}
