package ai

import "context"

// StreamChunk represents one piece of a streaming response.
type StreamChunk struct {
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason,omitempty"`
	TokensUsed   *TokenUsage `json:"tokens_used,omitempty"`
	Error        error       `json:"error,omitempty"`
}

// StreamCallback receives each chunk as it is produced.
type StreamCallback func(chunk StreamChunk) error

// StreamResponse exposes a streaming generation as a channel pair, for
// callers that prefer to range over chunks rather than supply a callback.
type StreamResponse struct {
	ChunkChan <-chan StreamChunk
	Done      <-chan struct{}
}

// GenerateStreamRequest is a GenerateRequest routed through the streaming
// path.
type GenerateStreamRequest = GenerateRequest

// GenerateResponseStream streams a response from the named (or default)
// provider, falling back to a single blocking call chunked after the fact
// when the provider doesn't implement StreamingProvider.
func (s *Service) GenerateResponseStream(ctx context.Context, request *GenerateStreamRequest, providerName ...string) (*StreamResponse, error) {
	name := s.resolveProvider(providerName...)
	provider, ok := s.providers[name]
	if !ok {
		return nil, NewProviderError(ErrorTypeInvalidRequest, "unknown provider: "+name, name)
	}

	chunkChan := make(chan StreamChunk, 64)
	doneChan := make(chan struct{})

	go func() {
		defer close(chunkChan)
		defer close(doneChan)

		onChunk := func(chunk StreamChunk) error {
			select {
			case chunkChan <- chunk:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var resp *GenerateResponse
		var err error
		if streaming, ok := provider.(StreamingProvider); ok {
			resp, err = streaming.GenerateResponseStream(ctx, request, onChunk)
		} else {
			resp, err = provider.GenerateResponse(ctx, request)
			if err == nil {
				_ = onChunk(StreamChunk{Content: resp.Content})
			}
		}

		if err != nil {
			chunkChan <- StreamChunk{Error: err}
			return
		}

		chunkChan <- StreamChunk{
			FinishReason: resp.FinishReason,
			TokensUsed:   &resp.TokensUsed,
		}
	}()

	return &StreamResponse{ChunkChan: chunkChan, Done: doneChan}, nil
}
