package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates token counts for prompt sizing and budget checks,
// backed by tiktoken-go. Anthropic and Google models don't publish an
// open tokenizer, so cl100k_base (GPT-4's encoding) is used as a stable
// approximation across every provider this package supports.
type TokenCounter struct {
	model string

	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTokenCounter creates a token counter for the given model name. The
// model name is stored for diagnostics; the encoding itself is always
// cl100k_base (see type doc).
func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{model: model}
}

func (tc *TokenCounter) encoding() *tiktoken.Tiktoken {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.enc != nil {
		return tc.enc
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		// Falls back to a nil encoder; Estimate degrades to a character
		// heuristic below rather than failing the calling request.
		return nil
	}
	tc.enc = enc
	return enc
}

// Estimate returns the approximate token count for text.
func (tc *TokenCounter) Estimate(text string) int {
	if text == "" {
		return 0
	}
	if enc := tc.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return len([]rune(text))/4 + 1
}

// EstimateMessages returns the approximate token count for a whole message
// list, including a small per-message overhead for role framing.
func (tc *TokenCounter) EstimateMessages(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += tc.Estimate(msg.Content) + 4
	}
	return total
}
