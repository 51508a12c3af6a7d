package client

import "context"

// ChatRequest carries one prompt exchange with the external interpreter.
// ImageB64 is optional; when empty the request is a pure text completion.
type ChatRequest struct {
	Model       string
	System      string
	Prompt      string
	ImageB64    string
	MaxTokens   int
	Temperature float64
}

// ChatClient abstracts the external LLM service. Implementations must be
// safe for concurrent use.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	SupportsVision() bool
}
