package llm

import (
	"context"
)

// CompletionRequest is one prompt sent to one model.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Backend abstracts a single hosted text generation call. Implementations
// return the raw model text; cleaning, retries and fallbacks live in Client.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// EchoBackend answers every prompt with the prompt itself. It needs no
// credentials and is used for local runs and tests.
type EchoBackend struct{}

func NewEchoBackend() *EchoBackend { return &EchoBackend{} }

func (e *EchoBackend) Name() string { return "echo" }

func (e *EchoBackend) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return req.Prompt, nil
}
