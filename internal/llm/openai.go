package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Base URLs of the OpenAI-compatible providers.
const (
	GroqBaseURL        = "https://api.groq.com/openai/v1"
	HuggingFaceBaseURL = "https://router.huggingface.co/v1"
)

// OpenAIBackend talks to any OpenAI-compatible chat completions endpoint
// (Groq, the Hugging Face router, OpenAI itself).
type OpenAIBackend struct {
	name     string
	clients  []openai.Client
	keyIndex uint64
}

// NewOpenAIBackend creates one client per API key. SDK retries are disabled;
// Client decides when to try again and with which model.
func NewOpenAIBackend(name, baseURL string, apiKeys []string) (*OpenAIBackend, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("%s: at least one API key is required", name)
	}

	clients := make([]openai.Client, len(apiKeys))
	for i, key := range apiKeys {
		opts := []option.RequestOption{
			option.WithAPIKey(key),
			option.WithMaxRetries(0),
		}
		if baseURL != "" {
			opts = append(opts, option.WithBaseURL(baseURL))
		}
		clients[i] = openai.NewClient(opts...)
	}

	return &OpenAIBackend{name: name, clients: clients}, nil
}

func (b *OpenAIBackend) Name() string { return b.name }

func (b *OpenAIBackend) nextClient() *openai.Client {
	if len(b.clients) == 1 {
		return &b.clients[0]
	}
	idx := atomic.AddUint64(&b.keyIndex, 1)
	return &b.clients[idx%uint64(len(b.clients))]
}

func (b *OpenAIBackend) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(float64(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := b.nextClient().Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", b.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
