package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

// GeminiBackend sends prompts to Gemini through eino chat models, rotating
// across several API keys to spread requests over their rate limits.
type GeminiBackend struct {
	clients  []*genai.Client
	keyIndex uint64 // atomic counter for round-robin selection
}

// NewGeminiBackend creates one Gemini client per API key.
func NewGeminiBackend(ctx context.Context, apiKeys []string) (*GeminiBackend, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("at least one API key is required")
	}

	clients := make([]*genai.Client, len(apiKeys))
	for i, key := range apiKeys {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client for key %d: %w", i+1, err)
		}
		clients[i] = client
	}

	utils.Zlog.Info("Created Gemini backend with round-robin key rotation",
		zap.Int("key_count", len(apiKeys)))

	return &GeminiBackend{clients: clients}, nil
}

func (g *GeminiBackend) Name() string { return "gemini" }

// nextClient returns the next client using round-robin selection
func (g *GeminiBackend) nextClient() *genai.Client {
	if len(g.clients) == 1 {
		return g.clients[0]
	}
	idx := atomic.AddUint64(&g.keyIndex, 1)
	return g.clients[idx%uint64(len(g.clients))]
}

// Complete builds a chat model for the requested model name on the next
// client and sends the prompt as a single user message.
func (g *GeminiBackend) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	temperature := req.Temperature

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      g.nextClient(),
		Model:       req.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat model %s: %w", req.Model, err)
	}

	msg, err := chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(req.Prompt)})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if msg == nil {
		return "", errors.New("gemini returned no message")
	}
	return msg.Content, nil
}
