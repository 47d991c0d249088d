package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/Conversly/whatsapp-assistant/internal/api/channels"
	"github.com/Conversly/whatsapp-assistant/internal/core"
	"github.com/Conversly/whatsapp-assistant/internal/llm"
)

const (
	ChatMaxTokens = 120
	chatPrompt    = "You are a helpful WhatsApp assistant. User says: %s\nAssistant:"
)

type Service struct {
	pipeline   channels.Pipeline
	gen        llm.Generator
	chatModels []string
}

func NewService(pipeline channels.Pipeline, gen llm.Generator, chatModels []string) *Service {
	return &Service{pipeline: pipeline, gen: gen, chatModels: chatModels}
}

func (s *Service) Process(ctx context.Context, message string) (*core.Result, error) {
	return s.pipeline.Run(ctx, message)
}

// Chat answers the message with a single assistant prompt.
func (s *Service) Chat(ctx context.Context, message string) (llm.Result, error) {
	if strings.TrimSpace(message) == "" {
		return llm.Result{}, core.ErrEmptyMessage
	}
	opts := []llm.Option{llm.WithMaxTokens(ChatMaxTokens)}
	if len(s.chatModels) > 0 {
		opts = append(opts, llm.WithModels(s.chatModels...))
	}
	return s.gen.Generate(ctx, fmt.Sprintf(chatPrompt, message), opts...), nil
}
