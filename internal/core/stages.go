package core

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/llm"
	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

var tracer = otel.Tracer("github.com/Conversly/whatsapp-assistant/internal/core")

type stage struct {
	prompt   func(MessageState) string
	write    func(*MessageState, string)
	fallback string
}

var stages = map[string]stage{
	NodeExtract: {
		prompt: func(s MessageState) string {
			return fmt.Sprintf("Extract key meaning from: %s", s.Message)
		},
		write:    func(s *MessageState, v string) { s.ProcessedMessage = v },
		fallback: FallbackProcessedMessage,
	},
	NodeEnrich: {
		prompt: func(s MessageState) string {
			return fmt.Sprintf("If this contains a famous name, provide a brief bio, otherwise say 'no bio needed': %s",
				s.ProcessedMessage)
		},
		write:    func(s *MessageState, v string) { s.WikiInfo = v },
		fallback: FallbackWikiInfo,
	},
	NodeFormat: {
		prompt: func(s MessageState) string {
			details := fmt.Sprintf("Message: %s\nWiki info: %s", s.ProcessedMessage, s.WikiInfo)
			return fmt.Sprintf("Generate a friendly response using this context: %s", details)
		},
		write:    func(s *MessageState, v string) { s.FinalResponse = v },
		fallback: FallbackFinalResponse,
	},
}

// RunStage runs the named stage against state and returns the updated copy.
// Generation failures never surface as errors: the stage writes its fallback.
func RunStage(ctx context.Context, gen llm.Generator, name string, state MessageState) (MessageState, error) {
	st, ok := stages[name]
	if !ok {
		return state, fmt.Errorf("%w: %s", ErrUnknownStage, name)
	}

	ctx, span := tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	text, degraded := st.generate(ctx, gen, name, state)
	st.write(&state, text)
	if degraded {
		state.Fallbacks = append(state.Fallbacks, name)
	}
	span.SetAttributes(attribute.Bool("pipeline.fallback", degraded))
	return state, nil
}

func (st stage) generate(ctx context.Context, gen llm.Generator, name string, state MessageState) (text string, degraded bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.Zlog.Error("Stage panicked, writing fallback",
				zap.String("stage", name),
				zap.Any("panic", r))
			text, degraded = st.fallback, true
		}
	}()

	res := gen.Generate(ctx, st.prompt(state), llm.WithFallback(st.fallback))
	if res.FallbackUsed || strings.TrimSpace(res.Text) == "" {
		utils.Zlog.Warn("Stage degraded to fallback",
			zap.String("stage", name),
			zap.Int("attempts", res.Attempts))
		return st.fallback, true
	}

	utils.Zlog.Debug("Stage completed",
		zap.String("stage", name),
		zap.String("model", res.Model),
		zap.Duration("latency", res.Latency))
	return res.Text, false
}
