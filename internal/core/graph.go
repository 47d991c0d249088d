package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/llm"
	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

// Executor runs the extract → enrich → format graph. The graph is compiled
// once; every Run gets its own MessageState, so one Executor serves
// concurrent callers.
type Executor struct {
	runnable compose.Runnable[MessageState, MessageState]
}

// NewExecutor builds and compiles the message graph around gen.
func NewExecutor(ctx context.Context, gen llm.Generator) (*Executor, error) {
	graph := compose.NewGraph[MessageState, MessageState]()

	for _, name := range StageOrder {
		if err := graph.AddLambdaNode(name, compose.InvokableLambda(stageNode(gen, name))); err != nil {
			return nil, fmt.Errorf("failed to add node %s: %w", name, err)
		}
	}

	edges := [][2]string{
		{compose.START, NodeExtract},
		{NodeExtract, NodeEnrich},
		{NodeEnrich, NodeFormat},
		{NodeFormat, compose.END},
	}
	for _, e := range edges {
		if err := graph.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("failed to add edge %s -> %s: %w", e[0], e[1], err)
		}
	}

	runnable, err := graph.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph compilation failed: %w", err)
	}

	utils.Zlog.Info("Message graph compiled", zap.Strings("nodes", StageOrder))

	return &Executor{runnable: runnable}, nil
}

func stageNode(gen llm.Generator, name string) func(context.Context, MessageState) (MessageState, error) {
	return func(ctx context.Context, state MessageState) (MessageState, error) {
		return RunStage(ctx, gen, name, state)
	}
}

// Run processes one message and returns the formatted reply. Model failures
// degrade to fallback text; only an empty message or an unexpected fault
// yields an error.
func (e *Executor) Run(ctx context.Context, message string) (result *Result, err error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	start := time.Now()
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			utils.Zlog.Error("Message pipeline panicked", zap.Any("panic", r))
			result, err = nil, fmt.Errorf("%w: %v", ErrPipelineFailed, r)
		}
	}()

	final, err := e.runnable.Invoke(ctx, MessageState{Message: message})
	if err != nil {
		utils.Zlog.Error("Message graph invocation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPipelineFailed, err)
	}

	result = &Result{
		Response: final.FinalResponse,
		State:    final,
		Degraded: len(final.Fallbacks) > 0,
	}
	span.SetAttributes(attribute.Bool("pipeline.degraded", result.Degraded))

	utils.Zlog.Info("Message processed",
		zap.Bool("degraded", result.Degraded),
		zap.Strings("fallback_stages", final.Fallbacks),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()))

	return result, nil
}
