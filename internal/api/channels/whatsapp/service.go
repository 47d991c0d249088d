package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/api/channels"
	"github.com/Conversly/whatsapp-assistant/internal/core"
	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

// Sender delivers a reply; *GraphClient is the production implementation.
type Sender interface {
	SendText(ctx context.Context, to, body, replyTo string) (string, error)
}

// Service answers inbound WhatsApp messages with the pipeline's reply.
type Service struct {
	pipeline channels.Pipeline
	sender   Sender
	timeout  time.Duration

	wg sync.WaitGroup
}

func NewService(pipeline channels.Pipeline, sender Sender, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Service{pipeline: pipeline, sender: sender, timeout: timeout}
}

// HandleAsync processes msg on its own goroutine, detached from the webhook
// request, bounded by the service timeout.
func (s *Service) HandleAsync(msg Inbound) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.Zlog.Error("WhatsApp processing panicked",
					zap.String("message_id", msg.MessageID),
					zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.ProcessAndRespond(ctx, msg); err != nil {
			utils.Zlog.Error("Failed to process WhatsApp message",
				zap.String("from", msg.From),
				zap.String("message_id", msg.MessageID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every message handed to HandleAsync is done.
func (s *Service) Wait() {
	s.wg.Wait()
}

// ProcessAndRespond runs the pipeline and sends its reply. A pipeline
// failure is answered with the format stage fallback.
func (s *Service) ProcessAndRespond(ctx context.Context, msg Inbound) error {
	start := time.Now()

	reply := core.FallbackFinalResponse
	result, err := s.pipeline.Run(ctx, msg.Text)
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		utils.Zlog.Debug("Ignoring empty WhatsApp message", zap.String("message_id", msg.MessageID))
		return nil
	case err != nil:
		utils.Zlog.Warn("Pipeline failed, replying with fallback",
			zap.String("message_id", msg.MessageID),
			zap.Error(err))
	default:
		reply = result.Response
	}

	sentID, err := s.sender.SendText(ctx, msg.From, reply, msg.MessageID)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp message: %w", err)
	}

	utils.Zlog.Info("WhatsApp message processed and sent",
		zap.String("message_id", msg.MessageID),
		zap.String("sent_msg_id", sentID),
		zap.Bool("degraded", result == nil || result.Degraded),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()))
	return nil
}
