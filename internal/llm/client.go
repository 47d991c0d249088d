package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/config"
	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

const (
	DefaultMaxTokens      = 150
	DefaultTemperature    = 0.7
	DefaultMaxRetries     = 2
	DefaultRetryDelay     = time.Second
	DefaultRequestTimeout = 20 * time.Second

	// PingTTL is how long a successful Ping is reused before the backend
	// is asked again.
	PingTTL = 30 * time.Second

	// DefaultFallback is returned when no model produced any text.
	DefaultFallback = "I couldn't process that request at the moment."
)

var tracer = otel.Tracer("github.com/Conversly/whatsapp-assistant/internal/llm")

var errEmptyCompletion = errors.New("model returned empty text")

// Result is the outcome of a Generate call. FallbackUsed is true when Text is
// the fallback rather than model output.
type Result struct {
	Text             string
	Model            string
	Attempts         int
	FallbackUsed     bool
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// Generator is the best-effort text generation contract: it always returns
// some text and never an error.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...Option) Result
}

// Settings are the client-wide defaults, overridable per call with Options.
type Settings struct {
	Models         []string
	MaxTokens      int
	Temperature    float32
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	Fallback       string
}

func SettingsFromConfig(cfg config.LLMConfig) Settings {
	return Settings{
		Models:         cfg.Models,
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
		RequestTimeout: cfg.RequestTimeout,
	}
}

type callOptions struct {
	models      []string
	maxTokens   int
	temperature float32
	fallback    string
}

type Option func(*callOptions)

// WithModels replaces the candidate model list for one call.
func WithModels(models ...string) Option {
	return func(o *callOptions) {
		if len(models) > 0 {
			o.models = models
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(o *callOptions) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

func WithTemperature(t float32) Option {
	return func(o *callOptions) { o.temperature = t }
}

// WithFallback sets the text returned when every attempt fails.
func WithFallback(text string) Option {
	return func(o *callOptions) {
		if text != "" {
			o.fallback = text
		}
	}
}

// Client tries an ordered list of models, a fixed number of rounds, and
// returns the first non-empty answer. When nothing answers it returns the
// fallback text and flags the result.
type Client struct {
	backend  Backend
	settings Settings
	tokens   *TokenCounter

	pingMu   sync.Mutex
	lastPing time.Time
}

func NewClient(backend Backend, settings Settings) *Client {
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = DefaultMaxTokens
	}
	if settings.MaxRetries <= 0 {
		settings.MaxRetries = DefaultMaxRetries
	}
	if settings.RetryDelay < 0 {
		settings.RetryDelay = 0
	}
	if settings.RequestTimeout <= 0 {
		settings.RequestTimeout = DefaultRequestTimeout
	}
	if settings.Fallback == "" {
		settings.Fallback = DefaultFallback
	}
	return &Client{
		backend:  backend,
		settings: settings,
		tokens:   NewTokenCounter(),
	}
}

// Backend returns the provider strategy behind the client.
func (c *Client) Backend() Backend { return c.backend }

// Ping asks the first configured model for a single token. Unlike Generate
// it reports the backend error. A success is reused for PingTTL.
func (c *Client) Ping(ctx context.Context) error {
	c.pingMu.Lock()
	defer c.pingMu.Unlock()

	if !c.lastPing.IsZero() && time.Since(c.lastPing) < PingTTL {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.settings.RequestTimeout)
	defer cancel()

	var model string
	if len(c.settings.Models) > 0 {
		model = c.settings.Models[0]
	}
	if _, err := c.backend.Complete(ctx, CompletionRequest{
		Model:     model,
		Prompt:    "ping",
		MaxTokens: 1,
	}); err != nil {
		return fmt.Errorf("%s backend: %w", c.backend.Name(), err)
	}
	c.lastPing = time.Now()
	return nil
}

func (c *Client) Generate(ctx context.Context, prompt string, opts ...Option) (res Result) {
	start := time.Now()
	o := callOptions{
		models:      c.settings.Models,
		maxTokens:   c.settings.MaxTokens,
		temperature: c.settings.Temperature,
		fallback:    c.settings.Fallback,
	}
	for _, opt := range opts {
		opt(&o)
	}

	res = Result{
		Text:         o.fallback,
		FallbackUsed: true,
		PromptTokens: c.tokens.Count(prompt),
	}
	defer func() {
		if r := recover(); r != nil {
			utils.Zlog.Error("Text generation panicked", zap.Any("panic", r), zap.String("backend", c.backend.Name()))
			res.Text = o.fallback
			res.Model = ""
			res.FallbackUsed = true
			res.CompletionTokens = 0
		}
		res.Latency = time.Since(start)
	}()

	if strings.TrimSpace(prompt) == "" {
		utils.Zlog.Warn("Empty prompt, returning fallback")
		return res
	}

	var lastErr error
	for round := 0; round < c.settings.MaxRetries; round++ {
		for _, model := range o.models {
			if res.Attempts > 0 {
				if err := c.pause(ctx); err != nil {
					lastErr = err
					break
				}
			}
			res.Attempts++

			text, err := c.attempt(ctx, model, prompt, o)
			if err == nil {
				utils.Zlog.Debug("Text generated",
					zap.String("backend", c.backend.Name()),
					zap.String("model", model),
					zap.Int("attempt", res.Attempts),
					zap.Int("prompt_tokens", res.PromptTokens))
				res.Text = text
				res.Model = model
				res.FallbackUsed = false
				res.CompletionTokens = c.tokens.Count(text)
				return res
			}

			lastErr = err
			utils.Zlog.Warn("Model attempt failed",
				zap.String("backend", c.backend.Name()),
				zap.String("model", model),
				zap.Int("round", round+1),
				zap.Int("attempt", res.Attempts),
				zap.Error(err))
		}
		if ctx.Err() != nil {
			break
		}
	}

	utils.Zlog.Error("All model attempts failed, using fallback",
		zap.String("backend", c.backend.Name()),
		zap.Strings("models", o.models),
		zap.Int("attempts", res.Attempts),
		zap.Error(lastErr))
	return res
}

// attempt runs one bounded call and returns cleaned, non-empty text.
func (c *Client) attempt(ctx context.Context, model, prompt string, o callOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.RequestTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.backend", c.backend.Name()),
		attribute.String("llm.model", model),
		attribute.Int("llm.max_tokens", o.maxTokens),
	)

	raw, err := c.backend.Complete(ctx, CompletionRequest{
		Model:       model,
		Prompt:      prompt,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err == nil {
		if raw = Clean(raw); raw == "" {
			err = errEmptyCompletion
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("model %s: %w", model, err)
	}
	return raw, nil
}

func (c *Client) pause(ctx context.Context) error {
	if c.settings.RetryDelay == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.settings.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Clean trims whitespace and surrounding quote characters from model output.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)
	return strings.TrimSpace(text)
}
