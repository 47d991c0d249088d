package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "ASSISTANT_"

// Supported LLM providers
const (
	ProviderGemini      = "gemini"
	ProviderGroq        = "groq"
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderEcho        = "echo"
)

type Config struct {
	LogLevel       string         `koanf:"log_level"`
	ServiceName    string         `koanf:"service_name"`
	ServiceVersion string         `koanf:"service_version"`
	Environment    string         `koanf:"environment"`
	ServerPort     string         `koanf:"server_port"`
	AllowedOrigins []string       `koanf:"allowed_origins"`
	LLM            LLMConfig      `koanf:"llm"`
	WhatsApp       WhatsAppConfig `koanf:"whatsapp"`
	OTel           OTelConfig     `koanf:"otel"`
}

// LLMConfig holds the text generation settings shared by every endpoint.
// Model lists are ordered by preference; the first model that answers wins.
type LLMConfig struct {
	Provider        string        `koanf:"provider"`
	APIKeys         []string      `koanf:"api_keys"`
	BaseURL         string        `koanf:"base_url"`
	Models          []string      `koanf:"models"`
	MarketingModels []string      `koanf:"marketing_models"`
	ChatModels      []string      `koanf:"chat_models"`
	MaxTokens       int           `koanf:"max_tokens"`
	Temperature     float32       `koanf:"temperature"`
	MaxRetries      int           `koanf:"max_retries"`
	RetryDelay      time.Duration `koanf:"retry_delay"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
}

type WhatsAppConfig struct {
	AccessToken     string        `koanf:"access_token"`
	PhoneNumberID   string        `koanf:"phone_number_id"`
	VerifyToken     string        `koanf:"verify_token"`
	AppSecret       string        `koanf:"app_secret"`
	GraphAPIBaseURL string        `koanf:"graph_api_base_url"`
	ProcessTimeout  time.Duration `koanf:"process_timeout"`
}

// Enabled reports whether the WhatsApp channel has enough credentials to reply.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != ""
}

type OTelConfig struct {
	Endpoint string `koanf:"endpoint"`
	Headers  string `koanf:"headers"`
}

func (o OTelConfig) Enabled() bool {
	return o.Endpoint != ""
}

var defaults = map[string]any{
	"log_level":           "info",
	"service_name":        "whatsapp-assistant",
	"service_version":     "dev",
	"environment":         "development",
	"server_port":         "8080",
	"allowed_origins":     []string{"*"},
	"llm.provider":        ProviderGemini,
	"llm.max_tokens":      150,
	"llm.temperature":     0.7,
	"llm.max_retries":     2,
	"llm.retry_delay":     "1s",
	"llm.request_timeout": "20s",

	"whatsapp.graph_api_base_url": "https://graph.facebook.com/v21.0",
	"whatsapp.process_timeout":    "60s",
}

// Default model preference lists per provider, used when none are configured.
var defaultModels = map[string][]string{
	ProviderGemini:      {"gemini-2.0-flash-lite", "gemini-2.0-flash"},
	ProviderGroq:        {"llama-3.1-8b-instant", "llama3-8b-8192"},
	ProviderHuggingFace: {"mistralai/Mistral-7B-Instruct-v0.3", "google/gemma-2-2b-it"},
	ProviderOpenAI:      {"gpt-4o-mini"},
	ProviderEcho:        {"echo"},
}

// Plain environment variables the service has always honoured. They win over
// the config file and the prefixed variables; later entries win over earlier ones.
var legacyEnv = [][2]string{
	{"PORT", "server_port"},
	{"SERVER_PORT", "server_port"},
	{"LOG_LEVEL", "log_level"},
	{"SERVICE_NAME", "service_name"},
	{"ENVIRONMENT", "environment"},
	{"ALLOWED_ORIGINS", "allowed_origins"},
	{"LLM_PROVIDER", "llm.provider"},
	{"WHATSAPP_ACCESS_TOKEN", "whatsapp.access_token"},
	{"WHATSAPP_PHONE_NUMBER_ID", "whatsapp.phone_number_id"},
	{"WHATSAPP_VERIFY_TOKEN", "whatsapp.verify_token"},
	{"WHATSAPP_APP_SECRET", "whatsapp.app_secret"},
	{"OTEL_EXPORTER_OTLP_ENDPOINT", "otel.endpoint"},
	{"OTEL_EXPORTER_OTLP_HEADERS", "otel.headers"},
}

// Credential variables per provider, checked when llm.api_keys is empty.
var credentialEnv = map[string][]string{
	ProviderGemini:      {"GEMINI_API_KEYS", "GOOGLE_API_KEY"},
	ProviderGroq:        {"GROQ_API_KEY"},
	ProviderHuggingFace: {"HUGGINGFACE_API_KEY", "HF_TOKEN"},
	ProviderOpenAI:      {"OPENAI_API_KEY"},
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// LoadConfig builds the configuration from defaults, an optional YAML file
// (CONFIG_FILE, default config.yaml), ASSISTANT_ prefixed variables and the
// legacy plain variables, in that order of precedence.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	for _, pair := range legacyEnv {
		if v := os.Getenv(pair[0]); v != "" {
			if err := k.Set(pair[1], v); err != nil {
				return nil, fmt.Errorf("setting %s: %w", pair[0], err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)
	cfg.LLM.Models = splitList(cfg.LLM.Models)
	cfg.LLM.MarketingModels = splitList(cfg.LLM.MarketingModels)
	cfg.LLM.ChatModels = splitList(cfg.LLM.ChatModels)

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.LLM.APIKeys = resolveKeys(cfg.LLM.APIKeys, cfg.LLM.Provider)
	if len(cfg.LLM.Models) == 0 {
		cfg.LLM.Models = defaultModels[cfg.LLM.Provider]
	}
	if len(cfg.LLM.MarketingModels) == 0 {
		cfg.LLM.MarketingModels = cfg.LLM.Models
	}
	if len(cfg.LLM.ChatModels) == 0 {
		cfg.LLM.ChatModels = cfg.LLM.Models
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that must stop the service from starting.
func (c *Config) Validate() error {
	if _, ok := defaultModels[c.LLM.Provider]; !ok {
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Provider != ProviderEcho && len(c.LLM.APIKeys) == 0 {
		names := strings.Join(credentialEnv[c.LLM.Provider], " or ")
		return fmt.Errorf("API key for provider %s is required (set %s)", c.LLM.Provider, names)
	}
	if len(c.LLM.Models) == 0 {
		return errors.New("llm.models must list at least one model")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.MaxRetries <= 0 {
		return fmt.Errorf("llm.max_retries must be positive, got %d", c.LLM.MaxRetries)
	}
	if c.LLM.RequestTimeout <= 0 {
		return errors.New("llm.request_timeout must be positive")
	}
	return nil
}

// resolveKeys substitutes ${VAR} placeholders and falls back to the
// provider's credential variables. Keys may be comma separated.
func resolveKeys(keys []string, provider string) []string {
	if len(keys) == 0 {
		for _, name := range credentialEnv[provider] {
			if v := os.Getenv(name); v != "" {
				keys = []string{v}
				break
			}
		}
	}

	expanded := make([]string, 0, len(keys))
	for _, key := range keys {
		expanded = append(expanded, envVarPattern.ReplaceAllStringFunc(key, func(match string) string {
			return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
		}))
	}
	return splitList(expanded)
}

// splitList flattens comma separated entries, as lists read from plain
// environment variables arrive as a single string.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
