package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Conversly/whatsapp-assistant/internal/config"
)

// setEnv sets (or, for an empty value, unsets) a variable for the current test.
func setEnv(name, value string) {
	old, had := os.LookupEnv(name)
	if value == "" {
		Expect(os.Unsetenv(name)).To(Succeed())
	} else {
		Expect(os.Setenv(name, value)).To(Succeed())
	}
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(name, old)
		} else {
			_ = os.Unsetenv(name)
		}
	})
}

var _ = Describe("LoadConfig", func() {
	BeforeEach(func() {
		for _, name := range []string{
			"PORT", "SERVER_PORT", "LOG_LEVEL", "ENVIRONMENT", "ALLOWED_ORIGINS", "LLM_PROVIDER",
			"GEMINI_API_KEYS", "GOOGLE_API_KEY", "GROQ_API_KEY", "HUGGINGFACE_API_KEY", "HF_TOKEN", "OPENAI_API_KEY",
			"WHATSAPP_ACCESS_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_VERIFY_TOKEN", "WHATSAPP_APP_SECRET",
			"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_HEADERS",
			"ASSISTANT_LLM__MAX_TOKENS", "ASSISTANT_LLM__MODELS",
		} {
			setEnv(name, "")
		}
		setEnv("CONFIG_FILE", filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
	})

	It("applies defaults for the gemini provider", func() {
		setEnv("GOOGLE_API_KEY", "g-key")

		cfg, err := config.LoadConfig()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.ServerPort).To(Equal("8080"))
		Expect(cfg.AllowedOrigins).To(Equal([]string{"*"}))
		Expect(cfg.LLM.Provider).To(Equal(config.ProviderGemini))
		Expect(cfg.LLM.APIKeys).To(Equal([]string{"g-key"}))
		Expect(cfg.LLM.Models).To(Equal([]string{"gemini-2.0-flash-lite", "gemini-2.0-flash"}))
		Expect(cfg.LLM.MarketingModels).To(Equal(cfg.LLM.Models))
		Expect(cfg.LLM.ChatModels).To(Equal(cfg.LLM.Models))
		Expect(cfg.LLM.MaxTokens).To(Equal(150))
		Expect(cfg.LLM.Temperature).To(BeNumerically("~", 0.7, 0.001))
		Expect(cfg.LLM.MaxRetries).To(Equal(2))
		Expect(cfg.LLM.RetryDelay).To(Equal(time.Second))
		Expect(cfg.LLM.RequestTimeout).To(Equal(20 * time.Second))
		Expect(cfg.WhatsApp.GraphAPIBaseURL).To(Equal("https://graph.facebook.com/v21.0"))
		Expect(cfg.WhatsApp.Enabled()).To(BeFalse())
		Expect(cfg.OTel.Enabled()).To(BeFalse())
	})

	It("splits comma separated keys and lists from plain variables", func() {
		setEnv("GEMINI_API_KEYS", "k1, k2,,k3")
		setEnv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
		setEnv("PORT", "9000")

		cfg, err := config.LoadConfig()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.APIKeys).To(Equal([]string{"k1", "k2", "k3"}))
		Expect(cfg.AllowedOrigins).To(Equal([]string{"https://a.example", "https://b.example"}))
		Expect(cfg.ServerPort).To(Equal("9000"))
	})

	It("lets SERVER_PORT win over PORT", func() {
		setEnv("LLM_PROVIDER", "echo")
		setEnv("PORT", "9000")
		setEnv("SERVER_PORT", "9100")

		cfg, err := config.LoadConfig()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.ServerPort).To(Equal("9100"))
	})

	It("reads prefixed nested variables", func() {
		setEnv("LLM_PROVIDER", "Echo")
		setEnv("ASSISTANT_LLM__MAX_TOKENS", "300")
		setEnv("ASSISTANT_LLM__MODELS", "first,second")

		cfg, err := config.LoadConfig()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal(config.ProviderEcho))
		Expect(cfg.LLM.MaxTokens).To(Equal(300))
		Expect(cfg.LLM.Models).To(Equal([]string{"first", "second"}))
	})

	It("loads a YAML file and substitutes key placeholders", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte(`
llm:
  provider: groq
  api_keys: ["${TEST_GROQ_SECRET}"]
  models: [llama-3.1-8b-instant]
  marketing_models: [llama3-8b-8192]
  retry_delay: 250ms
whatsapp:
  access_token: token
  phone_number_id: "12345"
  verify_token: verify
`), 0o600)).To(Succeed())
		setEnv("CONFIG_FILE", path)
		setEnv("TEST_GROQ_SECRET", "gsk_live")

		cfg, err := config.LoadConfig()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal(config.ProviderGroq))
		Expect(cfg.LLM.APIKeys).To(Equal([]string{"gsk_live"}))
		Expect(cfg.LLM.MarketingModels).To(Equal([]string{"llama3-8b-8192"}))
		Expect(cfg.LLM.ChatModels).To(Equal([]string{"llama-3.1-8b-instant"}))
		Expect(cfg.LLM.RetryDelay).To(Equal(250 * time.Millisecond))
		Expect(cfg.WhatsApp.Enabled()).To(BeTrue())
		Expect(cfg.WhatsApp.PhoneNumberID).To(Equal("12345"))
	})

	It("prefers plain variables over the file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte("llm:\n  provider: openai\n"), 0o600)).To(Succeed())
		setEnv("CONFIG_FILE", path)
		setEnv("LLM_PROVIDER", "echo")

		cfg, err := config.LoadConfig()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal(config.ProviderEcho))
	})

	DescribeTable("reports a missing credential",
		func(provider, hint string) {
			setEnv("LLM_PROVIDER", provider)

			_, err := config.LoadConfig()

			Expect(err).To(MatchError(ContainSubstring(hint)))
		},
		Entry("gemini", "gemini", "GEMINI_API_KEYS or GOOGLE_API_KEY"),
		Entry("groq", "groq", "GROQ_API_KEY"),
		Entry("huggingface", "huggingface", "HUGGINGFACE_API_KEY or HF_TOKEN"),
		Entry("openai", "openai", "OPENAI_API_KEY"),
	)

	It("rejects an unknown provider", func() {
		setEnv("LLM_PROVIDER", "anthropic-ish")

		_, err := config.LoadConfig()

		Expect(err).To(MatchError(ContainSubstring(`unknown llm provider "anthropic-ish"`)))
	})

	It("rejects an unreadable config file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte("llm: [unclosed"), 0o600)).To(Succeed())
		setEnv("CONFIG_FILE", path)
		setEnv("LLM_PROVIDER", "echo")

		_, err := config.LoadConfig()

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Validate", func() {
	valid := func() *config.Config {
		return &config.Config{LLM: config.LLMConfig{
			Provider:       config.ProviderEcho,
			Models:         []string{"echo"},
			MaxTokens:      150,
			MaxRetries:     2,
			RequestTimeout: time.Second,
		}}
	}

	It("accepts a complete echo configuration", func() {
		Expect(valid().Validate()).To(Succeed())
	})

	DescribeTable("rejects invalid numbers and lists",
		func(mutate func(*config.Config), message string) {
			cfg := valid()
			mutate(cfg)
			Expect(cfg.Validate()).To(MatchError(ContainSubstring(message)))
		},
		Entry("no models", func(c *config.Config) { c.LLM.Models = nil }, "llm.models"),
		Entry("zero max tokens", func(c *config.Config) { c.LLM.MaxTokens = 0 }, "llm.max_tokens"),
		Entry("zero retries", func(c *config.Config) { c.LLM.MaxRetries = 0 }, "llm.max_retries"),
		Entry("zero timeout", func(c *config.Config) { c.LLM.RequestTimeout = 0 }, "llm.request_timeout"),
	)
})
