package marketing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/llm"
	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

// Campaign types understood by the generator.
const (
	CampaignPromotion    = "promotion"
	CampaignAnnouncement = "announcement"
	CampaignReminder     = "reminder"
)

const (
	DefaultVariations = 2
	MaxTokens         = 150
	Temperature       = 0.8

	defaultProduct  = "our products"
	productNameSize = 20
)

// FallbackTemplates are used when no model produced copy; {product} is
// replaced with a short product name.
var FallbackTemplates = []string{
	"🔥 Special offer! {product} now available at amazing prices! Reply INFO to learn more! #LimitedTimeOffer",
	"✨ Don't miss out on our {product}! Exclusive deals for our WhatsApp customers! Reply YES for details.",
	"👋 Hey there! We've got exciting news about {product}! Check it out now and save big! Reply for details.",
	"⚡ FLASH SALE on {product}! Get yours before they're gone! Reply NOW to claim your discount!",
}

var emphasisPoints = map[string][]string{
	CampaignPromotion:    {"price", "limited time", "exclusive deal", "value proposition"},
	CampaignAnnouncement: {"new features", "launch date", "benefits", "excitement"},
	CampaignReminder:     {"deadline", "benefits", "simple process", "friendly reminder"},
}

// Copy is one generated marketing message.
type Copy struct {
	Text         string `json:"text"`
	Emphasis     string `json:"emphasis,omitempty"`
	Model        string `json:"model,omitempty"`
	FallbackUsed bool   `json:"fallback_used"`
}

// Generator writes short WhatsApp marketing messages.
type Generator struct {
	gen    llm.Generator
	models []string

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithModels sets the ordered model list used for marketing copy.
func WithModels(models ...string) Option {
	return func(g *Generator) { g.models = models }
}

// WithRand fixes the source used to pick fallback templates.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rnd = r }
}

func NewGenerator(gen llm.Generator, opts ...Option) *Generator {
	g := &Generator{
		gen: gen,
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateMessage writes one campaign message for productInfo.
func (g *Generator) CreateMessage(ctx context.Context, productInfo, campaign string) Copy {
	return g.generate(ctx, messagePrompt(productInfo, campaign), productInfo, "")
}

// CreateVariations writes up to n A/B test variations, each stressing a
// different point of the campaign.
func (g *Generator) CreateVariations(ctx context.Context, productInfo, campaign string, n int) []Copy {
	points, ok := emphasisPoints[campaign]
	if !ok {
		points = emphasisPoints[CampaignPromotion]
	}
	n = min(n, len(points))

	variations := make([]Copy, 0, max(n, 0))
	for i := 0; i < n; i++ {
		prompt := fmt.Sprintf(`
Create a short WhatsApp marketing message for %s.
Campaign type: %s
Emphasize: %s

The message should be brief, include emojis, and have a clear call-to-action.
`, productInfo, campaign, points[i])
		variations = append(variations, g.generate(ctx, prompt, productInfo, points[i]))
	}
	return variations
}

func (g *Generator) generate(ctx context.Context, prompt, productInfo, emphasis string) Copy {
	opts := []llm.Option{
		llm.WithMaxTokens(MaxTokens),
		llm.WithTemperature(Temperature),
		llm.WithFallback(g.fallback(productInfo)),
	}
	if len(g.models) > 0 {
		opts = append(opts, llm.WithModels(g.models...))
	}

	res := g.gen.Generate(ctx, prompt, opts...)
	if res.FallbackUsed {
		utils.Zlog.Warn("Marketing copy fell back to template", zap.String("emphasis", emphasis))
	}
	return Copy{
		Text:         res.Text,
		Emphasis:     emphasis,
		Model:        res.Model,
		FallbackUsed: res.FallbackUsed,
	}
}

// fallback picks a template and names the product by its first characters.
func (g *Generator) fallback(productInfo string) string {
	product := defaultProduct
	if p := strings.TrimSpace(productInfo); p != "" {
		if r := []rune(p); len(r) > productNameSize {
			p = string(r[:productNameSize])
		}
		product = p
	}

	g.mu.Lock()
	idx := g.rnd.IntN(len(FallbackTemplates))
	g.mu.Unlock()

	return strings.ReplaceAll(FallbackTemplates[idx], "{product}", product)
}

func messagePrompt(productInfo, campaign string) string {
	switch campaign {
	case CampaignPromotion:
		return fmt.Sprintf(`
Create a short, engaging WhatsApp marketing message for the following product promotion:
Product: %s

The message should:
- Be brief (under 280 characters)
- Include emojis
- Have a clear call-to-action
- Create urgency
- Be friendly and exciting
`, productInfo)
	case CampaignAnnouncement:
		return fmt.Sprintf(`
Create a short, engaging WhatsApp announcement message for:
Product/Service: %s

The message should:
- Be brief (under 280 characters)
- Include emojis
- Build excitement
- Have a clear next step for customers
- Sound professional but friendly
`, productInfo)
	default:
		return fmt.Sprintf(`
Create a short, friendly WhatsApp reminder message about:
%s

The message should:
- Be brief (under 280 characters)
- Include emojis
- Gently encourage action
- Be helpful and not pushy
- Include a simple call-to-action
`, productInfo)
	}
}

// FormatResponse lays out the message and its variations as plain text.
func FormatResponse(message Copy, variations []Copy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generated Marketing Message:\n%s\n\n", message.Text)
	b.WriteString("A/B Test Variations:\n")
	for i, v := range variations {
		fmt.Fprintf(&b, "Variation %d:\n%s\n\n", i+1, v.Text)
	}
	return b.String()
}
