package marketing

import (
	"context"

	copywriter "github.com/Conversly/whatsapp-assistant/internal/marketing"
)

type Service struct {
	gen *copywriter.Generator
}

func NewService(gen *copywriter.Generator) *Service {
	return &Service{gen: gen}
}

// Generate writes the main message and its A/B variations.
func (s *Service) Generate(ctx context.Context, req *Request) *Response {
	campaign := req.CampaignType
	if campaign == "" {
		campaign = copywriter.CampaignPromotion
	}
	n := copywriter.DefaultVariations
	if req.Variations != nil {
		n = *req.Variations
	}

	message := s.gen.CreateMessage(ctx, req.ProductInfo, campaign)
	variations := s.gen.CreateVariations(ctx, req.ProductInfo, campaign, n)

	res := &Response{
		MarketingMessage:  message.Text,
		ABVariations:      make([]string, 0, len(variations)),
		FormattedResponse: copywriter.FormatResponse(message, variations),
		Degraded:          message.FallbackUsed,
		Details:           append([]copywriter.Copy{message}, variations...),
	}
	for _, v := range variations {
		res.ABVariations = append(res.ABVariations, v.Text)
		res.Degraded = res.Degraded || v.FallbackUsed
	}
	return res
}
