package marketing

import (
	copywriter "github.com/Conversly/whatsapp-assistant/internal/marketing"
	"github.com/Conversly/whatsapp-assistant/internal/types"
)

// Request is the body of /generate_marketing. CampaignType defaults to
// promotion and Variations to two.
type Request struct {
	ProductInfo  string `json:"product_info"`
	CampaignType string `json:"campaign_type"`
	Variations   *int   `json:"variations" binding:"omitempty,min=0,max=10"`
}

type Response struct {
	types.BaseResponse
	MarketingMessage  string            `json:"marketing_message"`
	ABVariations      []string          `json:"ab_variations"`
	FormattedResponse string            `json:"formatted_response"`
	Degraded          bool              `json:"degraded"`
	Details           []copywriter.Copy `json:"details"`
}
