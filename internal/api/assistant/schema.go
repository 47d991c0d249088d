package assistant

import "github.com/Conversly/whatsapp-assistant/internal/types"

// Request is the body of /process_message and /chat.
type Request struct {
	Message string `json:"message" binding:"required"`
}

type ProcessResponse struct {
	types.BaseResponse
	Response       string   `json:"response"`
	Degraded       bool     `json:"degraded"`
	FallbackStages []string `json:"fallback_stages,omitempty"`
}

type ChatResponse struct {
	types.BaseResponse
	Response string      `json:"response"`
	Degraded bool        `json:"degraded"`
	Usage    types.Usage `json:"usage"`
}
