package document

import "github.com/Conversly/whatsapp-assistant/internal/types"

// URLRequest is the JSON form of /summarize_pdf; uploads use the multipart
// "file" field instead.
type URLRequest struct {
	URL string `json:"url" binding:"required"`
}

type Response struct {
	types.BaseResponse
	Source     string   `json:"source"`
	Summary    string   `json:"summary"`
	Chunks     int      `json:"chunks"`
	Characters int      `json:"characters"`
	Sections   []string `json:"sections,omitempty"`
}
