package types

import (
	"time"

	"github.com/Conversly/whatsapp-assistant/internal/llm"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// BaseResponse is embedded in every successful JSON body.
type BaseResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// Success returns a BaseResponse tagged with the request id.
func Success(requestID string) BaseResponse {
	return BaseResponse{Status: StatusSuccess, RequestID: requestID}
}

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Status    string    `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewError(code, message string) ErrorResponse {
	return ErrorResponse{
		Status:    StatusError,
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Error codes
const (
	ErrBadRequest    = "bad_request"
	ErrInternal      = "internal_error"
	ErrUnprocessable = "unprocessable_document"
	ErrNotFound      = "not_found"
)

type Usage struct {
	Model            string `json:"model,omitempty"`
	Attempts         int    `json:"attempts"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	LatencyMS        int64  `json:"latency_ms"`
}

func UsageFrom(res llm.Result) Usage {
	return Usage{
		Model:            res.Model,
		Attempts:         res.Attempts,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		TotalTokens:      res.PromptTokens + res.CompletionTokens,
		LatencyMS:        res.Latency.Milliseconds(),
	}
}
