package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MaxTextLength is the Cloud API limit for a text message body.
const MaxTextLength = 4096

var ErrNoMessageID = errors.New("no message ID returned from Meta API")

// GraphClient sends messages through the WhatsApp Cloud API.
type GraphClient struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	http          *http.Client
}

func NewGraphClient(baseURL, phoneNumberID, accessToken string) *GraphClient {
	return &GraphClient{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SendText replies to "to", quoting replyTo when it is set, and returns the
// id Meta assigned to the sent message.
func (g *GraphClient) SendText(ctx context.Context, to, body, replyTo string) (string, error) {
	if r := []rune(body); len(r) > MaxTextLength {
		body = string(r[:MaxTextLength])
	}

	reqBody := sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             sendText{Body: body},
	}
	if replyTo != "" {
		reqBody.Context = &sendContext{MessageID: replyTo}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", g.baseURL, g.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("meta API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var msgResp sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(msgResp.Messages) == 0 {
		return "", ErrNoMessageID
	}
	return msgResp.Messages[0].ID, nil
}
