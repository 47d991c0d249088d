package whatsapp

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/config"
	"github.com/Conversly/whatsapp-assistant/internal/types"
	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

const maxWebhookBody = 1 << 20

// Controller handles WhatsApp webhook requests
type Controller struct {
	cfg     config.WhatsAppConfig
	service *Service
}

func NewController(cfg config.WhatsAppConfig, service *Service) *Controller {
	return &Controller{cfg: cfg, service: service}
}

// VerifyWebhook answers Meta's subscription handshake.
// GET /whatsapp/webhook
func (c *Controller) VerifyWebhook(ctx *gin.Context) {
	mode := ctx.Query("hub.mode")
	token := ctx.Query("hub.verify_token")
	challenge := ctx.Query("hub.challenge")

	if mode == "subscribe" && c.cfg.VerifyToken != "" && token == c.cfg.VerifyToken {
		utils.Zlog.Info("WhatsApp webhook verified")
		ctx.String(http.StatusOK, challenge)
		return
	}

	utils.Zlog.Warn("WhatsApp webhook verification failed", zap.String("mode", mode))
	ctx.JSON(http.StatusForbidden, types.NewError("verification_failed", "verify token mismatch"))
}

// Webhook acknowledges incoming messages and answers them in the background.
// POST /whatsapp/webhook
func (c *Controller) Webhook(ctx *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBody))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, "failed to read body"))
		return
	}

	if c.cfg.AppSecret != "" {
		if err := VerifySignature(ctx.GetHeader(SignatureHeader), raw, c.cfg.AppSecret); err != nil {
			utils.Zlog.Warn("Rejected WhatsApp webhook", zap.Error(err))
			ctx.JSON(http.StatusUnauthorized, types.NewError("invalid_signature", err.Error()))
			return
		}
	}

	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		utils.Zlog.Error("Failed to parse WhatsApp webhook payload", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	var (
		inbound  []Inbound
		received int
	)
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			if len(value.Messages) == 0 {
				continue
			}
			if id := value.Metadata.PhoneNumberID; id != c.cfg.PhoneNumberID {
				utils.Zlog.Warn("WhatsApp phone number mismatch",
					zap.String("phone_number_id", id),
					zap.String("configured_phone_number_id", c.cfg.PhoneNumberID))
				ctx.JSON(http.StatusForbidden, gin.H{"error": "phone_number_mismatch"})
				return
			}
			inbound = append(inbound, textMessages(value)...)
			received += len(value.Messages)
		}
	}

	switch {
	case received == 0:
		ctx.JSON(http.StatusOK, gin.H{"status": "no_messages"})
		return
	case len(inbound) == 0:
		ctx.JSON(http.StatusOK, gin.H{"status": "unsupported_type"})
		return
	}

	// Meta expects a fast acknowledgement; replies go out afterwards.
	ctx.JSON(http.StatusOK, gin.H{"status": "received", "messages": len(inbound)})

	for _, msg := range inbound {
		utils.Zlog.Info("Received WhatsApp message",
			zap.String("from", msg.From),
			zap.String("user_name", msg.Name),
			zap.String("message_id", msg.MessageID))
		c.service.HandleAsync(msg)
	}
}

func textMessages(value Value) []Inbound {
	names := make(map[string]string, len(value.Contacts))
	for _, contact := range value.Contacts {
		names[contact.WaID] = contact.Profile.Name
	}

	var out []Inbound
	for _, m := range value.Messages {
		if m.Type != "text" || m.Text == nil {
			utils.Zlog.Debug("Ignoring non-text message", zap.String("message_type", m.Type))
			continue
		}
		out = append(out, Inbound{
			From:      m.From,
			MessageID: m.ID,
			Name:      names[m.From],
			Text:      m.Text.Body,
		})
	}
	return out
}
