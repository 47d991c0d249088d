package channels

import (
	"context"

	"github.com/Conversly/whatsapp-assistant/internal/core"
)

// Pipeline runs the extract, enrich and format stages on one message. It is
// shared by the HTTP assistant endpoints and the messaging channels.
type Pipeline interface {
	Run(ctx context.Context, message string) (*core.Result, error)
}
