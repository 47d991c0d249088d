package llm

import (
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates token usage with the cl100k_base encoding. Provider
// tokenizers differ, so the numbers are for logging and usage reporting only.
type TokenCounter struct {
	codec tokenizer.Codec
}

func NewTokenCounter() *TokenCounter {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{codec: codec}
}

// Count falls back to a whitespace word count when no codec is available.
func (t *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.codec == nil {
		return len(strings.Fields(text))
	}
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return len(strings.Fields(text))
	}
	return len(ids)
}
