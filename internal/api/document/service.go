package document

import (
	"context"
	"io"

	docs "github.com/Conversly/whatsapp-assistant/internal/document"
)

// Summarizer is implemented by *docs.Summarizer.
type Summarizer interface {
	SummarizePDF(ctx context.Context, r io.Reader, name string) (*docs.Summary, error)
	SummarizeURL(ctx context.Context, rawURL string) (*docs.Summary, error)
}

type Service struct {
	summarizer Summarizer
}

func NewService(summarizer Summarizer) *Service {
	return &Service{summarizer: summarizer}
}

func (s *Service) FromUpload(ctx context.Context, r io.Reader, name string) (*Response, error) {
	sum, err := s.summarizer.SummarizePDF(ctx, r, name)
	if err != nil {
		return nil, err
	}
	return toResponse(sum), nil
}

func (s *Service) FromURL(ctx context.Context, rawURL string) (*Response, error) {
	sum, err := s.summarizer.SummarizeURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return toResponse(sum), nil
}

func toResponse(sum *docs.Summary) *Response {
	return &Response{
		Source:     sum.Source,
		Summary:    sum.Summary,
		Chunks:     sum.Chunks,
		Characters: sum.Characters,
		Sections:   sum.Sections,
	}
}
