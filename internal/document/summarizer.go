package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/loader/url"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/markdown"
	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	einodoc "github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

const (
	DefaultDownloadTimeout = 5 * time.Minute
	MaxDocumentSize        = 100 * 1024 * 1024 // 100MB

	SummaryLength = 1000
	SummarySuffix = "... (summary)"

	chunkSize    = 1000
	chunkOverlap = 100
)

var (
	ErrNoText     = errors.New("no text could be extracted from the document")
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")
)

// Summary describes an extracted document.
type Summary struct {
	Source     string   `json:"source"`
	Summary    string   `json:"summary"`
	Characters int      `json:"characters"`
	Chunks     int      `json:"chunks"`
	Sections   []string `json:"sections,omitempty"`
}

// Summarizer extracts text from PDFs, markdown and HTML pages and returns
// its opening as a summary.
type Summarizer struct {
	pdfParser      parser.Parser
	pdfLoader      einodoc.Loader
	markdownLoader einodoc.Loader
	htmlLoader     einodoc.Loader
	splitter       einodoc.Transformer
	headers        einodoc.Transformer
}

// NewSummarizer wires the parsers, loaders and splitters. A nil client gets
// one with DefaultDownloadTimeout.
func NewSummarizer(ctx context.Context, client *http.Client) (*Summarizer, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultDownloadTimeout}
	}

	pdfParser, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf parser: %w", err)
	}

	pdfLoader, err := url.NewLoader(ctx, &url.LoaderConfig{Parser: pdfParser, Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf loader: %w", err)
	}
	markdownLoader, err := url.NewLoader(ctx, &url.LoaderConfig{Parser: &parser.TextParser{}, Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown loader: %w", err)
	}
	// nil parser selects the loader's HTML parser
	htmlLoader, err := url.NewLoader(ctx, &url.LoaderConfig{Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create html loader: %w", err)
	}

	splitter, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:   chunkSize,
		OverlapSize: chunkOverlap,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create splitter: %w", err)
	}

	headers, err := markdown.NewHeaderSplitter(ctx, &markdown.HeaderConfig{
		Headers: map[string]string{
			"#":  "h1",
			"##": "h2",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown splitter: %w", err)
	}

	return &Summarizer{
		pdfParser:      pdfParser,
		pdfLoader:      pdfLoader,
		markdownLoader: markdownLoader,
		htmlLoader:     htmlLoader,
		splitter:       splitter,
		headers:        headers,
	}, nil
}

// SummarizePDF extracts the text of an uploaded PDF.
func (s *Summarizer) SummarizePDF(ctx context.Context, r io.Reader, name string) (*Summary, error) {
	docs, err := s.pdfParser.Parse(ctx, io.LimitReader(r, MaxDocumentSize), parser.WithURI(name))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf: %w", err)
	}
	return s.summarize(ctx, name, docs, nil)
}

// SummarizeURL fetches a document and picks the parser from the URL's
// extension: .pdf, .md/.markdown, anything else is treated as HTML.
func (s *Summarizer) SummarizeURL(ctx context.Context, rawURL string) (*Summary, error) {
	u, err := neturl.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}

	loader := s.htmlLoader
	var sections einodoc.Transformer
	switch path.Ext(strings.ToLower(u.Path)) {
	case ".pdf":
		loader = s.pdfLoader
	case ".md", ".markdown":
		loader = s.markdownLoader
		sections = s.headers
	}

	utils.Zlog.Info("Loading document", zap.String("url", rawURL))

	docs, err := loader.Load(ctx, einodoc.Source{URI: rawURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return s.summarize(ctx, rawURL, docs, sections)
}

func (s *Summarizer) summarize(ctx context.Context, source string, docs []*schema.Document, sections einodoc.Transformer) (*Summary, error) {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		if c := strings.TrimSpace(d.Content); c != "" {
			parts = append(parts, c)
		}
	}
	text := strings.Join(parts, "\n")
	if text == "" {
		return nil, ErrNoText
	}

	chunks, err := s.splitter.Transform(ctx, []*schema.Document{{ID: source, Content: text}})
	if err != nil {
		return nil, fmt.Errorf("failed to split document: %w", err)
	}

	runes := []rune(text)
	head := runes
	if len(head) > SummaryLength {
		head = head[:SummaryLength]
	}

	summary := &Summary{
		Source:     source,
		Summary:    string(head) + SummarySuffix,
		Characters: len(runes),
		Chunks:     len(chunks),
	}

	if sections != nil {
		headed, err := sections.Transform(ctx, []*schema.Document{{ID: source, Content: text}})
		if err != nil {
			utils.Zlog.Warn("Failed to split markdown sections", zap.String("source", source), zap.Error(err))
		} else {
			summary.Sections = headings(headed)
		}
	}

	utils.Zlog.Info("Document summarized",
		zap.String("source", source),
		zap.Int("characters", summary.Characters),
		zap.Int("chunks", summary.Chunks))

	return summary, nil
}

// headings collects the distinct h1/h2 values the header splitter stored in
// chunk metadata, in document order.
func headings(docs []*schema.Document) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range docs {
		for _, key := range []string{"h1", "h2"} {
			v, ok := d.MetaData[key].(string)
			if !ok || v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
