package document_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Conversly/whatsapp-assistant/internal/api/document"
	docs "github.com/Conversly/whatsapp-assistant/internal/document"
)

type fakeSummarizer struct {
	pdfFn func(ctx context.Context, r io.Reader, name string) (*docs.Summary, error)
	urlFn func(ctx context.Context, rawURL string) (*docs.Summary, error)
}

func (f *fakeSummarizer) SummarizePDF(ctx context.Context, r io.Reader, name string) (*docs.Summary, error) {
	return f.pdfFn(ctx, r, name)
}

func (f *fakeSummarizer) SummarizeURL(ctx context.Context, rawURL string) (*docs.Summary, error) {
	return f.urlFn(ctx, rawURL)
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &out)).To(Succeed())
	return out
}

var _ = Describe("POST /summarize_pdf", func() {
	var (
		router *gin.Engine
		fake   *fakeSummarizer
	)

	BeforeEach(func() {
		fake = &fakeSummarizer{
			pdfFn: func(_ context.Context, r io.Reader, name string) (*docs.Summary, error) {
				b, err := io.ReadAll(r)
				Expect(err).NotTo(HaveOccurred())
				return &docs.Summary{Source: name, Summary: string(b) + docs.SummarySuffix, Characters: len(b), Chunks: 1}, nil
			},
			urlFn: func(_ context.Context, rawURL string) (*docs.Summary, error) {
				return &docs.Summary{Source: rawURL, Summary: "page" + docs.SummarySuffix, Characters: 4, Chunks: 1, Sections: []string{"Intro"}}, nil
			},
		}
		router = gin.New()
		document.RegisterRoutes(router, fake)
	})

	upload := func(field, name string, content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile(field, name)
		Expect(err).NotTo(HaveOccurred())
		_, err = fw.Write(content)
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/summarize_pdf", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	postJSON := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/summarize_pdf", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("summarizes an uploaded file", func() {
		w := upload("file", "brochure.pdf", []byte("spring catalogue"))

		Expect(w.Code).To(Equal(http.StatusOK))
		body := decode(w)
		Expect(body).To(HaveKeyWithValue("status", "success"))
		Expect(body).To(HaveKeyWithValue("source", "brochure.pdf"))
		Expect(body).To(HaveKeyWithValue("summary", "spring catalogue... (summary)"))
		Expect(body).To(HaveKeyWithValue("characters", float64(16)))
	})

	It("summarizes a URL", func() {
		w := postJSON(`{"url":"https://shop.example/guide.md"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		body := decode(w)
		Expect(body).To(HaveKeyWithValue("source", "https://shop.example/guide.md"))
		Expect(body["sections"]).To(Equal([]any{"Intro"}))
	})

	It("requires the file field in multipart uploads", func() {
		w := upload("attachment", "brochure.pdf", []byte("x"))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(w)).To(HaveKeyWithValue("error", "bad_request"))
	})

	It("requires a url in JSON bodies", func() {
		w := postJSON(`{}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps an invalid URL to 400", func() {
		fake.urlFn = func(context.Context, string) (*docs.Summary, error) {
			return nil, docs.ErrInvalidURL
		}

		w := postJSON(`{"url":"ftp://shop.example/file.pdf"}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	DescribeTable("maps extraction failures to 422",
		func(err error) {
			fake.pdfFn = func(context.Context, io.Reader, string) (*docs.Summary, error) {
				return nil, err
			}

			w := upload("file", "scan.pdf", []byte("%PDF"))

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(decode(w)).To(HaveKeyWithValue("error", "unprocessable_document"))
		},
		Entry("no text", docs.ErrNoText),
		Entry("parse failure", fmt.Errorf("failed to parse pdf: %w", errors.New("malformed xref"))),
	)
})
