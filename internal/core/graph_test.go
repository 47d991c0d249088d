package core_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Conversly/whatsapp-assistant/internal/core"
	"github.com/Conversly/whatsapp-assistant/internal/llm"
)

// recordingGenerator records prompts and answers through generateFn.
type recordingGenerator struct {
	mu         sync.Mutex
	prompts    []string
	generateFn func(prompt string) llm.Result
}

func (g *recordingGenerator) Generate(_ context.Context, prompt string, _ ...llm.Option) llm.Result {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.generateFn != nil {
		return g.generateFn(prompt)
	}
	return llm.Result{Text: "out(" + prompt + ")"}
}

type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }

func (failingBackend) Complete(context.Context, llm.CompletionRequest) (string, error) {
	return "", errors.New("connection refused")
}

type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, string, ...llm.Option) llm.Result {
	panic("generator exploded")
}

func newExecutor(gen llm.Generator) *core.Executor {
	exec, err := core.NewExecutor(context.Background(), gen)
	Expect(err).NotTo(HaveOccurred())
	return exec
}

func echoClient() *llm.Client {
	return llm.NewClient(llm.NewEchoBackend(), llm.Settings{
		Models:         []string{"echo"},
		MaxRetries:     1,
		RequestTimeout: time.Second,
	})
}

var _ = Describe("Executor", func() {
	It("runs extract, enrich and format in order, feeding each stage the previous output", func() {
		gen := &recordingGenerator{
			generateFn: func(prompt string) llm.Result {
				switch {
				case strings.HasPrefix(prompt, "Extract key meaning from:"):
					return llm.Result{Text: "MEANING"}
				case strings.HasPrefix(prompt, "If this contains a famous name"):
					return llm.Result{Text: "BIO"}
				default:
					return llm.Result{Text: "REPLY"}
				}
			},
		}

		res, err := newExecutor(gen).Run(context.Background(), "I am a big fan of Marie Curie")

		Expect(err).NotTo(HaveOccurred())
		Expect(gen.prompts).To(HaveLen(3))
		Expect(gen.prompts[0]).To(Equal("Extract key meaning from: I am a big fan of Marie Curie"))
		Expect(gen.prompts[1]).To(Equal("If this contains a famous name, provide a brief bio, otherwise say 'no bio needed': MEANING"))
		Expect(gen.prompts[2]).To(Equal("Generate a friendly response using this context: Message: MEANING\nWiki info: BIO"))

		Expect(res.Response).To(Equal("REPLY"))
		Expect(res.Degraded).To(BeFalse())
		Expect(res.State).To(Equal(core.MessageState{
			Message:          "I am a big fan of Marie Curie",
			ProcessedMessage: "MEANING",
			WikiInfo:         "BIO",
			FinalResponse:    "REPLY",
		}))
	})

	It("keeps the input traceable through all three stages with an echoing model", func() {
		res, err := newExecutor(echoClient()).Run(context.Background(), "hello")

		Expect(err).NotTo(HaveOccurred())
		Expect(res.State.ProcessedMessage).To(Equal("Extract key meaning from: hello"))
		Expect(res.State.WikiInfo).To(ContainSubstring("Extract key meaning from: hello"))
		Expect(res.Response).To(HavePrefix("Generate a friendly response using this context:"))
		Expect(strings.Count(res.Response, "hello")).To(Equal(2))
		Expect(res.Degraded).To(BeFalse())
	})

	It("writes every stage's fallback when the model always fails", func() {
		client := llm.NewClient(failingBackend{}, llm.Settings{
			Models:         []string{"a", "b"},
			MaxRetries:     2,
			RequestTimeout: time.Second,
		})

		res, err := newExecutor(client).Run(context.Background(), "I need new shoes")

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Response).To(Equal(core.FallbackFinalResponse))
		Expect(res.State.ProcessedMessage).To(Equal(core.FallbackProcessedMessage))
		Expect(res.State.WikiInfo).To(Equal(core.FallbackWikiInfo))
		Expect(res.Degraded).To(BeTrue())
		Expect(res.State.Fallbacks).To(Equal(core.StageOrder))
	})

	It("degrades only the stage whose call failed", func() {
		gen := &recordingGenerator{
			generateFn: func(prompt string) llm.Result {
				if strings.HasPrefix(prompt, "If this contains a famous name") {
					return llm.Result{Text: "whatever the client chose", FallbackUsed: true}
				}
				return llm.Result{Text: "fine"}
			},
		}

		res, err := newExecutor(gen).Run(context.Background(), "hi")

		Expect(err).NotTo(HaveOccurred())
		Expect(res.State.WikiInfo).To(Equal(core.FallbackWikiInfo))
		Expect(res.State.Fallbacks).To(Equal([]string{core.NodeEnrich}))
		Expect(gen.prompts[2]).To(ContainSubstring("Wiki info: " + core.FallbackWikiInfo))
		Expect(res.Response).To(Equal("fine"))
	})

	It("survives a panicking generator", func() {
		res, err := newExecutor(panicGenerator{}).Run(context.Background(), "hi")

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Response).To(Equal(core.FallbackFinalResponse))
		Expect(res.Degraded).To(BeTrue())
	})

	It("rejects an empty message", func() {
		gen := &recordingGenerator{}

		_, err := newExecutor(gen).Run(context.Background(), "  \n ")

		Expect(err).To(MatchError(core.ErrEmptyMessage))
		Expect(gen.prompts).To(BeEmpty())
	})

	It("always returns a non-empty response for non-empty input", func() {
		gen := &recordingGenerator{
			generateFn: func(string) llm.Result { return llm.Result{Text: "   "} },
		}
		exec := newExecutor(gen)

		for _, msg := range []string{"a", "hello world", "I am a big fan of Marie Curie", "🔥"} {
			res, err := exec.Run(context.Background(), msg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Response).NotTo(BeEmpty())
		}
	})

	It("keeps concurrent runs isolated", func() {
		exec := newExecutor(echoClient())

		var wg sync.WaitGroup
		results := make([]*core.Result, 20)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer GinkgoRecover()
				res, err := exec.Run(context.Background(), fmt.Sprintf("message-%02d", i))
				Expect(err).NotTo(HaveOccurred())
				results[i] = res
			}(i)
		}
		wg.Wait()

		for i, res := range results {
			own := fmt.Sprintf("message-%02d", i)
			Expect(res.State.Message).To(Equal(own))
			Expect(res.Response).To(ContainSubstring(own))
			for j := range results {
				if j != i {
					Expect(res.Response).NotTo(ContainSubstring(fmt.Sprintf("message-%02d", j)))
				}
			}
		}
	})
})

var _ = Describe("RunStage", func() {
	It("writes only its own field", func() {
		gen := &recordingGenerator{generateFn: func(string) llm.Result { return llm.Result{Text: "bio"} }}
		in := core.MessageState{Message: "m", ProcessedMessage: "p"}

		out, err := core.RunStage(context.Background(), gen, core.NodeEnrich, in)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(core.MessageState{Message: "m", ProcessedMessage: "p", WikiInfo: "bio"}))
		Expect(in.WikiInfo).To(BeEmpty())
	})

	It("rejects an unknown stage", func() {
		_, err := core.RunStage(context.Background(), &recordingGenerator{}, "summarize", core.MessageState{})
		Expect(err).To(MatchError(core.ErrUnknownStage))
	})
})
