package core

import "errors"

// Node names of the message graph, in execution order.
const (
	NodeExtract = "extract"
	NodeEnrich  = "enrich"
	NodeFormat  = "format"
)

// StageOrder is the only path through the message graph.
var StageOrder = []string{NodeExtract, NodeEnrich, NodeFormat}

// Text written by a stage when its model call produced nothing usable.
const (
	FallbackProcessedMessage = "Extracted content from user message."
	FallbackWikiInfo         = "No additional information needed."
	FallbackFinalResponse    = "Thanks for your message! I've processed your request."
)

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrUnknownStage   = errors.New("unknown stage")
	ErrPipelineFailed = errors.New("message pipeline failed")
)

// MessageState is threaded through the graph. Each field after Message is
// written by exactly one stage and is empty until that stage runs.
type MessageState struct {
	Message          string
	ProcessedMessage string // extract
	WikiInfo         string // enrich
	FinalResponse    string // format

	// Fallbacks lists, in order, the stages that wrote their fallback text.
	Fallbacks []string
}

// Result is what callers get back from Executor.Run.
type Result struct {
	Response string
	State    MessageState
	Degraded bool
}
