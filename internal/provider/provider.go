// Package provider defines the uniform abstraction over the LLM back-ends
// the core talks to, grounded on the teacher's OpenAI-backed node executors
// (internal/application/executor/node_executors.go) and on the original
// Python AIProvider base class.
package provider

import "context"

// Kind names one of the three fixed provider tiers the router chooses among.
type Kind string

const (
	KindCheap    Kind = "cheap"
	KindCoder    Kind = "coder"
	KindReasoner Kind = "reasoner"
)

// Request is the uniform input to every Provider method.
type Request struct {
	SystemPrompt string
	Prompt       string
	Temperature  float64
	MaxTokens    int

	// ImageURL is set only for CompleteWithVision calls; it is sent as an
	// image_url content part alongside Prompt.
	ImageURL string

	// UseSearch is set only for CompleteWithGrounding calls.
	UseSearch bool
}

// TokenUsage mirrors the original's TokenUsage dataclass.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the uniform output of every Provider method. Exactly one of
// OK or Error is meaningful: a failed call still returns a *Response (never
// just an error) so callers can record latency/provider/model uniformly,
// matching the original's _create_error_response.
type Response struct {
	Content    string
	Provider   Kind
	Model      string
	Usage      TokenUsage
	LatencyMS  float64
	OK         bool
	Error      string
	Metadata   map[string]any
}

// Provider is the interface every back-end adapter implements.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	CompleteJSON(ctx context.Context, req Request) (*Response, error)
	CompleteWithVision(ctx context.Context, req Request) (*Response, error)
	CompleteWithGrounding(ctx context.Context, req Request) (*Response, error)
	HealthCheck(ctx context.Context) bool
	Kind() Kind
}

// NewOKResponse builds a successful Response, grounded on the original's
// AIResponse.to_dict success path.
func NewOKResponse(kind Kind, model, content string, usage TokenUsage, latencyMS float64) *Response {
	return &Response{
		Content:   content,
		Provider:  kind,
		Model:     model,
		Usage:     usage,
		LatencyMS: latencyMS,
		OK:        true,
		Metadata:  map[string]any{},
	}
}

// NewErrorResponse builds a failed Response, grounded on the original's
// _create_error_response.
func NewErrorResponse(kind Kind, model string, latencyMS float64, err error) *Response {
	return &Response{
		Provider:  kind,
		Model:     model,
		LatencyMS: latencyMS,
		OK:        false,
		Error:     err.Error(),
		Metadata:  map[string]any{},
	}
}
