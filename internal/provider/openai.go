package provider

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rs/zerolog/log"
)

// openAIProvider adapts an OpenAI-compatible chat-completions endpoint to
// the Provider interface. One instance is created per tier (cheap, coder,
// reasoner) each pointed at its own model/base URL, grounded on the
// teacher's one-client-per-executor pattern
// (NewOpenAICompletionExecutorWithMetrics).
type openAIProvider struct {
	kind    Kind
	model   string
	client  *openai.Client
}

// NewOpenAIProvider builds a Provider backed by an OpenAI-compatible API.
func NewOpenAIProvider(kind Kind, apiKey, baseURL, model string) Provider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIProvider{
		kind:   kind,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (p *openAIProvider) Kind() Kind { return p.kind }

func (p *openAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	return p.chat(ctx, req, false)
}

func (p *openAIProvider) CompleteJSON(ctx context.Context, req Request) (*Response, error) {
	return p.chat(ctx, req, true)
}

// CompleteWithVision sends the prompt alongside an image_url content part.
func (p *openAIProvider) CompleteWithVision(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if req.ImageURL == "" {
		return NewErrorResponse(p.kind, p.model, 0, ErrInvalidResponse), nil
	}

	messages := p.buildMessages(req)
	last := len(messages) - 1
	content := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
		{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: req.ImageURL}},
	}
	messages[last] = openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: content,
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		log.Debug().Err(err).Str("provider", string(p.kind)).Msg("vision completion failed")
		return NewErrorResponse(p.kind, p.model, latency, classifyError(err)), nil
	}
	return p.toResponse(resp, latency), nil
}

// CompleteWithGrounding is a thin variant of Complete that records a
// UseSearch intent in Metadata; the pack's OpenAI-compatible client has no
// native search-grounding mode, so this degrades to a plain completion with
// the search flag surfaced for callers/tests, matching spec §4.A's
// grounded-search variant shape.
func (p *openAIProvider) CompleteWithGrounding(ctx context.Context, req Request) (*Response, error) {
	resp, err := p.chat(ctx, req, false)
	if resp != nil {
		if resp.Metadata == nil {
			resp.Metadata = map[string]any{}
		}
		resp.Metadata["used_search"] = req.UseSearch
		resp.Metadata["sources"] = []string{}
	}
	return resp, err
}

func (p *openAIProvider) HealthCheck(ctx context.Context) bool {
	resp, err := p.Complete(ctx, Request{Prompt: "ok", MaxTokens: 4})
	return err == nil && resp != nil && resp.OK
}

func (p *openAIProvider) chat(ctx context.Context, req Request, jsonMode bool) (*Response, error) {
	start := time.Now()
	messages := p.buildMessages(req)

	ccr := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
	}
	if req.MaxTokens > 0 {
		ccr.MaxTokens = req.MaxTokens
	}
	if jsonMode {
		ccr.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := p.client.CreateChatCompletion(ctx, ccr)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		log.Debug().Err(err).Str("provider", string(p.kind)).Str("model", p.model).Msg("completion failed")
		return NewErrorResponse(p.kind, p.model, latency, classifyError(err)), nil
	}
	return p.toResponse(resp, latency), nil
}

func (p *openAIProvider) buildMessages(req Request) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})
	return messages
}

func (p *openAIProvider) toResponse(resp openai.ChatCompletionResponse, latencyMS float64) *Response {
	if len(resp.Choices) == 0 {
		return NewErrorResponse(p.kind, p.model, latencyMS, ErrInvalidResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	usage := TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	r := NewOKResponse(p.kind, p.model, content, usage, latencyMS)
	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		r.Metadata["truncated"] = true
	}
	return r
}

// classifyError maps a go-openai error to the provider error taxonomy.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401"):
		return ErrMissingKey
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return ErrQuota
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "connection") || strings.Contains(msg, "network"):
		return ErrNetwork
	default:
		return ErrInvalidResponse
	}
}
