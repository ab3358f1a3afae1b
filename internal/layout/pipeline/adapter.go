package pipeline

import (
	"context"
	"errors"

	"github.com/jarvis-brain/core/internal/intentservice"
)

// ServiceAdapter adapts Pipeline's (Result, no error) return shape to the
// (*intentservice.DisplayResult, error) contract intentservice.LayoutPipeline
// expects, the same narrowing the devicehub package does for its own
// Send/sendCommand signature mismatch.
type ServiceAdapter struct {
	Pipeline *Pipeline
}

// NewServiceAdapter wraps p so it satisfies intentservice.LayoutPipeline.
func NewServiceAdapter(p *Pipeline) ServiceAdapter {
	return ServiceAdapter{Pipeline: p}
}

// Process runs the pipeline and translates a generation/validation failure
// into an error, since intentservice.Service branches on err rather than on
// a Success flag.
func (a ServiceAdapter) Process(ctx context.Context, req intentservice.DisplayRequest) (*intentservice.DisplayResult, error) {
	result := a.Pipeline.Process(ctx, Request{
		UserRequest: req.UserRequest,
		InfoType:    req.InfoType,
		Title:       req.Title,
		Data:        req.Data,
	})

	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "layout generation produced no usable HTML"
		}
		return nil, errors.New(msg)
	}

	return &intentservice.DisplayResult{
		HTML:       result.HTML,
		FinalScore: result.FinalScore,
		Success:    result.Success,
	}, nil
}
