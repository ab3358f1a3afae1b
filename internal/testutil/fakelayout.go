package testutil

import (
	"context"

	"github.com/jarvis-brain/core/internal/intentservice"
)

// FakeDocReader is a scripted DocReader.
type FakeDocReader struct {
	Title   string
	Excerpt string
	Err     error
}

func (f *FakeDocReader) FetchDoc(_ context.Context, _ string) (*intentservice.DocSummary, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &intentservice.DocSummary{Title: f.Title, Excerpt: f.Excerpt}, nil
}

// FakeLayoutPipeline is a scripted LayoutPipeline.
type FakeLayoutPipeline struct {
	Result *intentservice.DisplayResult
	Err    error
}

func (f *FakeLayoutPipeline) Process(_ context.Context, _ intentservice.DisplayRequest) (*intentservice.DisplayResult, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}
