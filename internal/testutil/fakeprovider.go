// Package testutil holds fake collaborators used across package tests,
// grounded on the teacher's own testutil pattern: a fake behind the real
// interface, never a mock framework.
package testutil

import (
	"context"

	"github.com/jarvis-brain/core/internal/provider"
)

// FakeProvider is a scripted Provider: each call pops the next queued
// response (or repeats the last one once the queue is empty), and every
// call is recorded for assertions.
type FakeProvider struct {
	KindValue provider.Kind
	Responses []*provider.Response
	Errors    []error
	calls     int

	Requests []provider.Request
}

// NewFakeProvider builds a FakeProvider that always returns resp.
func NewFakeProvider(kind provider.Kind, resp *provider.Response) *FakeProvider {
	return &FakeProvider{KindValue: kind, Responses: []*provider.Response{resp}}
}

func (f *FakeProvider) next() (*provider.Response, error) {
	idx := f.calls
	f.calls++
	var resp *provider.Response
	var err error
	if len(f.Responses) > 0 {
		if idx < len(f.Responses) {
			resp = f.Responses[idx]
		} else {
			resp = f.Responses[len(f.Responses)-1]
		}
	}
	if len(f.Errors) > 0 {
		if idx < len(f.Errors) {
			err = f.Errors[idx]
		}
	}
	return resp, err
}

func (f *FakeProvider) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	f.Requests = append(f.Requests, req)
	return f.next()
}

func (f *FakeProvider) CompleteJSON(ctx context.Context, req provider.Request) (*provider.Response, error) {
	return f.Complete(ctx, req)
}

func (f *FakeProvider) CompleteWithVision(ctx context.Context, req provider.Request) (*provider.Response, error) {
	return f.Complete(ctx, req)
}

func (f *FakeProvider) CompleteWithGrounding(ctx context.Context, req provider.Request) (*provider.Response, error) {
	return f.Complete(ctx, req)
}

func (f *FakeProvider) HealthCheck(ctx context.Context) bool { return true }

func (f *FakeProvider) Kind() provider.Kind { return f.KindValue }

// CallCount returns how many completion calls have been made.
func (f *FakeProvider) CallCount() int { return f.calls }
