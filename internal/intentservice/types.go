// Package intentservice dispatches a parsed intent.Intent to its handler
// and produces a uniform result envelope, grounded on spec §4.E.
package intentservice

import "context"

// IntentResult is what every handler returns.
type IntentResult struct {
	OK              bool
	Message         string // internal/debug message
	UserVisibleText string
	CommandSent     bool
	CommandID       string
	Debug           map[string]any
}

// DocReader is the narrow read-only contract the DocQuery handler calls
// into. Doc CRUD is out of scope (spec §5 Non-goals); this interface exists
// so the handler compiles against a real contract instead of `any`,
// grounded on app/services/doc_intelligence_service.py.
type DocReader interface {
	FetchDoc(ctx context.Context, url string) (*DocSummary, error)
}

// DocSummary is the narrow read result from a DocReader.
type DocSummary struct {
	Title   string
	Excerpt string
}

// LayoutPipeline is the component J contract the DisplayContent handler
// invokes.
type LayoutPipeline interface {
	Process(ctx context.Context, req DisplayRequest) (*DisplayResult, error)
}

// DisplayRequest carries what the DisplayContent intent asked for.
type DisplayRequest struct {
	UserRequest string
	InfoType    string
	Title       string
	Data        map[string]any
}

// DisplayResult is the HTML + score the pipeline produced.
type DisplayResult struct {
	HTML       string
	FinalScore float64
	Success    bool
}

// DeviceSender is the outbound device-dispatch contract, implemented by
// devicehub.HubSender (an adapter over *devicehub.Hub) in production and a
// fake in tests.
type DeviceSender interface {
	Send(ctx context.Context, deviceID, commandType string, parameters map[string]any) (ok bool, commandID string, err error)
}
