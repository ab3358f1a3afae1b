package monitoring

import (
	"time"

	"github.com/rs/zerolog"
)

// Monitor is the single unified collaborator every component logs and
// records metrics through. The original Python source's split between a
// legacy AILogger and a legacy AIMetrics (spec §9 Open Question) is
// resolved here exactly as spec.md directs: only this unified type exists.
// Any call site that would have reached for the legacy split instead calls
// one of the facade methods below.
type Monitor struct {
	console *ConsoleLogger
	metrics *MetricsCollector
}

// New builds a Monitor with a bounded console log (capacity events) backed
// by zl, and an in-memory metrics collector.
func New(zl zerolog.Logger, capacity int) *Monitor {
	return &Monitor{
		console: NewConsoleLogger(ConsoleLoggerConfig{Logger: zl, Capacity: capacity}),
		metrics: NewMetricsCollector(),
	}
}

// LogRequest is the legacy-AILogger-equivalent facade for an incoming request.
func (m *Monitor) LogRequest(requestID, userID, text string) {
	m.console.Log(NewRequestEvent(requestID, userID, text))
}

// LogResponse is the legacy-AILogger/AIMetrics-equivalent facade for a
// completed provider call: it both logs the event and records the metric.
func (m *Monitor) LogResponse(requestID, providerKind, model string, duration time.Duration, ok bool, errMsg string, promptTokens, completionTokens int) {
	m.console.Log(NewResponseEvent(requestID, providerKind, model, duration, ok, errMsg))
	m.metrics.RecordRequest(providerKind, duration, ok, promptTokens, completionTokens)
}

// LogIntent logs a parsed intent.
func (m *Monitor) LogIntent(requestID, intentType string, confidence float64) {
	m.console.Log(NewIntentEvent(requestID, intentType, confidence))
}

// LogRouting logs a routing decision.
func (m *Monitor) LogRouting(requestID, complexity, targetProvider string, confidence float64) {
	m.console.Log(NewRoutingEvent(requestID, complexity, targetProvider, confidence))
}

// LogCommand logs a device command dispatch.
func (m *Monitor) LogCommand(requestID, deviceID, commandID string, ok bool) {
	m.console.Log(NewCommandEvent(requestID, deviceID, commandID, ok))
}

// LogError logs a general failure.
func (m *Monitor) LogError(requestID, message string, err error) {
	m.console.Log(NewErrorEvent(requestID, message, err))
}

// History returns the retained event ring buffer, oldest first.
func (m *Monitor) History() []*LogEvent {
	return m.console.History()
}

// MetricsSummary returns a snapshot of every provider's metrics.
func (m *Monitor) MetricsSummary() *MetricsSummary {
	return m.metrics.Summary()
}
