// Package monitoring is the Monitor component (spec §2.B): a structured
// event log plus in-memory metrics aggregation, adapted from the teacher's
// workflow/node-oriented monitoring package onto the request/response/
// intent/routing/command/error event kinds this domain emits.
package monitoring

import "time"

// EventType enumerates the kinds of structured event the Monitor records.
type EventType string

const (
	EventRequest  EventType = "request"
	EventResponse EventType = "response"
	EventIntent   EventType = "intent"
	EventRouting  EventType = "routing"
	EventCommand  EventType = "command"
	EventError    EventType = "error"
)

// LogLevel mirrors the teacher's severity levels.
type LogLevel string

const (
	LevelDebug   LogLevel = "debug"
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// LogEvent is a single structured event, keyed by provider/request/intent
// fields instead of the teacher's workflow/node fields.
type LogEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`

	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`

	Provider string        `json:"provider,omitempty"`
	Model    string        `json:"model,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`

	IntentType string `json:"intent_type,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
	CommandID  string `json:"command_id,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`

	Fields map[string]any `json:"fields,omitempty"`
}

// NewRequestEvent records an incoming process() call.
func NewRequestEvent(requestID, userID, text string) *LogEvent {
	return &LogEvent{
		Timestamp: time.Now(),
		Type:      EventRequest,
		Level:     LevelInfo,
		Message:   "request received",
		RequestID: requestID,
		UserID:    userID,
		Fields:    map[string]any{"text": text},
	}
}

// NewResponseEvent records a provider completion, successful or not.
func NewResponseEvent(requestID, providerKind, model string, duration time.Duration, ok bool, errMsg string) *LogEvent {
	level := LevelInfo
	if !ok {
		level = LevelError
	}
	return &LogEvent{
		Timestamp:    time.Now(),
		Type:         EventResponse,
		Level:        level,
		Message:      "provider response",
		RequestID:    requestID,
		Provider:     providerKind,
		Model:        model,
		Duration:     duration,
		ErrorMessage: errMsg,
	}
}

// NewIntentEvent records a parsed intent.
func NewIntentEvent(requestID, intentType string, confidence float64) *LogEvent {
	return &LogEvent{
		Timestamp:  time.Now(),
		Type:       EventIntent,
		Level:      LevelInfo,
		Message:    "intent parsed",
		RequestID:  requestID,
		IntentType: intentType,
		Fields:     map[string]any{"confidence": confidence},
	}
}

// NewRoutingEvent records a routing decision.
func NewRoutingEvent(requestID, complexity, targetProvider string, confidence float64) *LogEvent {
	return &LogEvent{
		Timestamp: time.Now(),
		Type:      EventRouting,
		Level:     LevelInfo,
		Message:   "routing decision",
		RequestID: requestID,
		Provider:  targetProvider,
		Fields:    map[string]any{"complexity": complexity, "confidence": confidence},
	}
}

// NewCommandEvent records a device command dispatch.
func NewCommandEvent(requestID, deviceID, commandID string, ok bool) *LogEvent {
	level := LevelInfo
	if !ok {
		level = LevelWarning
	}
	return &LogEvent{
		Timestamp: time.Now(),
		Type:      EventCommand,
		Level:     level,
		Message:   "device command dispatched",
		RequestID: requestID,
		DeviceID:  deviceID,
		CommandID: commandID,
	}
}

// NewErrorEvent records a general failure not already covered by a response
// or command event.
func NewErrorEvent(requestID, message string, err error) *LogEvent {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return &LogEvent{
		Timestamp:    time.Now(),
		Type:         EventError,
		Level:        LevelError,
		Message:      message,
		RequestID:    requestID,
		ErrorMessage: errMsg,
	}
}
