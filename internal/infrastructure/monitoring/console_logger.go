package monitoring

import (
	"sync"

	"github.com/rs/zerolog"
)

// ConsoleLogger emits every LogEvent through zerolog and keeps a bounded,
// oldest-first-evicting ring buffer of the most recent events, adapted from
// the teacher's ConsoleLogger (which appended unboundedly) to the §5
// fixed-capacity history requirement.
type ConsoleLogger struct {
	zl       zerolog.Logger
	capacity int

	mu      sync.Mutex
	history []*LogEvent
	next    int
	filled  bool
}

// ConsoleLoggerConfig configures the console logger.
type ConsoleLoggerConfig struct {
	Logger   zerolog.Logger
	Capacity int // default 1000, per spec §5
}

// NewConsoleLogger creates a new ConsoleLogger.
func NewConsoleLogger(cfg ConsoleLoggerConfig) *ConsoleLogger {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1000
	}
	return &ConsoleLogger{
		zl:       cfg.Logger,
		capacity: capacity,
		history:  make([]*LogEvent, capacity),
	}
}

// Log appends event to the ring buffer and emits it through zerolog.
func (l *ConsoleLogger) Log(event *LogEvent) {
	l.record(event)
	l.emit(event)
}

func (l *ConsoleLogger) record(event *LogEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history[l.next] = event
	l.next = (l.next + 1) % l.capacity
	if l.next == 0 {
		l.filled = true
	}
}

func (l *ConsoleLogger) emit(event *LogEvent) {
	var ev *zerolog.Event
	switch event.Level {
	case LevelDebug:
		ev = l.zl.Debug()
	case LevelWarning:
		ev = l.zl.Warn()
	case LevelError:
		ev = l.zl.Error()
	default:
		ev = l.zl.Info()
	}

	ev = ev.Str("type", string(event.Type)).
		Str("request_id", event.RequestID)
	if event.Provider != "" {
		ev = ev.Str("provider", event.Provider)
	}
	if event.Model != "" {
		ev = ev.Str("model", event.Model)
	}
	if event.IntentType != "" {
		ev = ev.Str("intent_type", event.IntentType)
	}
	if event.DeviceID != "" {
		ev = ev.Str("device_id", event.DeviceID)
	}
	if event.Duration > 0 {
		ev = ev.Dur("duration", event.Duration)
	}
	if event.ErrorMessage != "" {
		ev = ev.Str("error", event.ErrorMessage)
	}
	ev.Msg(event.Message)
}

// History returns the events currently retained, oldest first.
func (l *ConsoleLogger) History() []*LogEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.filled {
		out := make([]*LogEvent, l.next)
		copy(out, l.history[:l.next])
		return out
	}

	out := make([]*LogEvent, 0, l.capacity)
	out = append(out, l.history[l.next:]...)
	out = append(out, l.history[:l.next]...)
	return out
}
