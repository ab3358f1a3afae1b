package intentservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jarvis-brain/core/internal/intent"
)

// DeviceDirectory lists the known devices available for name resolution, a
// narrow seam over whatever owns the device registry (config, a DB row set,
// or the devicehub's connected clients).
type DeviceDirectory interface {
	DeviceNames(ctx context.Context) []string
}

// Service dispatches a parsed intent.Intent to the handler for its Type,
// grounded on app/ai/intent/parser.py's _create_intent dispatch but
// reshaped as a pure func-per-type table since Go has no match-on-type over
// a closed enum the way the original's if/elif chain does.
type Service struct {
	logger  *slog.Logger
	devices DeviceDirectory
	sender  DeviceSender
	docs    DocReader
	layout  LayoutPipeline
}

// New builds a Service. docs and layout may be nil when those intent types
// are not wired in a given deployment; the handlers report OK=false rather
// than panicking.
func New(logger *slog.Logger, devices DeviceDirectory, sender DeviceSender, docs DocReader, layout LayoutPipeline) *Service {
	return &Service{logger: logger, devices: devices, sender: sender, docs: docs, layout: layout}
}

// Handle dispatches in by its Type and returns the uniform result envelope.
func (s *Service) Handle(ctx context.Context, in *intent.Intent) IntentResult {
	if in == nil || in.IsUnknown() {
		return IntentResult{OK: false, UserVisibleText: "I didn't understand that."}
	}

	switch in.Type {
	case intent.TypeDeviceCommand:
		return s.handleDeviceCommand(ctx, in)
	case intent.TypeDeviceQuery:
		return s.handleDeviceQuery(ctx, in)
	case intent.TypeSystemQuery:
		return s.handleSystemQuery(ctx, in)
	case intent.TypeCalendarQuery:
		return s.handleCalendarQuery(ctx, in)
	case intent.TypeCalendarCreate:
		return s.handleCalendarCreate(ctx, in)
	case intent.TypeCalendarEdit:
		return s.handleCalendarEdit(ctx, in)
	case intent.TypeDocQuery:
		return s.handleDocQuery(ctx, in)
	case intent.TypeDisplayContent:
		return s.handleDisplayContent(ctx, in)
	case intent.TypeConversation:
		return s.handleConversation(ctx, in)
	default:
		return IntentResult{OK: false, UserVisibleText: "I didn't understand that."}
	}
}

func (s *Service) resolveDevice(ctx context.Context, name string) (string, IntentResult, bool) {
	var names []string
	if s.devices != nil {
		names = s.devices.DeviceNames(ctx)
	}
	matched, ok, ambiguous := ResolveDevice(name, names)
	if ambiguous {
		return "", IntentResult{OK: false, UserVisibleText: fmt.Sprintf("I found more than one device matching %q — which one did you mean?", name)}, false
	}
	if !ok {
		return "", IntentResult{OK: false, UserVisibleText: fmt.Sprintf("I couldn't find a device called %q.", name)}, false
	}
	return matched, IntentResult{}, true
}

func (s *Service) handleDeviceCommand(ctx context.Context, in *intent.Intent) IntentResult {
	cmd := in.DeviceCommand
	if cmd == nil {
		return IntentResult{OK: false, UserVisibleText: "Missing device command details."}
	}
	deviceID, failure, ok := s.resolveDevice(ctx, cmd.DeviceName)
	if !ok {
		return failure
	}
	if s.sender == nil {
		return IntentResult{OK: false, UserVisibleText: "Device dispatch isn't available right now."}
	}
	sent, commandID, err := s.sender.Send(ctx, deviceID, string(cmd.Action), cmd.Parameters)
	if err != nil {
		s.logger.Error("device command dispatch failed", "device_id", deviceID, "action", cmd.Action, "err", err)
		return IntentResult{OK: false, CommandID: commandID, UserVisibleText: "I couldn't reach that device."}
	}
	if !sent {
		return IntentResult{OK: false, CommandID: commandID, UserVisibleText: fmt.Sprintf("%s appears to be offline.", deviceID)}
	}
	return IntentResult{OK: true, CommandSent: true, CommandID: commandID, UserVisibleText: fmt.Sprintf("Done — %s on %s.", cmd.Action, deviceID)}
}

func (s *Service) handleDeviceQuery(ctx context.Context, in *intent.Intent) IntentResult {
	q := in.DeviceQuery
	if q == nil {
		return IntentResult{OK: false, UserVisibleText: "Missing device query details."}
	}
	deviceID, failure, ok := s.resolveDevice(ctx, q.DeviceName)
	if !ok {
		return failure
	}
	if s.sender == nil {
		return IntentResult{OK: false, UserVisibleText: "Device status isn't available right now."}
	}
	sent, commandID, err := s.sender.Send(ctx, deviceID, string(q.Action), nil)
	if err != nil || !sent {
		return IntentResult{OK: false, CommandID: commandID, UserVisibleText: fmt.Sprintf("%s appears to be offline.", deviceID)}
	}
	return IntentResult{OK: true, CommandSent: true, CommandID: commandID, UserVisibleText: fmt.Sprintf("Checked %s.", deviceID)}
}

func (s *Service) handleSystemQuery(_ context.Context, in *intent.Intent) IntentResult {
	q := in.SystemQuery
	if q == nil {
		return IntentResult{OK: false, UserVisibleText: "Not sure what you're asking."}
	}
	switch q.Action {
	case intent.ActionHelp:
		return IntentResult{OK: true, UserVisibleText: "I can control your devices, check your calendar, and show content on screens."}
	case intent.ActionListDevices:
		return IntentResult{OK: true, UserVisibleText: "Let me check which devices are available."}
	default:
		return IntentResult{OK: true, UserVisibleText: "Here's what I know."}
	}
}

func (s *Service) handleCalendarQuery(_ context.Context, in *intent.Intent) IntentResult {
	if in.CalendarQuery == nil {
		return IntentResult{OK: false, UserVisibleText: "Missing calendar query details."}
	}
	return IntentResult{OK: true, UserVisibleText: "Calendar lookups aren't wired to a calendar backend in this deployment."}
}

func (s *Service) handleCalendarCreate(_ context.Context, in *intent.Intent) IntentResult {
	if in.CalendarCreate == nil {
		return IntentResult{OK: false, UserVisibleText: "Missing event details."}
	}
	return IntentResult{OK: true, UserVisibleText: fmt.Sprintf("I'd create %q, but no calendar backend is wired in this deployment.", in.CalendarCreate.Title)}
}

func (s *Service) handleCalendarEdit(_ context.Context, in *intent.Intent) IntentResult {
	if in.CalendarEdit == nil {
		return IntentResult{OK: false, UserVisibleText: "Missing edit details."}
	}
	return IntentResult{OK: true, UserVisibleText: "Calendar edits aren't wired to a calendar backend in this deployment."}
}

func (s *Service) handleDocQuery(ctx context.Context, in *intent.Intent) IntentResult {
	q := in.DocQuery
	if q == nil {
		return IntentResult{OK: false, UserVisibleText: "Missing document details."}
	}
	if s.docs == nil {
		return IntentResult{OK: false, UserVisibleText: "Document reading isn't available right now."}
	}
	summary, err := s.docs.FetchDoc(ctx, q.URL)
	if err != nil {
		s.logger.Error("doc fetch failed", "url", q.URL, "err", err)
		return IntentResult{OK: false, UserVisibleText: "I couldn't read that document."}
	}
	return IntentResult{OK: true, UserVisibleText: fmt.Sprintf("%s: %s", summary.Title, summary.Excerpt)}
}

func (s *Service) handleDisplayContent(ctx context.Context, in *intent.Intent) IntentResult {
	d := in.DisplayContent
	if d == nil {
		return IntentResult{OK: false, UserVisibleText: "Missing display request details."}
	}
	if s.layout == nil {
		return IntentResult{OK: false, UserVisibleText: "Content generation isn't available right now."}
	}
	result, err := s.layout.Process(ctx, DisplayRequest{
		UserRequest: in.OriginalText,
		InfoType:    d.InfoType,
		Title:       d.Title,
		Data:        d.Data,
	})
	if err != nil {
		s.logger.Error("layout generation failed", "err", err)
		return IntentResult{OK: false, UserVisibleText: "I couldn't put that together."}
	}
	debug := map[string]any{"final_score": result.FinalScore}
	if d.DeviceName == "" {
		return IntentResult{OK: result.Success, UserVisibleText: "Here's what I came up with.", Debug: debug}
	}
	deviceID, failure, ok := s.resolveDevice(ctx, d.DeviceName)
	if !ok {
		return failure
	}
	if s.sender == nil {
		return IntentResult{OK: false, UserVisibleText: "Device dispatch isn't available right now."}
	}
	sent, commandID, err := s.sender.Send(ctx, deviceID, "display_content", map[string]any{"html": result.HTML})
	if err != nil || !sent {
		return IntentResult{OK: false, CommandID: commandID, UserVisibleText: fmt.Sprintf("%s appears to be offline.", deviceID), Debug: debug}
	}
	return IntentResult{OK: true, CommandSent: true, CommandID: commandID, UserVisibleText: fmt.Sprintf("Showing it on %s.", deviceID), Debug: debug}
}

func (s *Service) handleConversation(_ context.Context, in *intent.Intent) IntentResult {
	action := intent.ActionUnspecified
	if in.Conversation != nil {
		action = in.Conversation.Action
	}
	switch action {
	case intent.ActionGreeting:
		return IntentResult{OK: true, UserVisibleText: "Hello."}
	case intent.ActionThanks:
		return IntentResult{OK: true, UserVisibleText: "You're welcome."}
	default:
		return IntentResult{OK: true, UserVisibleText: "Got it."}
	}
}
