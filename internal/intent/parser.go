package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jarvis-brain/core/internal/provider"
)

const systemPrompt = "Extract a structured intent from the user's request. Respond with JSON: " +
	"{intent_type, confidence, reasoning, device_name, action, parameters, title, data, url, query, field, value}."

// Parser turns raw text into an Intent by calling the cheap provider,
// grounded on IntentParser.parse.
type Parser struct {
	provider provider.Provider
	repair   *provider.JSONRepairLoop
	now      func() time.Time
}

// New builds a Parser backed by p. repair may be nil to disable the
// self-repair fallback for malformed JSON.
func New(p provider.Provider, repair *provider.JSONRepairLoop) *Parser {
	return &Parser{provider: p, repair: repair, now: time.Now}
}

// Parse extracts an Intent from text, falling back to TypeUnknown on any
// provider or parse failure — it never returns an error, matching the
// original's _create_unknown_intent fallback.
func (p *Parser) Parse(ctx context.Context, text string, reqContext map[string]any) *Intent {
	prompt := buildPrompt(text, reqContext)

	resp, err := p.provider.CompleteJSON(ctx, provider.Request{
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
		Temperature:  0.0,
	})
	if err != nil || resp == nil || !resp.OK {
		return p.unknown(text, "provider call failed")
	}

	fields, parseErr := p.parseFields(ctx, resp.Content)
	if parseErr != nil {
		return p.unknown(text, parseErr.Error())
	}

	return p.fromFields(fields, text)
}

func (p *Parser) parseFields(ctx context.Context, raw string) (map[string]any, error) {
	var fields map[string]any
	cleaned := provider.CleanMarkdownWrapper(raw)
	if err := json.Unmarshal([]byte(cleaned), &fields); err == nil {
		return fields, nil
	}
	if p.repair == nil {
		return nil, fmt.Errorf("malformed intent json")
	}
	return p.repair.Repair(ctx, raw, p.provider)
}

func (p *Parser) fromFields(data map[string]any, originalText string) *Intent {
	typ := Type(strings.ToLower(str(data["intent_type"])))
	confidence := asFloat(data["confidence"], 0.5)
	reasoning := str(data["reasoning"])

	base := &Intent{
		Type:         typ,
		Confidence:   confidence,
		OriginalText: originalText,
		Reasoning:    reasoning,
		CreatedAt:    p.now(),
	}

	switch typ {
	case TypeDeviceCommand:
		base.DeviceCommand = &DeviceCommand{
			DeviceName: str(data["device_name"]),
			Action:     mapAction(str(data["action"])),
			Parameters: asMap(data["parameters"]),
		}
	case TypeDeviceQuery:
		base.DeviceQuery = &DeviceQuery{
			DeviceName: str(data["device_name"]),
			Action:     mapAction(strOrDefault(data["action"], "status")),
		}
	case TypeSystemQuery:
		base.SystemQuery = &SystemQuery{
			Action:     mapAction(strOrDefault(data["action"], "help")),
			Parameters: asMap(data["parameters"]),
		}
	case TypeCalendarQuery:
		base.CalendarQuery = &CalendarQuery{
			Action:    mapAction(str(data["action"])),
			DateRange: ResolveDateRange(str(data["date_range"]), p.now()),
			Query:     str(data["query"]),
		}
	case TypeCalendarCreate:
		base.CalendarCreate = &CalendarCreate{
			Title: str(data["title"]),
		}
	case TypeCalendarEdit:
		field, value, bareValue := InferEditField(str(data["field"]), str(data["value"]))
		base.CalendarEdit = &CalendarEdit{
			Selector:  ParseSelector(str(data["selector"])),
			Field:     field,
			Value:     value,
			BareValue: bareValue,
		}
	case TypeDocQuery:
		base.DocQuery = &DocQuery{
			URL:   str(data["url"]),
			Query: str(data["query"]),
		}
	case TypeDisplayContent:
		base.DisplayContent = &DisplayContent{
			DeviceName: str(data["device_name"]),
			InfoType:   strOrDefault(data["info_type"], "custom"),
			Title:      str(data["title"]),
			Data:       asMap(data["data"]),
		}
	case TypeConversation:
		var action Action
		if a := str(data["action"]); a != "" {
			action = mapAction(a)
		}
		base.Conversation = &Conversation{Action: action}
	default:
		base.Type = TypeUnknown
		if base.Reasoning == "" {
			base.Reasoning = fmt.Sprintf("unknown intent type: %s", typ)
		}
	}

	return base
}

func (p *Parser) unknown(text, reason string) *Intent {
	return &Intent{
		Type:         TypeUnknown,
		Confidence:   0,
		OriginalText: text,
		Reasoning:    fmt.Sprintf("failed to parse: %s", reason),
		CreatedAt:    p.now(),
	}
}

func buildPrompt(text string, reqContext map[string]any) string {
	var b strings.Builder
	b.WriteString(text)
	if reqContext != nil {
		if devices, ok := reqContext["devices"].([]string); ok && len(devices) > 0 {
			b.WriteString("\n\nAvailable devices: ")
			b.WriteString(strings.Join(devices, ", "))
		}
	}
	return b.String()
}

// actionMap mirrors the original's _map_action dict in full.
var actionMap = map[string]Action{
	"power_on": ActionPowerOn, "power_off": ActionPowerOff,
	"set_input": ActionSetInput,
	"volume_up": ActionVolumeUp, "volume_down": ActionVolumeDown, "volume_set": ActionVolumeSet,
	"mute": ActionMute, "unmute": ActionUnmute,
	"show_content": ActionShowContent, "show_calendar": ActionShowCalendar, "clear_content": ActionClearContent,
	"status": ActionStatus, "capabilities": ActionCapabilities, "is_online": ActionIsOnline,
	"list_devices": ActionListDevices, "help": ActionHelp,
	"greeting": ActionGreeting, "thanks": ActionThanks, "question": ActionQuestion,
	"count_events": ActionCountEvents, "next_event": ActionNextEvent,
	"list_events": ActionListEvents, "find_event": ActionFindEvent,
}

func mapAction(s string) Action {
	if a, ok := actionMap[strings.ToLower(s)]; ok {
		return a
	}
	return ActionStatus
}

func str(v any) string {
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func strOrDefault(v any, def string) string {
	if s := str(v); s != "" {
		return s
	}
	return def
}

func asFloat(v any, def float64) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return def
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
