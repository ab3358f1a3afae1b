// Package intent turns raw text into a typed Intent, grounded on
// app/ai/intent/parser.py (IntentParser) and schemas.py, restructured as a
// Go tagged union since Go has no sum types.
package intent

import "time"

// Type is the discriminator for Intent's tagged union, widened from the
// original's simpler IntentType enum to the full taxonomy in spec.md.
type Type string

const (
	TypeDeviceCommand   Type = "device_command"
	TypeDeviceQuery     Type = "device_query"
	TypeSystemQuery     Type = "system_query"
	TypeCalendarQuery   Type = "calendar_query"
	TypeCalendarCreate  Type = "calendar_create"
	TypeCalendarEdit    Type = "calendar_edit"
	TypeDocQuery        Type = "doc_query"
	TypeDisplayContent  Type = "display_content"
	TypeConversation    Type = "conversation"
	TypeUnknown         Type = "unknown"
)

// Action mirrors the original's ActionType enum in full.
type Action string

const (
	ActionPowerOn      Action = "power_on"
	ActionPowerOff     Action = "power_off"
	ActionSetInput     Action = "set_input"
	ActionVolumeUp     Action = "volume_up"
	ActionVolumeDown   Action = "volume_down"
	ActionVolumeSet    Action = "volume_set"
	ActionMute         Action = "mute"
	ActionUnmute       Action = "unmute"
	ActionShowContent  Action = "show_content"
	ActionShowCalendar Action = "show_calendar"
	ActionClearContent Action = "clear_content"
	ActionStatus       Action = "status"
	ActionCapabilities Action = "capabilities"
	ActionIsOnline     Action = "is_online"
	ActionListDevices  Action = "list_devices"
	ActionHelp         Action = "help"
	ActionGreeting     Action = "greeting"
	ActionThanks       Action = "thanks"
	ActionQuestion     Action = "question"
	ActionCountEvents  Action = "count_events"
	ActionNextEvent    Action = "next_event"
	ActionListEvents   Action = "list_events"
	ActionFindEvent    Action = "find_event"
	ActionUnspecified  Action = ""
)

// DeviceCommand requests an action be performed on a named device.
type DeviceCommand struct {
	DeviceName string
	Action     Action
	Parameters map[string]any
}

// DeviceQuery asks about a device's current state.
type DeviceQuery struct {
	DeviceName string
	Action     Action
}

// SystemQuery asks about the assistant itself (help, capabilities, greeting).
type SystemQuery struct {
	Action     Action
	Parameters map[string]any
}

// CalendarQuery asks about existing events (count, next, list, find).
type CalendarQuery struct {
	Action     Action
	DateRange  DateRange
	Query      string
}

// CalendarCreate requests a new event be created.
type CalendarCreate struct {
	Title     string
	Start     time.Time
	End       time.Time
	Attendees []string
}

// CalendarEdit requests an existing event (selected by ordinal or title) be
// modified. BareValue holds an edit value whose target field was not named
// explicitly and must be inferred (spec §4.D).
type CalendarEdit struct {
	Selector  Selector
	Field     string
	Value     string
	BareValue string
}

// DocQuery asks to read from a connected document.
type DocQuery struct {
	URL   string
	Query string
}

// DisplayContent requests generated visual content be shown (routes to
// component J, the custom-layout pipeline).
type DisplayContent struct {
	DeviceName string
	InfoType   string
	Title      string
	Data       map[string]any
}

// Conversation is small talk with no device/system action attached.
type Conversation struct {
	Action Action // optional: greeting, thanks, question
}

// DateRange resolves relative date tokens ("today", "tomorrow", "this_week")
// into concrete bounds, grounded on parser.py's _resolve_date_range.
type DateRange struct {
	Start time.Time
	End   time.Time
	Token string
}

// Selector identifies which among several candidate items (e.g. calendar
// events) a follow-up refers to, grounded on the original's
// selection-ordinal parsing.
type Selector struct {
	Ordinal int // 1-based; 0 means unresolved
	Title   string
}

// Intent is the tagged union every parse produces. Exactly one payload
// field is populated, matching the discriminator in Type.
type Intent struct {
	Type         Type
	Confidence   float64
	OriginalText string
	Reasoning    string
	CreatedAt    time.Time

	DeviceCommand  *DeviceCommand
	DeviceQuery    *DeviceQuery
	SystemQuery    *SystemQuery
	CalendarQuery  *CalendarQuery
	CalendarCreate *CalendarCreate
	CalendarEdit   *CalendarEdit
	DocQuery       *DocQuery
	DisplayContent *DisplayContent
	Conversation   *Conversation
}

// IsUnknown reports whether parsing failed to produce a typed payload.
func (i *Intent) IsUnknown() bool { return i.Type == TypeUnknown }
