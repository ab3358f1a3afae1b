package intentservice_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/intent"
	"github.com/jarvis-brain/core/internal/intentservice"
	"github.com/jarvis-brain/core/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandle_DeviceCommandDispatchesToResolvedDevice(t *testing.T) {
	sender := testutil.NewFakeDeviceSender()
	dir := &testutil.FakeDeviceDirectory{Names: []string{"Living Room TV"}}
	svc := intentservice.New(discardLogger(), dir, sender, nil, nil)

	in := &intent.Intent{
		Type:         intent.TypeDeviceCommand,
		OriginalText: "turn on the living room tv",
		DeviceCommand: &intent.DeviceCommand{
			DeviceName: "living room tv",
			Action:     intent.ActionPowerOn,
		},
	}

	result := svc.Handle(context.Background(), in)
	require.True(t, result.OK)
	assert.True(t, result.CommandSent)
	require.Len(t, sender.Calls, 1)
	assert.Equal(t, "Living Room TV", sender.Calls[0].DeviceID)
	assert.Equal(t, "power_on", sender.Calls[0].CommandType)
}

func TestHandle_DeviceCommandAmbiguousDeviceAsksForClarification(t *testing.T) {
	sender := testutil.NewFakeDeviceSender()
	dir := &testutil.FakeDeviceDirectory{Names: []string{"Kitchen TV", "Kitchen Speaker"}}
	svc := intentservice.New(discardLogger(), dir, sender, nil, nil)

	in := &intent.Intent{
		Type: intent.TypeDeviceCommand,
		DeviceCommand: &intent.DeviceCommand{
			DeviceName: "kitchen",
			Action:     intent.ActionPowerOn,
		},
	}

	result := svc.Handle(context.Background(), in)
	assert.False(t, result.OK)
	assert.Empty(t, sender.Calls)
	assert.Contains(t, result.UserVisibleText, "more than one")
}

func TestHandle_DeviceCommandUnknownDeviceFails(t *testing.T) {
	sender := testutil.NewFakeDeviceSender()
	dir := &testutil.FakeDeviceDirectory{Names: []string{"Office Lamp"}}
	svc := intentservice.New(discardLogger(), dir, sender, nil, nil)

	in := &intent.Intent{
		Type: intent.TypeDeviceCommand,
		DeviceCommand: &intent.DeviceCommand{
			DeviceName: "nonexistent gadget",
			Action:     intent.ActionPowerOn,
		},
	}

	result := svc.Handle(context.Background(), in)
	assert.False(t, result.OK)
	assert.Contains(t, result.UserVisibleText, "couldn't find")
}

func TestHandle_DeviceCommandOfflineDeviceReportsNotOK(t *testing.T) {
	sender := testutil.NewFakeDeviceSender()
	sender.Online = false
	dir := &testutil.FakeDeviceDirectory{Names: []string{"Bedroom TV"}}
	svc := intentservice.New(discardLogger(), dir, sender, nil, nil)

	in := &intent.Intent{
		Type: intent.TypeDeviceCommand,
		DeviceCommand: &intent.DeviceCommand{
			DeviceName: "Bedroom TV",
			Action:     intent.ActionPowerOff,
		},
	}

	result := svc.Handle(context.Background(), in)
	assert.False(t, result.OK)
	assert.Contains(t, result.UserVisibleText, "offline")
}

func TestHandle_DocQueryReturnsExcerpt(t *testing.T) {
	docs := &testutil.FakeDocReader{Title: "Release Notes", Excerpt: "v2 ships tonight."}
	svc := intentservice.New(discardLogger(), nil, nil, docs, nil)

	in := &intent.Intent{
		Type:    intent.TypeDocQuery,
		DocQuery: &intent.DocQuery{URL: "https://example.com/notes", Query: "what shipped"},
	}

	result := svc.Handle(context.Background(), in)
	assert.True(t, result.OK)
	assert.Contains(t, result.UserVisibleText, "Release Notes")
}

func TestHandle_DisplayContentDispatchesToDeviceAfterGeneration(t *testing.T) {
	sender := testutil.NewFakeDeviceSender()
	dir := &testutil.FakeDeviceDirectory{Names: []string{"Hallway Display"}}
	layout := &testutil.FakeLayoutPipeline{Result: &intentservice.DisplayResult{HTML: "<div></div>", FinalScore: 0.92, Success: true}}
	svc := intentservice.New(discardLogger(), dir, sender, nil, layout)

	in := &intent.Intent{
		Type: intent.TypeDisplayContent,
		DisplayContent: &intent.DisplayContent{
			DeviceName: "hallway display",
			InfoType:   "weather",
		},
	}

	result := svc.Handle(context.Background(), in)
	require.True(t, result.OK)
	assert.True(t, result.CommandSent)
	require.Len(t, sender.Calls, 1)
	assert.Equal(t, "display_content", sender.Calls[0].CommandType)
}

func TestHandle_UnknownIntentFails(t *testing.T) {
	svc := intentservice.New(discardLogger(), nil, nil, nil, nil)
	result := svc.Handle(context.Background(), &intent.Intent{Type: intent.TypeUnknown})
	assert.False(t, result.OK)
}

func TestHandle_ConversationGreeting(t *testing.T) {
	svc := intentservice.New(discardLogger(), nil, nil, nil, nil)
	in := &intent.Intent{Type: intent.TypeConversation, Conversation: &intent.Conversation{Action: intent.ActionGreeting}}
	result := svc.Handle(context.Background(), in)
	assert.True(t, result.OK)
	assert.Equal(t, "Hello.", result.UserVisibleText)
}
