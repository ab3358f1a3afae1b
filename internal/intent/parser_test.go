package intent_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/intent"
	"github.com/jarvis-brain/core/internal/provider"
	"github.com/jarvis-brain/core/internal/testutil"
)

func TestParse_DeviceCommand(t *testing.T) {
	p := testutil.NewFakeProvider(provider.KindCheap,
		provider.NewOKResponse(provider.KindCheap, "cheap",
			`{"intent_type":"device_command","confidence":0.9,"device_name":"living room tv","action":"power_on"}`,
			provider.TokenUsage{}, 1))

	parser := intent.New(p, nil)
	got := parser.Parse(context.Background(), "turn on the living room tv", nil)

	require.Equal(t, intent.TypeDeviceCommand, got.Type)
	require.NotNil(t, got.DeviceCommand)
	assert.Equal(t, "living room tv", got.DeviceCommand.DeviceName)
	assert.Equal(t, intent.ActionPowerOn, got.DeviceCommand.Action)
}

func TestParse_FallsBackToUnknownOnProviderFailure(t *testing.T) {
	p := testutil.NewFakeProvider(provider.KindCheap, nil)
	p.Errors = []error{assertErr("boom")}

	parser := intent.New(p, nil)
	got := parser.Parse(context.Background(), "anything", nil)
	assert.True(t, got.IsUnknown())
	assert.Equal(t, 0.0, got.Confidence)
}

func TestResolveDateRange_Today(t *testing.T) {
	now := time.Date(2026, 7, 30, 15, 4, 0, 0, time.UTC)
	r := intent.ResolveDateRange("today", now)
	assert.Equal(t, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), r.End)
}

func TestResolveDateRange_ThisWeek(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC) // Thursday
	r := intent.ResolveDateRange("this_week", now)
	assert.Equal(t, time.Monday, r.Start.Weekday())
}

func TestParseSelector_Ordinals(t *testing.T) {
	assert.Equal(t, 1, intent.ParseSelector("the first one").Ordinal)
	assert.Equal(t, 2, intent.ParseSelector("2nd").Ordinal)
	assert.Equal(t, 3, intent.ParseSelector("number 3").Ordinal)
	assert.Equal(t, 0, intent.ParseSelector("the meeting with bob").Ordinal)
}

func TestInferEditField_UsesKeywordsWhenFieldMissing(t *testing.T) {
	field, value, bare := intent.InferEditField("", "3pm")
	assert.Equal(t, "time", field)
	assert.Equal(t, "3pm", value)
	assert.Equal(t, "3pm", bare)
}

func TestInferEditField_ExplicitFieldPassesThrough(t *testing.T) {
	field, value, bare := intent.InferEditField("title", "Lunch with Bob")
	assert.Equal(t, "title", field)
	assert.Equal(t, "Lunch with Bob", value)
	assert.Equal(t, "", bare)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
