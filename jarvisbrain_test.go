package jarvisbrain

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/devicehub"
	"github.com/jarvis-brain/core/internal/infrastructure/monitoring"
	"github.com/jarvis-brain/core/internal/intent"
	"github.com/jarvis-brain/core/internal/intentservice"
	"github.com/jarvis-brain/core/internal/provider"
	"github.com/jarvis-brain/core/internal/router"
	"github.com/jarvis-brain/core/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBrain(t *testing.T, classifyJSON string, intentJSON string) (*Brain, *testutil.FakeDeviceSender) {
	t.Helper()
	logger := discardLogger()

	classifier := testutil.NewFakeProvider(provider.KindCheap, &provider.Response{OK: true, Content: classifyJSON})
	parserProvider := testutil.NewFakeProvider(provider.KindCheap, &provider.Response{OK: true, Content: intentJSON})

	rtr := router.New(classifier, nil, nil)
	parser := intent.New(parserProvider, nil)

	sender := testutil.NewFakeDeviceSender()
	devices := &testutil.FakeDeviceDirectory{Names: []string{"living_room_tv"}}
	svc := intentservice.New(logger, devices, sender, nil, nil)

	hub := devicehub.NewHub(logger)
	monitor := monitoring.New(zerolog.New(io.Discard), 10)
	brain := newBrain(logger, monitor, rtr, parser, svc, hub, nil, nil)
	return brain, sender
}

func TestProcess_DispatchesDeviceCommand(t *testing.T) {
	classify := `{"complexity":"simple","reasoning":"device control","confidence":0.9}`
	parsed := `{"intent_type":"device_command","confidence":0.9,"device_name":"living_room_tv","action":"power_on"}`

	brain, sender := testBrain(t, classify, parsed)
	resp := brain.Process(context.Background(), "turn on the living room tv", "user-1", nil)

	require.NotEmpty(t, resp.RequestID)
	assert.Equal(t, router.Simple, resp.Routing.Complexity)
	assert.Equal(t, intent.TypeDeviceCommand, resp.Intent.Type)
	assert.True(t, resp.Result.OK)
	assert.True(t, resp.Result.CommandSent)
	require.Len(t, sender.Calls, 1)
	assert.Equal(t, "living_room_tv", sender.Calls[0].DeviceID)
}

func TestProcess_UnparseableClassificationDefaultsToCheap(t *testing.T) {
	parsed := `{"intent_type":"conversation","confidence":0.7}`
	brain, _ := testBrain(t, "not json at all", parsed)

	resp := brain.Process(context.Background(), "hello", "user-1", nil)

	assert.Equal(t, router.Simple, resp.Routing.Complexity)
	assert.Equal(t, provider.KindCheap, resp.Routing.TargetProvider)
	assert.True(t, resp.Result.OK)
}
