package devicehub_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/devicehub"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSend_DeviceOffline(t *testing.T) {
	hub := devicehub.NewHub(discardLogger())
	ack, err := hub.Send(context.Background(), &devicehub.Envelope{
		DeviceID: "missing", CommandType: "power_on", CommandID: uuid.NewString(), IssuedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.False(t, ack.OK)
}

func TestSend_RoundTripsAckFromClient(t *testing.T) {
	hub := devicehub.NewHub(discardLogger())
	client := devicehub.NewClient("tv-1")
	hub.Register(client)

	commandID := uuid.NewString()
	done := make(chan *devicehub.Ack, 1)
	go func() {
		ack, err := hub.Send(context.Background(), &devicehub.Envelope{
			DeviceID: "tv-1", CommandType: "power_on", CommandID: commandID, IssuedAt: time.Now(),
		})
		require.NoError(t, err)
		done <- ack
	}()

	env := <-client.SendChannel()
	assert.Equal(t, commandID, env.CommandID)
	hub.DeliverAck(&devicehub.Ack{OK: true, CommandID: commandID})

	select {
	case ack := <-done:
		assert.True(t, ack.OK)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ack round trip")
	}
}

func TestIsOnline(t *testing.T) {
	hub := devicehub.NewHub(discardLogger())
	assert.False(t, hub.IsOnline("tv-1"))
	client := devicehub.NewClient("tv-1")
	hub.Register(client)
	assert.True(t, hub.IsOnline("tv-1"))
	hub.Unregister(client)
	assert.False(t, hub.IsOnline("tv-1"))
}
