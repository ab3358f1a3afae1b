package devicehub

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HubSender adapts *Hub's envelope/ack contract to the narrower
// (ok, commandID, err) shape intentservice.DeviceSender expects. Hub itself
// can't implement that interface directly since it already defines Send
// with the envelope/ack signature.
type HubSender struct {
	Hub *Hub
}

// Send builds an envelope from its arguments, generating command_id and
// issued_at, dispatches it through the hub, and unpacks the Ack.
func (s HubSender) Send(ctx context.Context, deviceID, commandType string, parameters map[string]any) (bool, string, error) {
	return s.Hub.sendCommand(ctx, deviceID, commandType, parameters)
}

func (h *Hub) sendCommand(ctx context.Context, deviceID, commandType string, parameters map[string]any) (bool, string, error) {
	commandID := uuid.NewString()
	ack, err := h.Send(ctx, &Envelope{
		DeviceID:    deviceID,
		CommandType: commandType,
		Parameters:  parameters,
		CommandID:   commandID,
		IssuedAt:    time.Now(),
	})
	if err != nil {
		return false, commandID, err
	}
	return ack.OK, ack.CommandID, nil
}
