// Package devicehub is the outbound device-dispatch collaborator for
// component E (Intent Service), adapted from the teacher's
// internal/infrastructure/websocket (hub.go/client.go/message.go/auth.go)
// re-indexed by device_id instead of user_id/workflow_id/execution_id, and
// framing the fixed {device_id, command_type, parameters, command_id,
// issued_at} envelope from spec §6 instead of the teacher's WSEvent.
package devicehub

import "time"

// Envelope is the fixed outbound command frame, spec §6.
type Envelope struct {
	DeviceID    string         `json:"device_id"`
	CommandType string         `json:"command_type"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	CommandID   string         `json:"command_id"`
	IssuedAt    time.Time      `json:"issued_at"`
}

// Ack is the device's reply to one Envelope, matched on CommandID.
type Ack struct {
	OK        bool   `json:"ok"`
	CommandID string `json:"command_id"`
	Error     string `json:"error,omitempty"`
}

// inbound commands a device connection can send unprompted (rare: mostly
// acks), mirrored from the teacher's WSCommand shape.
type inboundCommand struct {
	Action    string `json:"action"`
	DeviceID  string `json:"device_id"`
}

const (
	cmdPing = "ping"
)
