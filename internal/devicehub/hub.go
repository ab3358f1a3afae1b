package devicehub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Client is the per-device connection the Hub dispatches envelopes
// through. The gorilla/websocket read/write pumps that drive it live in
// transport.go; tests build a Client with NewClient and read its
// SendChannel directly, with no socket attached.
type Client struct {
	DeviceID string
	send     chan *Envelope
	closed   chan struct{}
}

// NewClient builds a Client wired to the hub's dispatch/ack plumbing. The
// real network connection (readPump/writePump) is set up by Connect in
// transport.go, which owns this Client's lifetime.
func NewClient(deviceID string) *Client {
	return &Client{DeviceID: deviceID, send: make(chan *Envelope, 16), closed: make(chan struct{})}
}

// SendChannel exposes the outbound envelope channel, used by the real
// transport's writePump and by tests standing in for a device connection.
func (c *Client) SendChannel() <-chan *Envelope {
	return c.send
}

// Hub manages per-device connections and the request/ack round trip for
// Send, adapted from the teacher's Hub (register/unregister channels,
// mutex-guarded index) re-keyed by device_id instead of user/workflow/
// execution id.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client // device_id -> client

	pendingMu sync.Mutex
	pending   map[string]chan *Ack // command_id -> waiter
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*Client),
		pending: make(map[string]chan *Ack),
	}
}

// Register adds a device connection to the hub, replacing any prior
// connection for the same device.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.DeviceID] = c
	h.logger.Debug("device registered", "device_id", c.DeviceID, "total", len(h.clients))
}

// Unregister removes a device connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.DeviceID]; ok && cur == c {
		delete(h.clients, c.DeviceID)
		close(c.closed)
	}
	h.logger.Debug("device unregistered", "device_id", c.DeviceID, "total", len(h.clients))
}

// IsOnline reports whether deviceID currently has a registered connection.
func (h *Hub) IsOnline(deviceID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[deviceID]
	return ok
}

// Send dispatches envelope to its target device and blocks until the
// device's Ack arrives or ctx is done, matching component E's
// `send(envelope) -> {ok, command_id, error?}` contract.
func (h *Hub) Send(ctx context.Context, env *Envelope) (*Ack, error) {
	h.mu.RLock()
	client, ok := h.clients[env.DeviceID]
	h.mu.RUnlock()
	if !ok {
		return &Ack{OK: false, CommandID: env.CommandID, Error: "device offline"}, nil
	}

	waiter := make(chan *Ack, 1)
	h.pendingMu.Lock()
	h.pending[env.CommandID] = waiter
	h.pendingMu.Unlock()
	defer func() {
		h.pendingMu.Lock()
		delete(h.pending, env.CommandID)
		h.pendingMu.Unlock()
	}()

	select {
	case client.send <- env:
	case <-client.closed:
		return &Ack{OK: false, CommandID: env.CommandID, Error: "device disconnected"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case ack := <-waiter:
		return ack, nil
	case <-client.closed:
		return &Ack{OK: false, CommandID: env.CommandID, Error: "device disconnected"}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for ack from device %s: %w", env.DeviceID, ctx.Err())
	}
}

// DeliverAck routes an incoming Ack to its waiting Send call, if any. The
// real transport calls this from its read pump; tests call it directly
// against a fake client's envelope.
func (h *Hub) DeliverAck(ack *Ack) {
	h.resolveAck(ack)
}

// resolveAck routes an incoming Ack to its waiting Send call, if any.
func (h *Hub) resolveAck(ack *Ack) {
	h.pendingMu.Lock()
	waiter, ok := h.pending[ack.CommandID]
	h.pendingMu.Unlock()
	if !ok {
		return
	}
	select {
	case waiter <- ack:
	default:
	}
}

// DeviceCount returns the number of connected devices.
func (h *Hub) DeviceCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DeviceNames lists the currently connected device IDs, backing
// intentservice.DeviceDirectory for name resolution against live
// connections rather than a separately configured registry.
func (h *Hub) DeviceNames(ctx context.Context) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.clients))
	for id := range h.clients {
		names = append(names, id)
	}
	return names
}
