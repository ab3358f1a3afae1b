package testutil

import "context"

// FakeDeviceSender is a scripted device dispatcher: Online controls whether
// Send reports the device reachable, and every call is recorded.
type FakeDeviceSender struct {
	Online bool
	Err    error

	Calls []FakeDeviceSend
}

// FakeDeviceSend records one Send invocation's arguments.
type FakeDeviceSend struct {
	DeviceID    string
	CommandType string
	Parameters  map[string]any
}

// NewFakeDeviceSender builds a FakeDeviceSender that reports devices online.
func NewFakeDeviceSender() *FakeDeviceSender {
	return &FakeDeviceSender{Online: true}
}

func (f *FakeDeviceSender) Send(_ context.Context, deviceID, commandType string, parameters map[string]any) (bool, string, error) {
	f.Calls = append(f.Calls, FakeDeviceSend{DeviceID: deviceID, CommandType: commandType, Parameters: parameters})
	if f.Err != nil {
		return false, "", f.Err
	}
	return f.Online, "fake-command-id", nil
}

// FakeDeviceDirectory returns a fixed device name list.
type FakeDeviceDirectory struct {
	Names []string
}

func (f *FakeDeviceDirectory) DeviceNames(_ context.Context) []string { return f.Names }
