// Package ble connects the POS to a BLE thermal printer: capability
// discovery against unknown GATT layouts, a connection manager that survives
// disconnects, and a chunked write transport.
//
// All core logic depends only on the small interfaces below; the one
// production implementation wraps tinygo.org/x/bluetooth.
package ble

import (
	"context"
	"errors"
)

var (
	// ErrUnsupported means the host exposes no BLE transport at all.
	ErrUnsupported = errors.New("ble: bluetooth not supported on this host")
	// ErrNotConnected means an operation needed a live printer link.
	ErrNotConnected = errors.New("ble: printer not connected")
	// ErrConnectInProgress means a second connect/print raced an ongoing connect.
	ErrConnectInProgress = errors.New("ble: connection attempt already in progress")
	// ErrNoWritableCharacteristic means discovery exhausted every candidate.
	ErrNoWritableCharacteristic = errors.New("ble: no writable characteristic found")
	// ErrCancelled means the user dismissed the device chooser.
	ErrCancelled = errors.New("ble: device selection cancelled")
)

// Properties are the write capabilities a characteristic advertises.
type Properties struct {
	Write                bool // acknowledged write
	WriteWithoutResponse bool
}

// Writable reports whether the characteristic accepts either write mode.
func (p Properties) Writable() bool {
	return p.Write || p.WriteWithoutResponse
}

// Characteristic is a single writable GATT value. Callers must not cache a
// Characteristic across operations; the OS can invalidate handles after a
// silent disconnect, so the manager is asked for the active one each time.
type Characteristic interface {
	// UUID returns the characteristic UUID in canonical lowercase form.
	UUID() string
	// Properties returns the advertised write capabilities.
	Properties() Properties
	// Write performs an acknowledged write.
	Write(data []byte) error
	// WriteWithoutResponse performs an unacknowledged write.
	WriteWithoutResponse(data []byte) error
}

// Service is one GATT service on a connected server.
type Service interface {
	// UUID returns the service UUID in canonical lowercase form.
	UUID() string
	// Characteristics enumerates all characteristics of this service.
	Characteristics() ([]Characteristic, error)
	// Characteristic looks up a single characteristic by UUID.
	Characteristic(uuid string) (Characteristic, error)
}

// Connection is a live GATT server handle.
type Connection interface {
	// Services enumerates all primary services the server exposes.
	Services() ([]Service, error)
	// Service looks up a single service by UUID.
	Service(uuid string) (Service, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback fired when the physical link drops.
	OnDisconnect(func())
}

// Device is a discovered BLE peripheral. On Linux ID is the MAC address; on
// macOS it is the CoreBluetooth UUID, which is not stable across re-pairing.
type Device struct {
	Name string
	ID   string
	RSSI int
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Supported reports whether a BLE radio is available at all.
	Supported() bool
	// Enable powers on the adapter.
	Enable() error
	// Scan discovers peripherals until ctx is done. serviceUUIDs are
	// optional advertisement filters; many printers advertise nothing
	// before pairing, so an empty filter accepts all.
	Scan(ctx context.Context, serviceUUIDs []string) ([]Device, error)
	// Connect establishes a connection to the device with the given ID.
	Connect(ctx context.Context, id string) (Connection, error)
}

// Picker chooses one device from scan results. The UI's device chooser
// dialog implements this; it returns ErrCancelled when dismissed.
type Picker interface {
	Pick(devices []Device) (Device, error)
}
