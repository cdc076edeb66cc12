package ble

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tinygo.org/x/bluetooth"
)

// BluetoothAdapter wraps tinygo-org/bluetooth. On Linux device IDs are MAC
// addresses; on macOS they are CoreBluetooth UUIDs. Both are opaque strings
// to the rest of the package.
type BluetoothAdapter struct {
	adapter *bluetooth.Adapter

	enableOnce sync.Once
	enableErr  error

	// mu protects the connections map used to dispatch adapter-level
	// disconnect events to the right connection.
	mu          sync.Mutex
	connections map[string]*bluetoothConnection
}

// NewBluetoothAdapter creates the production BLE adapter.
func NewBluetoothAdapter() *BluetoothAdapter {
	return &BluetoothAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*bluetoothConnection),
	}
}

// Supported reports whether the host radio can be powered on at all.
func (a *BluetoothAdapter) Supported() bool {
	return a.Enable() == nil
}

func (a *BluetoothAdapter) Enable() error {
	a.enableOnce.Do(func() {
		if err := a.adapter.Enable(); err != nil {
			a.enableErr = fmt.Errorf("ble: enable adapter: %w", err)
			return
		}
		// The stack fires this callback (connected=false) when a
		// peripheral drops, e.g. via DidDisconnectPeripheral on macOS.
		a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
			if connected {
				return
			}
			id := device.Address.String()
			a.mu.Lock()
			conn, ok := a.connections[id]
			a.mu.Unlock()
			if ok {
				conn.fireDisconnect()
			}
		})
	})
	return a.enableErr
}

// Scan collects advertising peripherals until ctx is done, deduplicated by
// address. serviceUUIDs, when non-empty, are treated as optional filters:
// matching devices are preferred but named devices are kept too, because
// many printers advertise no services before pairing.
func (a *BluetoothAdapter) Scan(ctx context.Context, serviceUUIDs []string) ([]Device, error) {
	if err := a.Enable(); err != nil {
		return nil, err
	}

	var filters []bluetooth.UUID
	for _, s := range serviceUUIDs {
		uuid, err := bluetooth.ParseUUID(s)
		if err != nil {
			return nil, fmt.Errorf("ble: parse service UUID %q: %w", s, err)
		}
		filters = append(filters, uuid)
	}

	var mu sync.Mutex
	var devices []Device
	seen := make(map[string]bool)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = a.adapter.StopScan()
		case <-done:
		}
	}()

	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if len(filters) > 0 && result.LocalName() == "" {
			match := false
			for _, f := range filters {
				if result.HasServiceUUID(f) {
					match = true
					break
				}
			}
			if !match {
				return
			}
		}
		id := result.Address.String()
		mu.Lock()
		defer mu.Unlock()
		if seen[id] {
			return
		}
		seen[id] = true
		devices = append(devices, Device{
			Name: result.LocalName(),
			ID:   id,
			RSSI: int(result.RSSI),
		})
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	return devices, nil
}

// Connect establishes a GATT connection. The underlying Connect blocks with
// its own timeout; it is wrapped so ctx cancellation returns promptly.
func (a *BluetoothAdapter) Connect(ctx context.Context, id string) (Connection, error) {
	if err := a.Enable(); err != nil {
		return nil, err
	}

	var addr bluetooth.Address
	addr.Set(id)

	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("ble: connect to %s: %w", id, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", id, result.err)
		}
		conn := &bluetoothConnection{device: result.device}
		a.mu.Lock()
		a.connections[id] = conn
		a.mu.Unlock()
		return conn, nil
	}
}

// Compile-time check that BluetoothAdapter implements Adapter.
var _ Adapter = (*BluetoothAdapter)(nil)

type bluetoothConnection struct {
	device bluetooth.Device

	mu           sync.Mutex
	disconnectCb func()
}

func (c *bluetoothConnection) Services() ([]Service, error) {
	svcs, err := c.device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	out := make([]Service, 0, len(svcs))
	for i := range svcs {
		out = append(out, &bluetoothService{svc: svcs[i]})
	}
	return out, nil
}

func (c *bluetoothConnection) Service(uuid string) (Service, error) {
	parsed, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("ble: parse service UUID %q: %w", uuid, err)
	}
	svcs, err := c.device.DiscoverServices([]bluetooth.UUID{parsed})
	if err != nil {
		return nil, fmt.Errorf("ble: discover service %s: %w", uuid, err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("ble: service %s not found", uuid)
	}
	return &bluetoothService{svc: svcs[0]}, nil
}

func (c *bluetoothConnection) Disconnect() error {
	return c.device.Disconnect()
}

func (c *bluetoothConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	c.disconnectCb = cb
	c.mu.Unlock()
}

func (c *bluetoothConnection) fireDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

type bluetoothService struct {
	svc bluetooth.DeviceService
}

func (s *bluetoothService) UUID() string {
	return strings.ToLower(s.svc.UUID().String())
}

func (s *bluetoothService) Characteristics() ([]Characteristic, error) {
	chars, err := s.svc.DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	out := make([]Characteristic, 0, len(chars))
	for i := range chars {
		out = append(out, &bluetoothCharacteristic{char: chars[i]})
	}
	return out, nil
}

func (s *bluetoothService) Characteristic(uuid string) (Characteristic, error) {
	parsed, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("ble: parse characteristic UUID %q: %w", uuid, err)
	}
	chars, err := s.svc.DiscoverCharacteristics([]bluetooth.UUID{parsed})
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristic %s: %w", uuid, err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("ble: characteristic %s not found", uuid)
	}
	return &bluetoothCharacteristic{char: chars[0]}, nil
}

type bluetoothCharacteristic struct {
	char bluetooth.DeviceCharacteristic
}

func (c *bluetoothCharacteristic) UUID() string {
	return strings.ToLower(c.char.UUID().String())
}

// Properties reports both write modes. tinygo/bluetooth does not surface
// GATT property flags, so the transport's per-chunk acknowledged fallback
// covers characteristics that reject unacknowledged writes.
func (c *bluetoothCharacteristic) Properties() Properties {
	return Properties{Write: true, WriteWithoutResponse: true}
}

func (c *bluetoothCharacteristic) Write(data []byte) error {
	_, err := c.char.Write(data)
	return err
}

func (c *bluetoothCharacteristic) WriteWithoutResponse(data []byte) error {
	_, err := c.char.WriteWithoutResponse(data)
	return err
}
