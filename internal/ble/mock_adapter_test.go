package ble

import (
	"context"
	"fmt"
	"sync"

	"github.com/hendrawan/posprint/internal/identity"
)

// mockCharacteristic records writes and can fail a configurable number of
// attempts per write mode.
type mockCharacteristic struct {
	mu    sync.Mutex
	uuid  string
	props Properties

	writes    [][]byte // acknowledged
	wwrWrites [][]byte // unacknowledged

	failWrite int // fail this many acknowledged writes before succeeding
	failWWR   int // fail this many unacknowledged writes before succeeding
}

func (c *mockCharacteristic) UUID() string { return c.uuid }

func (c *mockCharacteristic) Properties() Properties { return c.props }

func (c *mockCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrite > 0 {
		c.failWrite--
		return fmt.Errorf("mock: acknowledged write failed")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *mockCharacteristic) WriteWithoutResponse(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWWR > 0 {
		c.failWWR--
		return fmt.Errorf("mock: write without response failed")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.wwrWrites = append(c.wwrWrites, cp)
	return nil
}

func (c *mockCharacteristic) totalWrites() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes) + len(c.wwrWrites)
}

func (c *mockCharacteristic) allWrites() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([][]byte{}, c.wwrWrites...)
	return append(out, c.writes...)
}

// mockService exposes a fixed characteristic list.
type mockService struct {
	uuid     string
	chars    []*mockCharacteristic
	charsErr error // error for Characteristics enumeration
}

func (s *mockService) UUID() string { return s.uuid }

func (s *mockService) Characteristics() ([]Characteristic, error) {
	if s.charsErr != nil {
		return nil, s.charsErr
	}
	out := make([]Characteristic, 0, len(s.chars))
	for _, c := range s.chars {
		out = append(out, c)
	}
	return out, nil
}

func (s *mockService) Characteristic(uuid string) (Characteristic, error) {
	for _, c := range s.chars {
		if c.uuid == uuid {
			return c, nil
		}
	}
	return nil, fmt.Errorf("mock: characteristic %s not found", uuid)
}

// mockConnection simulates a connected GATT server.
type mockConnection struct {
	mu           sync.Mutex
	services     []*mockService
	servicesErr  error // error for broad enumeration
	disconnectCb func()
	disconnected bool
}

func (c *mockConnection) Services() ([]Service, error) {
	if c.servicesErr != nil {
		return nil, c.servicesErr
	}
	out := make([]Service, 0, len(c.services))
	for _, s := range c.services {
		out = append(out, s)
	}
	return out, nil
}

func (c *mockConnection) Service(uuid string) (Service, error) {
	for _, s := range c.services {
		if s.uuid == uuid {
			return s, nil
		}
	}
	return nil, fmt.Errorf("mock: service %s not found", uuid)
}

func (c *mockConnection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

func (c *mockConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

// SimulateDisconnect fires the registered disconnect callback.
func (c *mockConnection) SimulateDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// printerConnection returns a connection shaped like a typical thermal
// printer: one vendor service with a writable characteristic.
func printerConnection() *mockConnection {
	return &mockConnection{
		services: []*mockService{
			{
				uuid: uuid16("18f0"),
				chars: []*mockCharacteristic{
					{uuid: uuid16("2af1"), props: Properties{Write: true, WriteWithoutResponse: true}},
				},
			},
		},
	}
}

// mockAdapter simulates the BLE hardware adapter.
type mockAdapter struct {
	mu        sync.Mutex
	supported bool
	devices   []Device
	scanErr   error

	connectErr error
	blockCh    chan struct{} // when set, Connect blocks until closed
	newConn    func() *mockConnection
	conns      []*mockConnection
	connects   int
	scans      [][]string // filter list of each Scan call
}

func newMockAdapter(devices []Device) *mockAdapter {
	return &mockAdapter{
		supported: true,
		devices:   devices,
		newConn:   printerConnection,
	}
}

func (a *mockAdapter) Supported() bool { return a.supported }

func (a *mockAdapter) Enable() error { return nil }

func (a *mockAdapter) Scan(_ context.Context, serviceUUIDs []string) ([]Device, error) {
	a.mu.Lock()
	a.scans = append(a.scans, serviceUUIDs)
	a.mu.Unlock()
	if a.scanErr != nil {
		return nil, a.scanErr
	}
	return a.devices, nil
}

func (a *mockAdapter) Connect(_ context.Context, _ string) (Connection, error) {
	if a.blockCh != nil {
		<-a.blockCh
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connects++
	if a.connectErr != nil {
		return nil, a.connectErr
	}
	conn := a.newConn()
	a.conns = append(a.conns, conn)
	return conn, nil
}

// lastScanFilters returns the filter list of the most recent Scan call.
func (a *mockAdapter) lastScanFilters() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.scans) == 0 {
		return nil
	}
	return a.scans[len(a.scans)-1]
}

func (a *mockAdapter) connectCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connects
}

// latestConnection returns the most recently created connection.
func (a *mockAdapter) latestConnection() *mockConnection {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.conns) == 0 {
		return nil
	}
	return a.conns[len(a.conns)-1]
}

// mockPicker returns a fixed choice and counts invocations.
type mockPicker struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *mockPicker) Pick(devices []Device) (Device, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return Device{}, p.err
	}
	if len(devices) == 0 {
		return Device{}, ErrCancelled
	}
	return devices[0], nil
}

func (p *mockPicker) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// memStore is an in-memory identity.Store.
type memStore struct {
	mu      sync.Mutex
	ident   *identity.Identity
	deletes int
}

func (s *memStore) Load() (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ident == nil {
		return nil, nil
	}
	cp := *s.ident
	return &cp, nil
}

func (s *memStore) Save(ident identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = &ident
	return nil
}

func (s *memStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = nil
	s.deletes++
	return nil
}

func (s *memStore) saved() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ident == nil {
		return nil
	}
	cp := *s.ident
	return &cp
}
