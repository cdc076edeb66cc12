package ble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hendrawan/posprint/internal/escpos"
	"github.com/hendrawan/posprint/internal/identity"
	"github.com/hendrawan/posprint/internal/receipt"
)

// State is the connection lifecycle phase. Printing is tracked as an
// orthogonal flag, not a state: a printing manager is always Connected.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Status is the observable tuple the UI polls or subscribes to.
type Status struct {
	Supported        bool   `json:"is_supported"`
	Connected        bool   `json:"is_connected"`
	Connecting       bool   `json:"is_connecting"`
	Printing         bool   `json:"is_printing"`
	PrinterName      string `json:"printer_name,omitempty"`
	SavedPrinterName string `json:"saved_printer_name,omitempty"`
	HasSavedPrinter  bool   `json:"has_saved_printer"`
	Error            string `json:"error,omitempty"`
}

// Options tunes manager behavior.
type Options struct {
	ScanTimeout time.Duration  // how long device scans run (default 10s)
	Store       *receipt.Store // receipt header override
}

// Manager owns the single mutable connection-state/characteristic pair. It
// is the only component allowed to hold a Characteristic across operations,
// and it revalidates the handle on every print.
type Manager struct {
	adapter    Adapter
	picker     Picker
	identities identity.Store
	transport  *Transport
	opts       Options

	mu        sync.Mutex
	state     State
	printing  bool
	conn      Connection
	char      Characteristic
	device    Device
	hasDevice bool
	saved     *identity.Identity
	lastErr   string
	onChange  func(Status)
}

// NewManager builds a manager around an adapter, a device picker, and a
// persisted identity store. The saved printer identity, if any, is loaded
// immediately so the UI can show its name before any connection exists.
func NewManager(adapter Adapter, picker Picker, identities identity.Store, transport *Transport, opts Options) *Manager {
	if transport == nil {
		transport = DefaultTransport()
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 10 * time.Second
	}
	m := &Manager{
		adapter:    adapter,
		picker:     picker,
		identities: identities,
		transport:  transport,
		opts:       opts,
	}
	if identities != nil {
		saved, err := identities.Load()
		if err != nil {
			slog.Warn("[BLE] could not load saved printer identity", "error", err)
		} else {
			m.saved = saved
		}
	}
	return m
}

// Supported reports whether the host exposes a BLE transport at all. The UI
// must check this before offering the feature.
func (m *Manager) Supported() bool {
	return m.adapter.Supported()
}

// Status returns a snapshot of the observable state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Manager) statusLocked() Status {
	st := Status{
		Supported:  m.adapter.Supported(),
		Connected:  m.state == StateConnected,
		Connecting: m.state == StateConnecting,
		Printing:   m.printing,
		Error:      m.lastErr,
	}
	if m.state == StateConnected {
		st.PrinterName = m.device.Name
	}
	if m.saved != nil {
		st.HasSavedPrinter = true
		st.SavedPrinterName = m.saved.Name
	}
	return st
}

// OnChange registers a callback invoked after every state transition. The
// callback runs outside the manager lock and must not block.
func (m *Manager) OnChange(cb func(Status)) {
	m.mu.Lock()
	m.onChange = cb
	m.mu.Unlock()
}

func (m *Manager) notify() {
	m.mu.Lock()
	cb := m.onChange
	st := m.statusLocked()
	m.mu.Unlock()
	if cb != nil {
		cb(st)
	}
}

// Connect runs the user-initiated connect sequence: obtain a device handle
// (in-memory device from a previous session, then saved-identity scan, then
// the chooser), connect its GATT, and discover a writable characteristic.
// A concurrent connect fails fast with ErrConnectInProgress rather than
// starting a second, conflicting sequence.
func (m *Manager) Connect(ctx context.Context) error {
	return m.connect(ctx, false)
}

// AutoReconnect runs the startup reconnect once, opportunistically. It must
// be called on its own goroutine; failures are logged, never surfaced, so
// the UI simply shows "not connected".
func (m *Manager) AutoReconnect(ctx context.Context) {
	m.mu.Lock()
	saved := m.saved
	m.mu.Unlock()
	if saved == nil || !saved.Enabled {
		return
	}
	if err := m.connect(ctx, true); err != nil {
		slog.Info("[BLE] startup auto-reconnect skipped", "error", err)
	}
}

func (m *Manager) connect(ctx context.Context, silent bool) error {
	if !m.adapter.Supported() {
		if !silent {
			m.setError("bluetooth is not available on this device")
		}
		return ErrUnsupported
	}

	m.mu.Lock()
	switch m.state {
	case StateConnecting:
		m.mu.Unlock()
		return ErrConnectInProgress
	case StateConnected:
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.lastErr = ""
	m.mu.Unlock()
	m.notify()

	dev, err := m.selectDevice(ctx, silent)
	if err != nil {
		m.failConnect(err, silent)
		return err
	}
	if err := m.connectDevice(ctx, dev); err != nil {
		m.failConnect(err, silent)
		return err
	}
	return nil
}

// selectDevice applies the preference order for obtaining a device handle.
func (m *Manager) selectDevice(ctx context.Context, silent bool) (Device, error) {
	m.mu.Lock()
	dev, hasDevice := m.device, m.hasDevice
	saved := m.saved
	m.mu.Unlock()

	// (a) reuse the in-memory device from a previous session
	if !silent && hasDevice {
		return dev, nil
	}

	// (b) search granted/visible devices for the saved identity
	if saved != nil && saved.Enabled {
		if dev, err := m.scanForSaved(ctx, saved); err == nil {
			return dev, nil
		} else if silent {
			return Device{}, err
		}
	} else if silent {
		return Device{}, fmt.Errorf("ble: no saved printer to reconnect to")
	}

	// (c) prompt via the device chooser. The known printer services ride
	// along as optional filters: matching devices are preferred but named
	// devices are kept, since many printers advertise nothing before
	// pairing.
	if err := m.adapter.Enable(); err != nil {
		return Device{}, fmt.Errorf("ble: enable adapter: %w", err)
	}
	scanCtx, cancel := context.WithTimeout(ctx, m.opts.ScanTimeout)
	defer cancel()
	devices, err := m.adapter.Scan(scanCtx, KnownServiceUUIDs())
	if err != nil {
		return Device{}, fmt.Errorf("ble: scan for printers: %w", err)
	}
	return m.picker.Pick(devices)
}

// scanForSaved looks for a device matching the saved identity by name first,
// then by identifier; BLE identifiers are not stable across OS re-pairing,
// so the name match matters.
func (m *Manager) scanForSaved(ctx context.Context, saved *identity.Identity) (Device, error) {
	if err := m.adapter.Enable(); err != nil {
		return Device{}, fmt.Errorf("ble: enable adapter: %w", err)
	}
	scanCtx, cancel := context.WithTimeout(ctx, m.opts.ScanTimeout)
	defer cancel()
	devices, err := m.adapter.Scan(scanCtx, nil)
	if err != nil {
		return Device{}, fmt.Errorf("ble: scan for saved printer: %w", err)
	}
	for _, d := range devices {
		if saved.Name != "" && d.Name == saved.Name {
			return d, nil
		}
	}
	for _, d := range devices {
		if saved.ID != "" && d.ID == saved.ID {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("ble: saved printer %q not in range", saved.Name)
}

// connectDevice runs the GATT connect plus discovery sequence and commits
// the result.
func (m *Manager) connectDevice(ctx context.Context, dev Device) error {
	// Force a clean handshake if a previous connection is still around.
	m.mu.Lock()
	stale := m.conn
	m.conn = nil
	m.mu.Unlock()
	if stale != nil {
		_ = stale.Disconnect()
	}

	conn, err := m.adapter.Connect(ctx, dev.ID)
	if err != nil {
		return fmt.Errorf("ble: connect to %s: %w", dev.Name, err)
	}

	char, err := DiscoverWriteCharacteristic(conn)
	if err != nil {
		_ = conn.Disconnect()
		return fmt.Errorf("ble: %s exposes no writable characteristic: %w", dev.Name, err)
	}

	conn.OnDisconnect(func() { m.handleDisconnect(conn, dev.Name) })

	ident := identity.Identity{Name: dev.Name, ID: dev.ID, Enabled: true}
	if m.identities != nil {
		if err := m.identities.Save(ident); err != nil {
			slog.Warn("[BLE] could not persist printer identity", "error", err)
		}
	}

	m.mu.Lock()
	m.state = StateConnected
	m.conn = conn
	m.char = char
	m.device = dev
	m.hasDevice = true
	m.saved = &ident
	m.lastErr = ""
	m.mu.Unlock()

	slog.Info("[BLE] printer connected", "name", dev.Name, "id", dev.ID)
	m.notify()
	return nil
}

// failConnect drops back to Disconnected. Chooser cancellations stay silent;
// every other failure sets the human-readable error for the UI.
func (m *Manager) failConnect(err error, silent bool) {
	m.mu.Lock()
	m.state = StateDisconnected
	m.hasDevice = false
	if !silent && !IsCancellation(err) {
		m.lastErr = userMessage(err)
	}
	m.mu.Unlock()
	m.notify()
}

// handleDisconnect reacts to the platform's async link-drop signal: the
// cached characteristic is cleared and state drops to Disconnected, but the
// persisted identity stays so the printer still shows as "saved". Signals
// from a superseded connection are ignored.
func (m *Manager) handleDisconnect(conn Connection, name string) {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return
	}
	slog.Warn("[BLE] printer disconnected", "name", name)
	m.state = StateDisconnected
	m.printing = false
	m.conn = nil
	m.char = nil
	m.mu.Unlock()
	m.notify()
}

// Disconnect tears down the link on user request. The persisted identity is
// left intact; a manual disconnect is not "forget this printer".
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	conn := m.conn
	m.state = StateDisconnected
	m.printing = false
	m.conn = nil
	m.char = nil
	m.hasDevice = false
	m.lastErr = ""
	m.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Disconnect()
	}
	m.notify()
	return err
}

// Forget deletes the persisted printer identity after disconnecting.
func (m *Manager) Forget() error {
	if err := m.Disconnect(); err != nil {
		slog.Warn("[BLE] disconnect during forget", "error", err)
	}
	m.mu.Lock()
	m.saved = nil
	m.mu.Unlock()
	var err error
	if m.identities != nil {
		err = m.identities.Delete()
	}
	m.notify()
	return err
}

// Shutdown releases any open GATT handle. Call once at process exit.
func (m *Manager) Shutdown() {
	_ = m.Disconnect()
}

// PrintInvoice renders and prints the customer receipt.
func (m *Manager) PrintInvoice(ctx context.Context, sale receipt.Sale) error {
	lines := receipt.RenderInvoice(sale, m.opts.Store)
	return m.print(ctx, escpos.EncodeInvoice(lines))
}

// PrintWorkerCopy renders and prints only the price-free picking slip.
func (m *Manager) PrintWorkerCopy(ctx context.Context, sale receipt.Sale) error {
	lines := receipt.RenderWorkerCopy(sale)
	return m.print(ctx, escpos.EncodeWorkerCopy(lines))
}

// PrintBoth prints the invoice and, when requested by the caller or the sale
// itself, the worker copy after it.
func (m *Manager) PrintBoth(ctx context.Context, sale receipt.Sale, workerCopy bool) error {
	if err := m.PrintInvoice(ctx, sale); err != nil {
		return err
	}
	if workerCopy || sale.WorkerCopy {
		return m.PrintWorkerCopy(ctx, sale)
	}
	return nil
}

// print pushes an encoded job through the active characteristic. A stale
// characteristic (the common silent BLE failure) is recovered in place by
// re-running discovery on the existing GATT server; a full reconnect is the
// last resort.
func (m *Manager) print(ctx context.Context, data []byte) error {
	m.mu.Lock()
	switch {
	case m.state == StateConnecting:
		m.mu.Unlock()
		return fmt.Errorf("ble: %w, wait for it to finish before printing", ErrConnectInProgress)
	case m.state != StateConnected:
		m.mu.Unlock()
		m.setError("printer not connected")
		return ErrNotConnected
	case m.printing:
		m.mu.Unlock()
		return fmt.Errorf("ble: a print is already in progress")
	}
	m.printing = true
	char := m.char
	m.mu.Unlock()
	m.notify()

	defer func() {
		m.mu.Lock()
		m.printing = false
		m.mu.Unlock()
		m.notify()
	}()

	var err error
	if char == nil {
		if char, err = m.recoverCharacteristic(ctx); err != nil {
			m.setError(userMessage(err))
			return err
		}
	}

	if err = m.transport.Send(ctx, char, data); err != nil {
		// The handle may have died without a disconnect event. Recover
		// once and resend the whole job.
		char, rerr := m.recoverCharacteristic(ctx)
		if rerr == nil {
			err = m.transport.Send(ctx, char, data)
		}
		if err != nil {
			m.setError("print failed, try disconnecting and reconnecting the printer")
			return fmt.Errorf("ble: print: %w", err)
		}
	}

	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
	return nil
}

// recoverCharacteristic re-runs discovery on the existing GATT server, and
// only when that fails performs a full device reconnect.
func (m *Manager) recoverCharacteristic(ctx context.Context) (Characteristic, error) {
	m.mu.Lock()
	conn := m.conn
	dev := m.device
	m.mu.Unlock()

	if conn != nil {
		if char, err := DiscoverWriteCharacteristic(conn); err == nil {
			slog.Info("[BLE] recovered stale characteristic in place", "name", dev.Name)
			m.mu.Lock()
			m.char = char
			m.mu.Unlock()
			return char, nil
		}
		slog.Warn("[BLE] in-place recovery failed, reconnecting", "name", dev.Name)
	}

	if err := m.connectDevice(ctx, dev); err != nil {
		return nil, err
	}
	m.mu.Lock()
	char := m.char
	m.mu.Unlock()
	return char, nil
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
	m.notify()
}

// userMessage strips the error chain down to a sentence the UI can show.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	return strings.TrimPrefix(msg, "ble: ")
}
