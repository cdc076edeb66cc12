package ble

import "log/slog"

// DiscoverWriteCharacteristic finds one writable characteristic on a
// connected GATT server whose exact layout is unknown ahead of time.
//
// It first enumerates every primary service the server actually exposes and
// returns the first characteristic advertising a write property. Only if
// that broad sweep fails or yields nothing does it fall back to the curated
// UUID tables. Individual lookup failures never abort the search; the
// function returns ErrNoWritableCharacteristic only after every candidate is
// exhausted.
func DiscoverWriteCharacteristic(conn Connection) (Characteristic, error) {
	if char := discoverByEnumeration(conn); char != nil {
		return char, nil
	}
	if char := discoverByKnownUUIDs(conn); char != nil {
		return char, nil
	}
	return nil, ErrNoWritableCharacteristic
}

// discoverByEnumeration sweeps all exposed services for a writable
// characteristic.
func discoverByEnumeration(conn Connection) Characteristic {
	services, err := conn.Services()
	if err != nil {
		slog.Debug("[BLE] service enumeration failed", "error", err)
		return nil
	}
	for _, svc := range services {
		chars, err := svc.Characteristics()
		if err != nil {
			slog.Debug("[BLE] characteristic enumeration failed",
				"service", svc.UUID(), "error", err)
			continue
		}
		for _, char := range chars {
			if char.Properties().Writable() {
				slog.Info("[BLE] found writable characteristic",
					"service", svc.UUID(), "characteristic", char.UUID())
				return char
			}
		}
	}
	return nil
}

// discoverByKnownUUIDs walks the curated vendor tables: for each known
// service, known characteristics are tried by UUID first, then the service's
// own characteristic list.
func discoverByKnownUUIDs(conn Connection) Characteristic {
	for _, svcUUID := range knownServiceUUIDs {
		svc, err := conn.Service(svcUUID)
		if err != nil || svc == nil {
			continue
		}
		for _, charUUID := range knownWriteCharUUIDs {
			char, err := svc.Characteristic(charUUID)
			if err != nil || char == nil {
				continue
			}
			if char.Properties().Writable() {
				slog.Info("[BLE] found writable characteristic via known UUIDs",
					"service", svcUUID, "characteristic", charUUID)
				return char
			}
		}
		chars, err := svc.Characteristics()
		if err != nil {
			continue
		}
		for _, char := range chars {
			if char.Properties().Writable() {
				slog.Info("[BLE] found writable characteristic in known service",
					"service", svcUUID, "characteristic", char.UUID())
				return char
			}
		}
	}
	return nil
}
