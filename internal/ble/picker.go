package ble

import (
	"errors"
	"strings"
)

// AutoPicker selects a device without prompting, for headless agent use.
// A device whose name contains NameHint wins; otherwise the strongest
// signal does.
type AutoPicker struct {
	NameHint string
}

func (p AutoPicker) Pick(devices []Device) (Device, error) {
	if len(devices) == 0 {
		return Device{}, ErrCancelled
	}
	if p.NameHint != "" {
		hint := strings.ToLower(p.NameHint)
		for _, d := range devices {
			if strings.Contains(strings.ToLower(d.Name), hint) {
				return d, nil
			}
		}
	}
	best := devices[0]
	for _, d := range devices[1:] {
		if d.RSSI > best.RSSI {
			best = d
		}
	}
	return best, nil
}

// IsCancellation reports whether err is a dismissed device chooser. Platform
// choosers phrase this differently, so the message is matched as well as the
// sentinel; cancellations are silent, never an error toast.
func IsCancellation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCancelled) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "cancel") || strings.Contains(msg, "dismissed")
}
