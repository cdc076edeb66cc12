package ble

import "fmt"

// uuid16 expands a 16-bit Bluetooth SIG UUID into its canonical 128-bit form.
func uuid16(short string) string {
	return fmt.Sprintf("0000%s-0000-1000-8000-00805f9b34fb", short)
}

// Curated service UUIDs for printer vendor families and generic BLE serial
// bridges, in priority order. Real-world thermal printers expose these
// inconsistently, which is why broad enumeration runs first and this list is
// only the fallback.
var knownServiceUUIDs = []string{
	uuid16("18f0"), // common thermal printer service (GOOJPRT, Xprinter)
	uuid16("ff00"), // Phomemo family
	uuid16("ffe0"), // HM-10 style serial bridge
	uuid16("ffe5"), // HM-10 variant, write side
	uuid16("ae30"), // Catiga/PeriPage family
	"e7810a71-73ae-499d-8c15-faa9aef0c3f2", // ISSC transparent UART
	"49535343-fe7d-4ae5-8fa9-9fafd205e455", // Microchip transparent UART
	"6e400001-b5a3-f393-e0a9-e50e24dcca9e", // Nordic UART service
}

// Curated write characteristic UUIDs, tried within each known service
// before falling back to enumerating that service.
var knownWriteCharUUIDs = []string{
	uuid16("2af1"), // printer data out
	uuid16("ff02"),
	uuid16("ffe1"),
	uuid16("ffe9"),
	uuid16("ae01"),
	"bef8d6c9-9c21-4c9e-b632-bd58c1009f9f", // ISSC write
	"49535343-8841-43f4-a8d4-ecbe34729bb3", // Microchip write
	"6e400002-b5a3-f393-e0a9-e50e24dcca9e", // Nordic UART RX
}

// KnownServiceUUIDs returns the curated service list for use as optional
// scan filters when prompting the user to pick a device.
func KnownServiceUUIDs() []string {
	out := make([]string, len(knownServiceUUIDs))
	copy(out, knownServiceUUIDs)
	return out
}
