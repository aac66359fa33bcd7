package ble

import (
	"fmt"
	"time"
)

// This file declares the surface this package consumes from the native
// radio stack. Implementations live outside this package (HCI, vendor
// soft devices, test stubs); everything here is specified only as far as
// the codec and binding layers need.

// Addr is a 6-byte Bluetooth device address.
type Addr [6]byte

func (a Addr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		a[0], a[1], a[2], a[3], a[4], a[5])
}

// A ScanEntry is one advertisement received during a scan, as delivered
// by the radio.
type ScanEntry struct {
	// Data is the raw advertising or scan-response payload.
	Data []byte
	// Addr is the advertiser's address.
	Addr Addr
	// RSSI is the received signal strength in dBm.
	RSSI int
	// Connectable reports whether the advertiser accepts connections.
	Connectable bool
	// ScanResponse reports whether Data is a scan-response payload.
	ScanResponse bool
}

// Matches reports whether the entry's payload matches the given field
// prefixes, per MatchesPrefixes.
func (e ScanEntry) Matches(prefixes [][]byte, matchAll bool) bool {
	return MatchesPrefixes(e.Data, prefixes, matchAll)
}

// AdvertisingOptions configures a radio advertising run. Zero values let
// the radio pick its defaults.
type AdvertisingOptions struct {
	Connectable bool
	Interval    time.Duration
	// Timeout stops advertising after the given duration; zero means
	// advertise until stopped.
	Timeout time.Duration
}

// ScanOptions configures a radio scan. Zero values let the radio pick its
// defaults.
type ScanOptions struct {
	// Prefixes filters delivered entries to those matching at least one
	// prefix, in the merged length-prefixed form of Kind.PrefixBytes.
	Prefixes []byte
	// BufferSize bounds the entries buffered between radio and caller.
	BufferSize int
	// Timeout stops the scan after the given duration; zero means scan
	// until stopped.
	Timeout time.Duration
	// Interval and Window control radio listening duty cycle.
	Interval time.Duration
	Window   time.Duration
	// MinimumRSSI drops entries weaker than the given dBm value.
	MinimumRSSI int
	// Active requests scan responses.
	Active bool
}

// Radio is the native BLE stack this package runs on top of.
type Radio interface {
	// StartAdvertising transmits the payload, and optionally a separate
	// scan-response payload, until stopped.
	StartAdvertising(payload, scanResponse []byte, opts AdvertisingOptions) error
	StopAdvertising() error

	// StartScan delivers received advertisements until the scan stops.
	// The call blocks only to start the scan; entries arrive on the
	// returned channel, which is closed when the scan ends.
	StartScan(opts ScanOptions) (<-chan ScanEntry, error)
	StopScan() error

	// Connect establishes a connection to the peer at addr. Exceeding the
	// timeout is a hard error.
	Connect(addr Addr, timeout time.Duration) (Conn, error)

	// AddService appends a new local service to the attribute table and
	// returns its handle. Characteristics for the service must be added
	// before any other service is appended.
	AddService(u UUID, secondary bool) (ServiceHandle, error)
}

// Conn is an established connection to a peer.
type Conn interface {
	Connected() bool
	Disconnect() error

	// DiscoverServices returns handles for the peer's services, filtered
	// to the given UUIDs; a nil filter discovers everything. Exceeding
	// the connection's timeout is a hard error.
	DiscoverServices(uuids []UUID) ([]ServiceHandle, error)
}

// ServiceHandle is an attribute-table service, either served locally or
// discovered on a peer. It is owned by the Service bound to it and is
// invalidated when the owning connection goes away.
type ServiceHandle interface {
	UUID() UUID
	// Remote reports whether the service lives on a peer.
	Remote() bool

	// Characteristics lists the peer's discovered characteristics.
	// Remote handles only.
	Characteristics() []CharacteristicHandle

	// AddCharacteristic appends a characteristic to this local service.
	// Local handles only.
	AddCharacteristic(c Characteristic) (CharacteristicHandle, error)
}

// CharacteristicHandle is a bound characteristic value.
type CharacteristicHandle interface {
	UUID() UUID
	Value() ([]byte, error)
	SetValue(v []byte) error
	// SetCCCD toggles notifications from the peer for this
	// characteristic. Remote handles only.
	SetCCCD(notify bool) error
}
