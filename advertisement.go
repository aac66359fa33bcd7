package ble

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// An Advertisement is a typed view over one advertising or scan-response
// payload. It has exactly two shapes, fixed at construction: an outgoing
// payload under construction (mutable, no peer metadata) or an incoming
// payload parsed from a ScanEntry (immutable, with address and RSSI).
type Advertisement struct {
	entries      *EntryMap
	addr         Addr
	rssi         int
	connectable  bool
	scanResponse bool
	mutable      bool

	// lazily bound composite views
	flags        *AdvertisingFlags
	serviceLists map[uint16]*BoundServiceList
	mfg          map[uint16]*ManufacturerData
}

// NewAdvertisement returns an empty, mutable advertisement for transmission.
func NewAdvertisement() *Advertisement {
	return &Advertisement{
		entries: NewEntryMap(),
		mutable: true,
	}
}

// ParseAdvertisement decodes a received scan entry into an immutable
// advertisement carrying the entry's peer metadata.
func ParseAdvertisement(e ScanEntry) (*Advertisement, error) {
	m, err := DecodeEntries(e.Data, KeyWidth8)
	if err != nil {
		return nil, errors.Wrap(err, "parse advertisement")
	}
	return &Advertisement{
		entries:      m,
		addr:         e.Addr,
		rssi:         e.RSSI,
		connectable:  e.Connectable,
		scanResponse: e.ScanResponse,
	}, nil
}

// Mutable reports whether the advertisement may be modified.
func (a *Advertisement) Mutable() bool { return a.mutable }

// ScanResponse reports whether this is a scan-response payload rather than
// a primary advertising payload.
func (a *Advertisement) ScanResponse() bool { return a.scanResponse }

// Connectable reports whether the advertiser accepts connections.
func (a *Advertisement) Connectable() bool { return a.connectable }

// SetConnectable marks an outgoing advertisement as connectable. The flag
// is scan metadata, not payload, so it is settable on either shape.
func (a *Advertisement) SetConnectable(c bool) { a.connectable = c }

// Address returns the peer address. It is only present on advertisements
// parsed from a scan entry.
func (a *Advertisement) Address() (Addr, bool) {
	return a.addr, !a.mutable
}

// RSSI returns the received signal strength. It is only present on
// advertisements parsed from a scan entry.
func (a *Advertisement) RSSI() (int, bool) {
	return a.rssi, !a.mutable
}

// Entries exposes the underlying entry map.
func (a *Advertisement) Entries() *EntryMap { return a.entries }

// Len returns the encoded payload length in bytes.
func (a *Advertisement) Len() int { return a.entries.EncodedLen(KeyWidth8) }

// Bytes encodes the current entries as a wire payload.
func (a *Advertisement) Bytes() []byte { return a.entries.Encode(KeyWidth8) }

func (a *Advertisement) String() string {
	return fmt.Sprintf("Advertisement(data=%x)", a.Bytes())
}

// setEntry replaces the value stored under adt, refusing mutation of an
// immutable advertisement and any change that would push the payload past
// MaxLegacyPacketLength. Nothing is truncated on overflow.
func (a *Advertisement) setEntry(adt uint16, v []byte) error {
	return a.setEntryAll(adt, [][]byte{v})
}

// setEntryAll is setEntry for keys holding multiple occurrences.
func (a *Advertisement) setEntryAll(adt uint16, vs [][]byte) error {
	if !a.mutable {
		return errors.Wrapf(ErrImmutable, "adt 0x%02X", adt)
	}
	total := 1 + KeyWidth8
	for _, v := range vs {
		total += len(v)
	}
	next := a.Len() - a.entries.runLen(adt, KeyWidth8) + total
	if next > MaxLegacyPacketLength {
		return errors.Wrapf(ErrPacketTooLong, "adt 0x%02X would encode %d bytes", adt, next)
	}
	a.entries.SetAll(adt, vs)
	return nil
}

// stringAt reads an entry as a UTF-8 string. The string carries no
// terminator; its length comes from the run's length byte.
func (a *Advertisement) stringAt(adt uint16) (string, bool) {
	v, ok := a.entries.Get(adt)
	if !ok {
		return "", false
	}
	return string(v), true
}

// ShortName returns the shortened local name, if present.
func (a *Advertisement) ShortName() (string, bool) { return a.stringAt(ADTShortName) }

// SetShortName sets the shortened local name.
func (a *Advertisement) SetShortName(s string) error { return a.setEntry(ADTShortName, []byte(s)) }

// CompleteName returns the complete local name, if present.
func (a *Advertisement) CompleteName() (string, bool) { return a.stringAt(ADTCompleteName) }

// SetCompleteName sets the complete local name.
func (a *Advertisement) SetCompleteName(s string) error {
	return a.setEntry(ADTCompleteName, []byte(s))
}

// LocalName returns the shortened name if present, else the complete name.
func (a *Advertisement) LocalName() string {
	if s, ok := a.ShortName(); ok {
		return s
	}
	s, _ := a.CompleteName()
	return s
}

// TxPower returns the advertised transmit power level in dBm, if present
// with its expected 1-byte layout.
func (a *Advertisement) TxPower() (int8, bool) {
	v, ok := a.entries.Get(ADTTxPower)
	if !ok || len(v) != 1 {
		return 0, false
	}
	return int8(v[0]), true
}

// SetTxPower sets the advertised transmit power level.
func (a *Advertisement) SetTxPower(p int8) error {
	return a.setEntry(ADTTxPower, []byte{byte(p)})
}

// Appearance returns the advertised appearance value, if present with its
// expected 2-byte layout.
func (a *Advertisement) Appearance() (uint16, bool) {
	v, ok := a.entries.Get(ADTAppearance)
	if !ok || len(v) != 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(v), true
}

// SetAppearance sets the advertised appearance value.
func (a *Advertisement) SetAppearance(ap uint16) error {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, ap)
	return a.setEntry(ADTAppearance, b)
}

// Flags returns the advertising flags view, materializing an empty flags
// entry on first access of a mutable advertisement. It returns nil when
// the flags entry is absent on an immutable advertisement, or when
// materializing it would overflow the packet.
func (a *Advertisement) Flags() *AdvertisingFlags {
	if a.flags != nil {
		return a.flags
	}
	v, ok := a.entries.Get(ADTFlags)
	if !ok {
		if !a.mutable {
			return nil
		}
		if err := a.setEntry(ADTFlags, []byte{0}); err != nil {
			return nil
		}
	}
	f := &AdvertisingFlags{adv: a}
	if ok && len(v) > 0 {
		f.bits = v[0]
	}
	a.flags = f
	return f
}

// AdvertisingFlags is the advertising flags bitfield bound to one
// advertisement. Setters re-pack the single flag byte on every change.
type AdvertisingFlags struct {
	adv  *Advertisement
	bits byte
}

// Byte returns the raw flag byte.
func (f *AdvertisingFlags) Byte() byte { return f.bits }

// LimitedDiscovery reports discoverability for a limited time period.
func (f *AdvertisingFlags) LimitedDiscovery() bool { return f.bits&flagLimitedDiscoverable != 0 }

// GeneralDiscovery reports advertising until discovered.
func (f *AdvertisingFlags) GeneralDiscovery() bool { return f.bits&flagGeneralDiscoverable != 0 }

// LEOnly reports that BR/EDR is not supported.
func (f *AdvertisingFlags) LEOnly() bool { return f.bits&flagLEOnly != 0 }

// SetLimitedDiscovery sets the limited-discovery bit.
func (f *AdvertisingFlags) SetLimitedDiscovery(on bool) error {
	return f.set(flagLimitedDiscoverable, on)
}

// SetGeneralDiscovery sets the general-discovery bit.
func (f *AdvertisingFlags) SetGeneralDiscovery(on bool) error {
	return f.set(flagGeneralDiscoverable, on)
}

// SetLEOnly sets the BR/EDR-not-supported bit.
func (f *AdvertisingFlags) SetLEOnly(on bool) error {
	return f.set(flagLEOnly, on)
}

func (f *AdvertisingFlags) set(mask byte, on bool) error {
	old := f.bits
	if on {
		f.bits |= mask
	} else {
		f.bits &^= mask
	}
	if err := f.adv.setEntry(ADTFlags, []byte{f.bits}); err != nil {
		f.bits = old
		return err
	}
	return nil
}

// ProvideServices builds a connectable advertisement announcing the
// services available upon connection.
func ProvideServices(uu ...UUID) (*Advertisement, error) {
	a, err := discoverableAdvertisement()
	if err != nil {
		return nil, err
	}
	if err := a.Services().Extend(uu); err != nil {
		return nil, err
	}
	return a, nil
}

// SolicitServices builds a connectable advertisement announcing the
// services the device would like its peer to provide.
func SolicitServices(uu ...UUID) (*Advertisement, error) {
	a, err := discoverableAdvertisement()
	if err != nil {
		return nil, err
	}
	if err := a.SolicitedServices().Extend(uu); err != nil {
		return nil, err
	}
	return a, nil
}

func discoverableAdvertisement() (*Advertisement, error) {
	a := NewAdvertisement()
	a.SetConnectable(true)
	f := a.Flags()
	if err := f.SetGeneralDiscovery(true); err != nil {
		return nil, err
	}
	if err := f.SetLEOnly(true); err != nil {
		return nil, err
	}
	return a, nil
}

// NameScanResponse builds a scan-response payload carrying the given name,
// truncated to a shortened name as necessary.
func NameScanResponse(name string) *Advertisement {
	a := NewAdvertisement()
	a.scanResponse = true
	if max := MaxLegacyPacketLength - 2; len(name) > max {
		a.SetShortName(name[:max])
		return a
	}
	a.SetCompleteName(name)
	return a
}
