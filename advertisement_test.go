package ble

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func parseAdv(t *testing.T, data []byte) *Advertisement {
	t.Helper()
	a, err := ParseAdvertisement(ScanEntry{
		Data: data,
		Addr: Addr{0xC0, 0x01, 0x02, 0x03, 0x04, 0x05},
		RSSI: -42,
	})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestAdvertisementShapes(t *testing.T) {
	out := NewAdvertisement()
	if !out.Mutable() {
		t.Error("outgoing advertisement not mutable")
	}
	if _, ok := out.Address(); ok {
		t.Error("outgoing advertisement has an address")
	}
	if _, ok := out.RSSI(); ok {
		t.Error("outgoing advertisement has an RSSI")
	}

	in := parseAdv(t, []byte("\x02\x01\x06\x03\x09AB"))
	if in.Mutable() {
		t.Error("incoming advertisement mutable")
	}
	if addr, ok := in.Address(); !ok || addr.String() != "c0:01:02:03:04:05" {
		t.Errorf("address: %v %v", addr, ok)
	}
	if rssi, ok := in.RSSI(); !ok || rssi != -42 {
		t.Errorf("rssi: %v %v", rssi, ok)
	}
	if err := in.SetShortName("nope"); errors.Cause(err) != ErrImmutable {
		t.Errorf("mutation of incoming advertisement: got %v, want ErrImmutable", err)
	}
}

func TestAdvertisementNames(t *testing.T) {
	a := NewAdvertisement()
	if a.LocalName() != "" {
		t.Errorf("empty advertisement has name %q", a.LocalName())
	}
	if err := a.SetCompleteName("gatt server"); err != nil {
		t.Fatal(err)
	}
	if got := a.LocalName(); got != "gatt server" {
		t.Errorf("LocalName: got %q", got)
	}
	if err := a.SetShortName("gatt"); err != nil {
		t.Fatal(err)
	}
	// the shortened name wins when both are present
	if got := a.LocalName(); got != "gatt" {
		t.Errorf("LocalName: got %q", got)
	}
	if s, ok := a.CompleteName(); !ok || s != "gatt server" {
		t.Errorf("CompleteName: got %q %v", s, ok)
	}
}

func TestAdvertisementScalars(t *testing.T) {
	a := NewAdvertisement()
	if _, ok := a.TxPower(); ok {
		t.Error("TxPower present on empty advertisement")
	}
	if err := a.SetTxPower(-12); err != nil {
		t.Fatal(err)
	}
	if p, ok := a.TxPower(); !ok || p != -12 {
		t.Errorf("TxPower: got %d %v", p, ok)
	}
	if err := a.SetAppearance(0x03C1); err != nil {
		t.Fatal(err)
	}
	if ap, ok := a.Appearance(); !ok || ap != 0x03C1 {
		t.Errorf("Appearance: got %04X %v", ap, ok)
	}

	// entries with the wrong layout read as absent
	bad := parseAdv(t, []byte{0x03, 0x0A, 0x01, 0x02})
	if _, ok := bad.TxPower(); ok {
		t.Error("TxPower accepted a 2-byte value")
	}
}

func TestAdvertisementOverflow(t *testing.T) {
	a := NewAdvertisement()
	// a 29-byte name encodes to exactly MaxLegacyPacketLength
	name := strings.Repeat("x", MaxLegacyPacketLength-2)
	if err := a.SetCompleteName(name); err != nil {
		t.Fatal(err)
	}
	if a.Len() != MaxLegacyPacketLength {
		t.Fatalf("Len: got %d, want %d", a.Len(), MaxLegacyPacketLength)
	}
	if err := a.SetCompleteName(name + "x"); errors.Cause(err) != ErrPacketTooLong {
		t.Errorf("got %v, want ErrPacketTooLong", err)
	}
	// the oversized write left the payload untouched
	if a.Len() != MaxLegacyPacketLength {
		t.Errorf("payload modified after rejected write: %d bytes", a.Len())
	}
	// replacing the entry at the same size still fits
	if err := a.SetCompleteName(strings.Repeat("y", MaxLegacyPacketLength-2)); err != nil {
		t.Errorf("same-size replacement: %v", err)
	}
}

func TestAdvertisementFlags(t *testing.T) {
	a := NewAdvertisement()
	f := a.Flags()
	if f == nil {
		t.Fatal("Flags nil on mutable advertisement")
	}
	// first access materializes an empty flags entry
	if !bytes.Equal(a.Bytes(), []byte{0x02, 0x01, 0x00}) {
		t.Fatalf("materialized payload: %x", a.Bytes())
	}
	if err := f.SetGeneralDiscovery(true); err != nil {
		t.Fatal(err)
	}
	if err := f.SetLEOnly(true); err != nil {
		t.Fatal(err)
	}
	if f.Byte() != flagGeneralDiscoverable|flagLEOnly {
		t.Errorf("flag byte: %02X", f.Byte())
	}
	if !bytes.Equal(a.Bytes(), []byte{0x02, 0x01, 0x06}) {
		t.Errorf("payload after set: %x", a.Bytes())
	}
	if err := f.SetGeneralDiscovery(false); err != nil {
		t.Fatal(err)
	}
	if f.GeneralDiscovery() || !f.LEOnly() {
		t.Errorf("flag byte after clear: %02X", f.Byte())
	}
	// the view is cached
	if a.Flags() != f {
		t.Error("Flags returned a second view")
	}
}

func TestAdvertisementFlagsImmutable(t *testing.T) {
	withFlags := parseAdv(t, []byte{0x02, 0x01, 0x06})
	f := withFlags.Flags()
	if f == nil {
		t.Fatal("Flags nil despite present entry")
	}
	if !f.GeneralDiscovery() || !f.LEOnly() || f.LimitedDiscovery() {
		t.Errorf("flag byte: %02X", f.Byte())
	}
	if err := f.SetLEOnly(false); errors.Cause(err) != ErrImmutable {
		t.Errorf("got %v, want ErrImmutable", err)
	}
	if !f.LEOnly() {
		t.Error("rejected write changed the cached bits")
	}

	without := parseAdv(t, []byte("\x03\x09AB"))
	if without.Flags() != nil {
		t.Error("Flags materialized on immutable advertisement")
	}
}

func TestAdvertisementServices(t *testing.T) {
	// one complete 16-bit list and one 128-bit entry
	vendor := MustParseVendorUUID("6E400001-B5A3-F393-E0A9-E50E24DCCA9E")
	raw := append([]byte{0x05, 0x03, 0x0F, 0x18, 0x0A, 0x18, 17, 0x07}, vendor.Bytes()...)
	a := parseAdv(t, raw)

	l := a.Services()
	if l == nil {
		t.Fatal("Services nil despite present entries")
	}
	if l.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", l.Len())
	}
	if !l.Contains(UUID16(0x180F)) || !l.Contains(UUID16(0x180A)) || !l.Contains(vendor) {
		t.Errorf("Contains misses listed UUID: %v", l.UUIDs())
	}
	if l.Contains(UUID16(0x1800)) {
		t.Error("Contains found an unlisted UUID")
	}
	if a.Services() != l {
		t.Error("Services returned a second view")
	}
	// solicited list is a distinct, absent view
	if a.SolicitedServices() != nil {
		t.Error("SolicitedServices present on advertisement without solicitation entries")
	}
}

func TestServiceListAppend(t *testing.T) {
	a := NewAdvertisement()
	l := a.Services()
	if err := l.Append(UUID16(0x180F)); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(UUID16(0x180F)); err != nil {
		t.Fatal(err)
	}
	if l.Len() != 1 {
		t.Errorf("duplicate append grew the list: %d", l.Len())
	}
	if err := l.Extend([]UUID{UUID16(0x180A), UUID16(0x180F)}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), []byte{0x05, 0x02, 0x0F, 0x18, 0x0A, 0x18}) {
		t.Errorf("payload: %x", a.Bytes())
	}
}

func TestServiceData(t *testing.T) {
	a := NewAdvertisement()
	batt := UUID16(0x180F)
	hr := UUID16(0x180D)
	if err := a.SetServiceData(batt, []byte{0x64}); err != nil {
		t.Fatal(err)
	}
	if err := a.SetServiceData(hr, []byte{0x3C}); err != nil {
		t.Fatal(err)
	}
	if err := a.SetServiceData(batt, []byte{0x32}); err != nil {
		t.Fatal(err)
	}
	if v, ok := a.ServiceData(batt); !ok || !bytes.Equal(v, []byte{0x32}) {
		t.Errorf("battery data: %x %v", v, ok)
	}
	// replacing one service's data leaves the other's alone
	if v, ok := a.ServiceData(hr); !ok || !bytes.Equal(v, []byte{0x3C}) {
		t.Errorf("heart rate data: %x %v", v, ok)
	}
	if _, ok := a.ServiceData(UUID16(0x1800)); ok {
		t.Error("ServiceData found data for unadvertised service")
	}
}

func TestManufacturerData(t *testing.T) {
	// company 0x0822, one inner entry under key 0x0001
	a := parseAdv(t, []byte{0x08, 0xFF, 0x22, 0x08, 0x04, 0x01, 0x00, 0xDE, 0xAD})
	m := a.ManufacturerData(0x0822, KeyWidth16)
	if m == nil {
		t.Fatal("ManufacturerData nil despite present entry")
	}
	if m.CompanyID() != 0x0822 {
		t.Errorf("CompanyID: %04X", m.CompanyID())
	}
	if v, ok := m.Get(0x0001); !ok || !bytes.Equal(v, []byte{0xDE, 0xAD}) {
		t.Errorf("inner value: %x %v", v, ok)
	}
	if err := m.Set(0x0001, []byte{0xBE}); errors.Cause(err) != ErrImmutable {
		t.Errorf("got %v, want ErrImmutable", err)
	}
	if a.ManufacturerData(0x0823, KeyWidth16) != nil {
		t.Error("view for unknown company")
	}
}

func TestManufacturerDataSet(t *testing.T) {
	a := NewAdvertisement()
	m := a.ManufacturerData(0x0822, KeyWidth16)
	if err := m.Set(0x0001, []byte{0xDE, 0xAD}); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(0x0002, []byte{0x01}); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x0C, 0xFF, 0x22, 0x08, 0x04, 0x01, 0x00, 0xDE, 0xAD, 0x03, 0x02, 0x00, 0x01}
	if !bytes.Equal(a.Bytes(), want) {
		t.Errorf("payload: %x, want %x", a.Bytes(), want)
	}
	// raw form drops the company identifier
	if raw, ok := a.RawManufacturerData(0x0822); !ok || !bytes.Equal(raw, want[4:]) {
		t.Errorf("raw: %x %v", raw, ok)
	}
}

func TestNameScanResponse(t *testing.T) {
	a := NameScanResponse("thermometer")
	if !a.ScanResponse() {
		t.Error("not marked as scan response")
	}
	if s, ok := a.CompleteName(); !ok || s != "thermometer" {
		t.Errorf("complete name: %q %v", s, ok)
	}

	long := strings.Repeat("n", 40)
	a = NameScanResponse(long)
	if _, ok := a.CompleteName(); ok {
		t.Error("long name kept complete")
	}
	if s, ok := a.ShortName(); !ok || s != long[:MaxLegacyPacketLength-2] {
		t.Errorf("short name: %q %v", s, ok)
	}
	if a.Len() > MaxLegacyPacketLength {
		t.Errorf("scan response overflows: %d bytes", a.Len())
	}
}

func TestProvideServices(t *testing.T) {
	a, err := ProvideServices(UUID16(0x180F))
	if err != nil {
		t.Fatal(err)
	}
	if !a.Connectable() {
		t.Error("not connectable")
	}
	f := a.Flags()
	if f == nil || !f.GeneralDiscovery() || !f.LEOnly() {
		t.Errorf("flags: %v", f)
	}
	if l := a.Services(); l == nil || !l.Contains(UUID16(0x180F)) {
		t.Error("service list missing provided UUID")
	}

	s, err := SolicitServices(MustParseVendorUUID("6E400001-B5A3-F393-E0A9-E50E24DCCA9E"))
	if err != nil {
		t.Fatal(err)
	}
	if l := s.SolicitedServices(); l == nil || l.Len() != 1 {
		t.Error("solicited list missing UUID")
	}
}
