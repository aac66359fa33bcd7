package ble

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestIBeacon(t *testing.T) {
	u := MustParseVendorUUID("E2C56DB5-DFFB-48D2-B060-D0F5A71096E0")
	a, err := IBeacon(u, 1, 2, -59)
	if err != nil {
		t.Fatal(err)
	}
	if a.Len() > MaxLegacyPacketLength {
		t.Fatalf("payload overflows: %d bytes", a.Len())
	}
	f := a.Flags()
	if f == nil || !f.GeneralDiscovery() || !f.LEOnly() {
		t.Error("discovery flags not set")
	}

	md, ok := a.RawManufacturerData(appleCompanyID)
	if !ok {
		t.Fatal("manufacturer data absent")
	}
	if len(md) != 23 || md[0] != 0x02 || md[1] != 0x15 {
		t.Fatalf("header: %x", md[:2])
	}
	// the proximity UUID rides big endian
	if !bytes.Equal(md[2:18], []byte{
		0xE2, 0xC5, 0x6D, 0xB5, 0xDF, 0xFB, 0x48, 0xD2,
		0xB0, 0x60, 0xD0, 0xF5, 0xA7, 0x10, 0x96, 0xE0,
	}) {
		t.Errorf("proximity UUID: %x", md[2:18])
	}
	if md[18] != 0 || md[19] != 1 || md[20] != 0 || md[21] != 2 {
		t.Errorf("major/minor: %x", md[18:22])
	}
	if int8(md[22]) != -59 {
		t.Errorf("power: %d", int8(md[22]))
	}
}

func TestIBeaconFromData(t *testing.T) {
	if _, err := IBeaconFromData(make([]byte, 22)); errors.Cause(err) != ErrMalformedValue {
		t.Errorf("short data: got %v, want ErrMalformedValue", err)
	}
	if _, err := IBeacon(UUID16(0x180F), 0, 0, 0); errors.Cause(err) != ErrMalformedValue {
		t.Errorf("16-bit UUID: got %v, want ErrMalformedValue", err)
	}
}
