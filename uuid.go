package ble

import (
	"encoding/binary"
	"fmt"

	guuid "github.com/google/uuid"
	"github.com/pkg/errors"
)

// A UUID identifies a BLE attribute. It is either a standard 16-bit UUID
// assigned by the Bluetooth SIG or a vendor-defined 128-bit UUID. A
// standard and a vendor UUID are never equal, even when the vendor UUID
// embeds the standard one in the base UUID pattern.
//
// UUIDs are immutable and comparable; they may be used as map keys.
type UUID struct {
	vendor bool
	short  uint16
	long   [16]byte // little-endian, as transmitted on the wire
}

// UUID16 returns the standard UUID for a SIG-assigned number, such as 0x1800.
func UUID16(v uint16) UUID {
	return UUID{short: v}
}

// VendorUUID returns the vendor UUID for 16 little-endian wire bytes.
func VendorUUID(b [16]byte) UUID {
	return UUID{vendor: true, long: b}
}

// ParseVendorUUID parses a canonical big-endian UUID string, such as
// "6E400001-B5A3-F393-E0A9-E50E24DCCA9E".
func ParseVendorUUID(s string) (UUID, error) {
	g, err := guuid.Parse(s)
	if err != nil {
		return UUID{}, errors.Wrapf(err, "parse vendor uuid %q", s)
	}
	var le [16]byte
	copy(le[:], reverse(g[:]))
	return VendorUUID(le), nil
}

// MustParseVendorUUID parses a canonical UUID string,
// like ParseVendorUUID, but panics in case of error.
func MustParseVendorUUID(s string) UUID {
	u, err := ParseVendorUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// uuidFromBytes interprets little-endian wire bytes as a UUID.
func uuidFromBytes(b []byte) (UUID, error) {
	switch len(b) {
	case 2:
		return UUID16(binary.LittleEndian.Uint16(b)), nil
	case 16:
		var le [16]byte
		copy(le[:], b)
		return VendorUUID(le), nil
	}
	return UUID{}, errors.Errorf("UUIDs must have length 2 or 16, got %d", len(b))
}

// Vendor reports whether the UUID is a vendor-defined 128-bit UUID.
func (u UUID) Vendor() bool { return u.vendor }

// Len returns the length of the UUID, in bytes.
// BLE UUIDs are either 2 or 16 bytes.
func (u UUID) Len() int {
	if u.vendor {
		return 16
	}
	return 2
}

// Bytes returns the UUID in little-endian wire order.
func (u UUID) Bytes() []byte {
	if u.vendor {
		b := make([]byte, 16)
		copy(b, u.long[:])
		return b
	}
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, u.short)
	return b
}

// PackInto writes the UUID's wire bytes into b at offset.
func (u UUID) PackInto(b []byte, offset int) error {
	if len(b)-offset < u.Len() {
		return errors.Errorf("need %d bytes at offset %d, have %d", u.Len(), offset, len(b)-offset)
	}
	copy(b[offset:], u.Bytes())
	return nil
}

// Equal reports whether v represents the same UUID as u.
func (u UUID) Equal(v UUID) bool { return u == v }

// String renders a standard UUID as four hex digits and a vendor UUID in
// the canonical dashed form.
func (u UUID) String() string {
	if !u.vendor {
		return fmt.Sprintf("%04X", u.short)
	}
	var be guuid.UUID
	copy(be[:], reverse(u.long[:]))
	return be.String()
}

// ContainsUUID reports whether u is in the slice s. A nil slice matches
// everything, mirroring the radio's "no filter" convention.
func ContainsUUID(s []UUID, u UUID) bool {
	if s == nil {
		return true
	}
	for _, a := range s {
		if a.Equal(u) {
			return true
		}
	}
	return false
}

// reverse returns a reversed copy of u.
func reverse(u []byte) []byte {
	// Special-case 16 bit UUIDs for speed.
	l := len(u)
	if l == 2 {
		return []byte{u[1], u[0]}
	}
	b := make([]byte, l)
	for i := 0; i < l/2+1; i++ {
		b[i], b[l-i-1] = u[l-i-1], u[i]
	}
	return b
}
