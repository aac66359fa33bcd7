package ble

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// appleCompanyID is the manufacturer identifier iBeacon payloads carry.
const appleCompanyID = 0x004C

// IBeaconFromData builds an iBeacon advertisement from 23 bytes of
// prepared manufacturer data.
func IBeaconFromData(md []byte) (*Advertisement, error) {
	if len(md) != 23 {
		return nil, errors.Wrapf(ErrMalformedValue, "iBeacon data must be 23 bytes, got %d", len(md))
	}
	a := NewAdvertisement()
	f := a.Flags()
	if err := f.SetGeneralDiscovery(true); err != nil {
		return nil, err
	}
	if err := f.SetLEOnly(true); err != nil {
		return nil, err
	}
	if err := a.SetRawManufacturerData(appleCompanyID, md); err != nil {
		return nil, err
	}
	return a, nil
}

// IBeacon builds an iBeacon advertisement with the given proximity UUID,
// major and minor values, and measured transmit power.
func IBeacon(u UUID, major, minor uint16, pwr int8) (*Advertisement, error) {
	if u.Len() != 16 {
		return nil, errors.Wrap(ErrMalformedValue, "iBeacon needs a 128-bit proximity UUID")
	}
	md := make([]byte, 23)
	md[0] = 0x02                               // Data type: iBeacon
	md[1] = 0x15                               // Data length: 21 bytes
	copy(md[2:], reverse(u.Bytes()))           // Big endian
	binary.BigEndian.PutUint16(md[18:], major) // Big endian
	binary.BigEndian.PutUint16(md[20:], minor) // Big endian
	md[22] = uint8(pwr)                        // Measured Tx Power
	return IBeaconFromData(md)
}
