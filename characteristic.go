package ble

// A Characteristic declares one characteristic of a service schema: its
// UUID, property bitmask, access permissions, and value sizing. It carries
// no per-instance state; binding state lives in the Service.
type Characteristic struct {
	UUID       UUID
	Properties Property

	// ReadPerm and WritePerm are the security modes required for client
	// access. The zero value is Open.
	ReadPerm  Permission
	WritePerm Permission

	// MaxLength bounds the value size in bytes. Zero derives the bound
	// from the initial value.
	MaxLength int
	// FixedLength pins the value to exactly MaxLength bytes.
	FixedLength bool
	// InitialValue seeds the characteristic when served locally. Nil is
	// zero-filled to MaxLength.
	InitialValue []byte
}

// withDerived resolves the initial value and max length the way local
// binding requires: an explicit value wins, else a zero-filled MaxLength
// buffer, else empty; an unset MaxLength follows the initial value.
func (c Characteristic) withDerived(initial []byte) Characteristic {
	if initial == nil {
		initial = c.InitialValue
	}
	if initial == nil && c.MaxLength > 0 {
		initial = make([]byte, c.MaxLength)
	}
	if initial == nil {
		initial = []byte{}
	}
	if c.MaxLength == 0 {
		c.MaxLength = len(initial)
	}
	c.InitialValue = initial
	return c
}

// A ComplexCharacteristic is a characteristic whose bound form is a
// wrapper object rather than a raw value, e.g. a buffered stream. Once a
// Service materializes the wrapper, access goes straight to it.
type ComplexCharacteristic struct {
	Characteristic

	// Wrap builds the stand-in object from the bound handle. remote
	// reports the owning Service's role, fixed at construction.
	Wrap func(h CharacteristicHandle, remote bool) (interface{}, error)
}
