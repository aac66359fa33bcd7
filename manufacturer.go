package ble

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// ManufacturerData is a keyed sub-structure embedded in the manufacturer
// specific data entry of one advertisement. The value bytes following the
// 2-byte company identifier are themselves a run-encoded entry map with a
// company-specific key width.
type ManufacturerData struct {
	adv       *Advertisement
	companyID uint16
	keyWidth  int
	entries   *EntryMap
}

// ManufacturerData returns the manufacturer-data view for the given
// company identifier, decoding the existing entry when present. keyWidth
// is the company-specific inner key width, KeyWidth8 or KeyWidth16. It
// returns nil when no manufacturer data for the company is present on an
// immutable advertisement.
func (a *Advertisement) ManufacturerData(companyID uint16, keyWidth int) *ManufacturerData {
	if m, ok := a.mfg[companyID]; ok {
		return m
	}
	raw, present := a.manufacturerRaw(companyID)
	if !present && !a.mutable {
		return nil
	}
	m := &ManufacturerData{
		adv:       a,
		companyID: companyID,
		keyWidth:  keyWidth,
		entries:   NewEntryMap(),
	}
	if present {
		inner, err := DecodeEntries(raw[2:], keyWidth)
		if err == nil {
			m.entries = inner
		}
	}
	if a.mfg == nil {
		a.mfg = make(map[uint16]*ManufacturerData)
	}
	a.mfg[companyID] = m
	return m
}

// manufacturerRaw finds the manufacturer-data occurrence whose leading
// company identifier matches companyID.
func (a *Advertisement) manufacturerRaw(companyID uint16) ([]byte, bool) {
	prefix := make([]byte, 2)
	binary.LittleEndian.PutUint16(prefix, companyID)
	for _, v := range a.entries.GetAll(ADTManufacturerData) {
		if bytes.HasPrefix(v, prefix) {
			return v, true
		}
	}
	return nil, false
}

// CompanyID returns the company identifier the view is scoped to.
func (m *ManufacturerData) CompanyID() uint16 { return m.companyID }

// Contains reports whether key is present.
func (m *ManufacturerData) Contains(key uint16) bool { return m.entries.Contains(key) }

// Get returns the raw value stored under key.
func (m *ManufacturerData) Get(key uint16) ([]byte, bool) { return m.entries.Get(key) }

// Keys returns the stored keys in insertion order.
func (m *ManufacturerData) Keys() []uint16 { return m.entries.Keys() }

// Len returns the encoded length of the view, company identifier included.
func (m *ManufacturerData) Len() int { return 2 + m.entries.EncodedLen(m.keyWidth) }

// Bytes returns the full entry value: the little-endian company identifier
// followed by the encoded sub-structure.
func (m *ManufacturerData) Bytes() []byte {
	b := make([]byte, 2, m.Len())
	binary.LittleEndian.PutUint16(b, m.companyID)
	return append(b, m.entries.Encode(m.keyWidth)...)
}

// Set stores v under key and re-serializes the advertisement's
// manufacturer-data entry.
func (m *ManufacturerData) Set(key uint16, v []byte) error {
	if !m.adv.mutable {
		return errors.Wrapf(ErrImmutable, "manufacturer data key 0x%X", key)
	}
	prev, had := m.entries.Get(key)
	m.entries.Set(key, v)
	if err := m.writeBack(); err != nil {
		if had {
			m.entries.Set(key, prev)
		} else {
			m.entries.Delete(key)
		}
		return err
	}
	return nil
}

// writeBack replaces this company's occurrence inside the outer
// manufacturer-data entry, leaving other companies' occurrences alone.
func (m *ManufacturerData) writeBack() error {
	prefix := make([]byte, 2)
	binary.LittleEndian.PutUint16(prefix, m.companyID)

	existing := m.adv.entries.GetAll(ADTManufacturerData)
	vs := make([][]byte, len(existing))
	copy(vs, existing)
	replaced := false
	for i, v := range vs {
		if bytes.HasPrefix(v, prefix) {
			vs[i] = m.Bytes()
			replaced = true
			break
		}
	}
	if !replaced {
		vs = append(vs, m.Bytes())
	}
	return m.adv.setEntryAll(ADTManufacturerData, vs)
}

// RawManufacturerData returns the manufacturer-data bytes for companyID
// with the company identifier stripped, without interpreting them as a
// keyed sub-structure.
func (a *Advertisement) RawManufacturerData(companyID uint16) ([]byte, bool) {
	v, ok := a.manufacturerRaw(companyID)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v)-2)
	copy(out, v[2:])
	return out, true
}

// SetRawManufacturerData stores opaque manufacturer-data bytes for
// companyID, replacing an existing occurrence for the same company.
func (a *Advertisement) SetRawManufacturerData(companyID uint16, data []byte) error {
	prefix := make([]byte, 2)
	binary.LittleEndian.PutUint16(prefix, companyID)
	full := append(append([]byte{}, prefix...), data...)

	existing := a.entries.GetAll(ADTManufacturerData)
	vs := make([][]byte, len(existing))
	copy(vs, existing)
	replaced := false
	for i, v := range vs {
		if bytes.HasPrefix(v, prefix) {
			vs[i] = full
			replaced = true
			break
		}
	}
	if !replaced {
		vs = append(vs, full)
	}
	return a.setEntryAll(ADTManufacturerData, vs)
}

func (m *ManufacturerData) String() string {
	return fmt.Sprintf("<ManufacturerData company_id=%04x data=%x >",
		m.companyID, m.entries.Encode(m.keyWidth))
}
