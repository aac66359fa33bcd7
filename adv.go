package ble

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Entry-map keys are 1 byte wide in advertising payloads and, by
// convention, 1 or 2 bytes wide inside manufacturer-specific data.
const (
	KeyWidth8  = 1
	KeyWidth16 = 2
)

// An EntryMap is an insertion-ordered mapping from a type key to one or
// more raw values, mirroring the run structure of an advertising payload.
// A key maps to multiple values when the same type appears more than once
// in a packet, e.g. repeated service-UUID lists.
type EntryMap struct {
	keys   []uint16
	values map[uint16][][]byte
}

// NewEntryMap returns an empty EntryMap.
func NewEntryMap() *EntryMap {
	return &EntryMap{values: make(map[uint16][][]byte)}
}

// DecodeEntries decodes a length-prefixed, type-tagged payload into an
// EntryMap. Each run is [length][key][value...], where length counts the
// key and value bytes but not itself. Decoding stops at a zero length byte
// or when the remaining bytes cannot hold a key; it fails only when a run
// declares a length smaller than the key width.
func DecodeEntries(b []byte, keyWidth int) (*EntryMap, error) {
	m := NewEntryMap()
	i := 0
	for i < len(b) {
		l := int(b[i])
		i++
		if l == 0 {
			break
		}
		if l < keyWidth {
			return nil, errors.Wrapf(ErrMalformedEntry, "run at offset %d: length %d < key width %d", i-1, l, keyWidth)
		}
		if i+keyWidth > len(b) {
			break
		}
		key := decodeKey(b[i:], keyWidth)
		end := i + l
		if end > len(b) {
			end = len(b)
		}
		v := make([]byte, end-(i+keyWidth))
		copy(v, b[i+keyWidth:end])
		m.Append(key, v)
		i += l
	}
	return m, nil
}

func decodeKey(b []byte, keyWidth int) uint16 {
	if keyWidth == KeyWidth16 {
		return binary.LittleEndian.Uint16(b)
	}
	return uint16(b[0])
}

func putKey(b []byte, key uint16, keyWidth int) {
	if keyWidth == KeyWidth16 {
		binary.LittleEndian.PutUint16(b, key)
		return
	}
	b[0] = byte(key)
}

// Contains reports whether key has at least one value.
func (m *EntryMap) Contains(key uint16) bool {
	_, ok := m.values[key]
	return ok
}

// Get returns a copy of the value for key. It returns false when the key
// is absent, and the first occurrence when the key was decoded more than
// once.
func (m *EntryMap) Get(key uint16) ([]byte, bool) {
	vs, ok := m.values[key]
	if !ok || len(vs) == 0 {
		return nil, false
	}
	v := make([]byte, len(vs[0]))
	copy(v, vs[0])
	return v, true
}

// GetAll returns every occurrence of key, in decode order.
func (m *EntryMap) GetAll(key uint16) [][]byte {
	return m.values[key]
}

// Set replaces all occurrences of key with the single value v,
// preserving the key's position when it already exists.
func (m *EntryMap) Set(key uint16, v []byte) {
	m.SetAll(key, [][]byte{v})
}

// SetAll replaces all occurrences of key with vs.
func (m *EntryMap) SetAll(key uint16, vs [][]byte) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = vs
}

// Append adds one more occurrence of key, promoting an existing scalar
// value to a list.
func (m *EntryMap) Append(key uint16, v []byte) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append(m.values[key], v)
}

// Delete removes key and all of its values.
func (m *EntryMap) Delete(key uint16) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *EntryMap) Keys() []uint16 {
	out := make([]uint16, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of distinct keys.
func (m *EntryMap) Len() int { return len(m.keys) }

// valueLen returns the total value bytes stored under key.
func (m *EntryMap) valueLen(key uint16) int {
	n := 0
	for _, v := range m.values[key] {
		n += len(v)
	}
	return n
}

// runLen returns the encoded size of key's single coalesced run.
func (m *EntryMap) runLen(key uint16, keyWidth int) int {
	if !m.Contains(key) {
		return 0
	}
	return 1 + keyWidth + m.valueLen(key)
}

// EncodedLen returns the exact length of Encode's output: one length byte
// and one key per distinct key, plus all value bytes. Repeated occurrences
// of a key coalesce into a single run on encode, so they contribute no
// additional framing.
func (m *EntryMap) EncodedLen(keyWidth int) int {
	n := 0
	for _, k := range m.keys {
		n += m.runLen(k, keyWidth)
	}
	return n
}

// Encode serializes the map back into run form. Occurrences of a repeated
// key are concatenated into one run whose length byte covers the whole
// concatenation. This is how advertisers coalesce same-type repeats on the
// wire; it intentionally does not mirror how DecodeEntries splits repeats.
//
// A run's single length byte caps a key's total value bytes at
// 255-keyWidth. Advertisement enforces a far smaller budget; callers
// building an EntryMap directly must respect the cap themselves.
func (m *EntryMap) Encode(keyWidth int) []byte {
	b := make([]byte, 0, m.EncodedLen(keyWidth))
	key := make([]byte, keyWidth)
	for _, k := range m.keys {
		b = append(b, byte(keyWidth+m.valueLen(k)))
		putKey(key, k, keyWidth)
		b = append(b, key...)
		for _, v := range m.values[k] {
			b = append(b, v...)
		}
	}
	return b
}
