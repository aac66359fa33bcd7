package ble

import (
	"bytes"
	"strings"
)

// A BoundServiceList aggregates the 16-bit and 128-bit service-UUID
// entries of one advertisement into a single ordered, duplicate-free
// sequence. Appending re-serializes only the entry for the affected
// UUID width.
type BoundServiceList struct {
	adv          *Advertisement
	standardADTs []uint16
	vendorADTs   []uint16
	standard     []UUID
	vendor       []UUID
}

// Services returns the advertised service-UUID list, aggregated across the
// incomplete and complete 16-bit and 128-bit entries. It returns nil when
// no service entry is present on an immutable advertisement.
func (a *Advertisement) Services() *BoundServiceList {
	return a.serviceList(
		[]uint16{ADTSomeUUID16, ADTAllUUID16},
		[]uint16{ADTSomeUUID128, ADTAllUUID128},
	)
}

// SolicitedServices returns the solicited service-UUID list, the services
// the advertiser would like its peer to provide.
func (a *Advertisement) SolicitedServices() *BoundServiceList {
	return a.serviceList(
		[]uint16{ADTServiceSol16},
		[]uint16{ADTServiceSol128},
	)
}

func (a *Advertisement) serviceList(standardADTs, vendorADTs []uint16) *BoundServiceList {
	key := standardADTs[0]
	if l, ok := a.serviceLists[key]; ok {
		return l
	}
	present := false
	for _, adt := range standardADTs {
		present = present || a.entries.Contains(adt)
	}
	for _, adt := range vendorADTs {
		present = present || a.entries.Contains(adt)
	}
	if !present && !a.mutable {
		return nil
	}
	l := &BoundServiceList{
		adv:          a,
		standardADTs: standardADTs,
		vendorADTs:   vendorADTs,
	}
	for _, adt := range standardADTs {
		for _, v := range a.entries.GetAll(adt) {
			for len(v) >= 2 {
				u, _ := uuidFromBytes(v[:2])
				l.standard = append(l.standard, u)
				v = v[2:]
			}
		}
	}
	for _, adt := range vendorADTs {
		for _, v := range a.entries.GetAll(adt) {
			for len(v) >= 16 {
				u, _ := uuidFromBytes(v[:16])
				l.vendor = append(l.vendor, u)
				v = v[16:]
			}
		}
	}
	if a.serviceLists == nil {
		a.serviceLists = make(map[uint16]*BoundServiceList)
	}
	a.serviceLists[key] = l
	return l
}

// Len returns the number of listed UUIDs.
func (l *BoundServiceList) Len() int { return len(l.standard) + len(l.vendor) }

// Contains reports whether u is in the list.
func (l *BoundServiceList) Contains(u UUID) bool {
	uu := l.standard
	if u.Vendor() {
		uu = l.vendor
	}
	for _, a := range uu {
		if a.Equal(u) {
			return true
		}
	}
	return false
}

// UUIDs returns the listed UUIDs, standard first, in list order.
func (l *BoundServiceList) UUIDs() []UUID {
	out := make([]UUID, 0, l.Len())
	out = append(out, l.standard...)
	return append(out, l.vendor...)
}

// Append adds a UUID to the list, ignoring duplicates, and re-serializes
// the entry for its width.
func (l *BoundServiceList) Append(u UUID) error {
	if l.Contains(u) {
		return nil
	}
	if u.Vendor() {
		l.vendor = append(l.vendor, u)
		return l.update(l.vendorADTs[0], l.vendor)
	}
	l.standard = append(l.standard, u)
	return l.update(l.standardADTs[0], l.standard)
}

// Extend appends every UUID in uu, re-serializing each affected width once.
func (l *BoundServiceList) Extend(uu []UUID) error {
	standard, vendor := false, false
	for _, u := range uu {
		if l.Contains(u) {
			continue
		}
		if u.Vendor() {
			l.vendor = append(l.vendor, u)
			vendor = true
		} else {
			l.standard = append(l.standard, u)
			standard = true
		}
	}
	if standard {
		if err := l.update(l.standardADTs[0], l.standard); err != nil {
			return err
		}
	}
	if vendor {
		if err := l.update(l.vendorADTs[0], l.vendor); err != nil {
			return err
		}
	}
	return nil
}

func (l *BoundServiceList) update(adt uint16, uu []UUID) error {
	if len(uu) == 0 {
		if l.adv.mutable {
			l.adv.entries.Delete(adt)
		}
		return nil
	}
	width := uu[0].Len()
	b := make([]byte, len(uu)*width)
	for i, u := range uu {
		if err := u.PackInto(b, i*width); err != nil {
			return err
		}
	}
	return l.adv.setEntry(adt, b)
}

func (l *BoundServiceList) String() string {
	parts := make([]string, 0, l.Len())
	for _, u := range l.UUIDs() {
		parts = append(parts, u.String())
	}
	return "<BoundServiceList: " + strings.Join(parts, ", ") + ">"
}

// ServiceData returns the service-data payload advertised for the given
// service UUID, without the UUID prefix.
func (a *Advertisement) ServiceData(u UUID) ([]byte, bool) {
	adt := serviceDataADT(u)
	prefix := u.Bytes()
	for _, v := range a.entries.GetAll(adt) {
		if bytes.HasPrefix(v, prefix) {
			out := make([]byte, len(v)-len(prefix))
			copy(out, v[len(prefix):])
			return out, true
		}
	}
	return nil, false
}

// SetServiceData sets the service-data payload for the given service UUID,
// replacing an existing occurrence for the same service and leaving other
// services' data untouched.
func (a *Advertisement) SetServiceData(u UUID, data []byte) error {
	adt := serviceDataADT(u)
	prefix := u.Bytes()
	full := append(append([]byte{}, prefix...), data...)

	existing := a.entries.GetAll(adt)
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
	return a.setEntryAll(adt, vs)
}

func serviceDataADT(u UUID) uint16 {
	if u.Vendor() {
		return ADTServiceData128
	}
	return ADTServiceData16
}
