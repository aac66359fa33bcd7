package ble

import (
	"bytes"

	log "github.com/sirupsen/logrus"
)

// MatchesPrefixes reports whether the raw advertising payload contains the
// given field prefixes. A prefix is a data-type byte optionally followed
// by leading value bytes; it matches when some run's type+value bytes
// start with it verbatim. With matchAll, every prefix must be found;
// otherwise one suffices. An empty prefix set always matches.
func MatchesPrefixes(raw []byte, prefixes [][]byte, matchAll bool) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		found := containsRunPrefix(raw, p)
		if matchAll && !found {
			return false
		}
		if !matchAll && found {
			return true
		}
	}
	return matchAll
}

func containsRunPrefix(raw, prefix []byte) bool {
	b := raw
	for len(b) >= 2 {
		l := int(b[0])
		if l == 0 {
			return false
		}
		end := 1 + l
		if end > len(b) {
			end = len(b)
		}
		if bytes.HasPrefix(b[1:end], prefix) {
			return true
		}
		b = b[end:]
	}
	return false
}

// A Kind classifies received advertisements by field prefixes. Its merged,
// length-prefixed prefix form is precomputed at construction so it can be
// handed to the radio as a scan filter without further work.
type Kind struct {
	name     string
	matchAll bool
	prefixes [][]byte
	merged   []byte
}

// NewKind builds a Kind from its name, match mode, and prefixes. Each
// prefix is a data-type byte plus optional leading value bytes.
func NewKind(name string, matchAll bool, prefixes ...[]byte) Kind {
	k := Kind{name: name, matchAll: matchAll}
	for _, p := range prefixes {
		cp := make([]byte, len(p))
		copy(cp, p)
		k.prefixes = append(k.prefixes, cp)
		k.merged = append(k.merged, byte(len(cp)))
		k.merged = append(k.merged, cp...)
	}
	return k
}

// Name returns the kind's name.
func (k Kind) Name() string { return k.name }

// PrefixBytes returns the merged prefix form, each prefix preceded by its
// length, suitable for the radio's scan filter.
func (k Kind) PrefixBytes() []byte { return k.merged }

// Matches reports whether the scan entry's payload matches the kind.
func (k Kind) Matches(e ScanEntry) bool {
	return MatchesPrefixes(e.Data, k.prefixes, k.matchAll)
}

// Stock kinds for the standard service advertisements. A provide-services
// advertisement needs only one kind of service list, so it matches any
// prefix rather than all.
var (
	ProvideServicesKind = NewKind("provide-services", false,
		[]byte{ADTSomeUUID16}, []byte{ADTAllUUID16},
		[]byte{ADTSomeUUID128}, []byte{ADTAllUUID128})
	SolicitServicesKind = NewKind("solicit-services", true,
		[]byte{ADTServiceSol16}, []byte{ADTServiceSol128})
)

// A Registry classifies scan entries against an explicit, caller-owned set
// of kinds, checked in registration order.
type Registry struct {
	kinds []Kind
}

// NewRegistry returns a registry preloaded with the given kinds.
func NewRegistry(kinds ...Kind) *Registry {
	return &Registry{kinds: kinds}
}

// Register appends a kind.
func (r *Registry) Register(k Kind) {
	r.kinds = append(r.kinds, k)
}

// Kinds returns the registered kinds in order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// Classify returns the first registered kind matching the scan entry.
func (r *Registry) Classify(e ScanEntry) (Kind, bool) {
	for _, k := range r.kinds {
		if k.Matches(e) {
			log.Debugf("classified advertisement from %v as %q", e.Addr, k.name)
			return k, true
		}
	}
	return Kind{}, false
}
