// Package keycodec maps a logical cache key onto the two physical keys that
// hold its value and its expiry inside a flat key/value store, and back.
//
// The suffixes are part of the persisted format: changing them orphans every
// entry already written.
package keycodec

import "strings"

const (
	ValueSuffix  = "-_burry_"
	ExpirySuffix = "-_burry_exp_"
)

// Kind tells what a physical key holds.
type Kind int

const (
	KindForeign Kind = iota
	KindValue
	KindExpiry
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindExpiry:
		return "expiry"
	default:
		return "foreign"
	}
}

// Physical is a decoded physical key. Logical is empty for KindForeign.
type Physical struct {
	Kind    Kind
	Logical string
}

func ValueKey(key string) string {
	return key + ValueSuffix
}

func ExpiryKey(key string) string {
	return key + ExpirySuffix
}

// Decode classifies a physical key. A key ending in ExpirySuffix can never end
// in ValueSuffix (their last bytes differ), so at most one case matches.
func Decode(physical string) Physical {
	if logical, ok := strings.CutSuffix(physical, ExpirySuffix); ok {
		return Physical{Kind: KindExpiry, Logical: logical}
	}
	if logical, ok := strings.CutSuffix(physical, ValueSuffix); ok {
		return Physical{Kind: KindValue, Logical: logical}
	}
	return Physical{Kind: KindForeign}
}

// DecodeValueKey returns the logical key if physical is a value key.
func DecodeValueKey(physical string) (string, bool) {
	p := Decode(physical)
	return p.Logical, p.Kind == KindValue
}

// DecodeExpiryKey returns the logical key if physical is an expiry key.
func DecodeExpiryKey(physical string) (string, bool) {
	p := Decode(physical)
	return p.Logical, p.Kind == KindExpiry
}
