package declaration

import "strings"

// Kind is the regulatory declaration variant carried by a filing.
type Kind int

const (
	// KindUnknown is the empty value: no recognizable declaration body.
	KindUnknown Kind = iota
	KindDT
	KindDICT
	KindDC
	KindATU
)

// String returns the short code used in fields and file names.
func (k Kind) String() string {
	switch k {
	case KindDT:
		return "DT"
	case KindDICT:
		return "DICT"
	case KindDC:
		return "DC"
	case KindATU:
		return "ATU"
	default:
		return ""
	}
}

// Known reports whether k is one of the four declaration kinds.
func (k Kind) Known() bool {
	return k != KindUnknown
}

// ParseKind maps a short code back to a Kind.
func ParseKind(s string) Kind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DT":
		return KindDT
	case "DICT":
		return KindDICT
	case "DC":
		return KindDC
	case "ATU":
		return KindATU
	default:
		return KindUnknown
	}
}

// kindMatcher pairs a local-name test with the kind it selects.
type kindMatcher struct {
	kind  Kind
	match func(localName string) bool
}

// kindMatchers is evaluated in order. The joint declaration must be tested
// first, and DT before DICT since both are substring tests.
var kindMatchers = []kindMatcher{
	{KindDC, func(n string) bool { return strings.Contains(n, "dtDictConjointes") }},
	{KindDT, func(n string) bool { return strings.Contains(n, "DT") }},
	{KindDICT, func(n string) bool { return strings.Contains(n, "DICT") }},
	{KindATU, func(n string) bool { return strings.Contains(n, "ATU") }},
}

// kindFromLocalName resolves the declaration body element name to a Kind.
func kindFromLocalName(localName string) Kind {
	for _, m := range kindMatchers {
		if m.match(localName) {
			return m.kind
		}
	}
	return KindUnknown
}
