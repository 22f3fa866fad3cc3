// Package routing maps a Mendix Studio Pro version to the cleanup pipeline
// variant that understands its userlib conventions.
package routing

import "fmt"

// Variant identifies a pipeline variant tied to a Studio Pro major line.
type Variant string

const (
	MX7  Variant = "mx7"
	MX8  Variant = "mx8"
	MX9  Variant = "mx9"
	MX10 Variant = "mx10"
	MX11 Variant = "mx11"
)

// Capabilities lists the detection stages a variant runs. Metadata
// expansion and the protection filter always run.
type Capabilities struct {
	Managed  bool
	Grouping bool
	Scanner  bool
}

var variantCapabilities = map[Variant]Capabilities{
	MX7:  {Scanner: true},
	MX8:  {Grouping: true, Scanner: true},
	MX9:  {Grouping: true, Scanner: true},
	MX10: {Managed: true, Grouping: true, Scanner: true},
	MX11: {Managed: true, Grouping: true, Scanner: true},
}

// Variants returns all variants from oldest to newest.
func Variants() []Variant {
	return []Variant{MX7, MX8, MX9, MX10, MX11}
}

func (v Variant) String() string {
	return string(v)
}

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	_, ok := variantCapabilities[v]
	return ok
}

// Capabilities returns the stages enabled for v.
func (v Variant) Capabilities() Capabilities {
	return variantCapabilities[v]
}

func variantForMajor(major int) Variant {
	switch {
	case major <= 7:
		return MX7
	case major >= 11:
		return MX11
	default:
		return Variant(fmt.Sprintf("mx%d", major))
	}
}
