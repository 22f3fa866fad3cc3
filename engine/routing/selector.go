package routing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

// ErrUnsupportedVersion is returned when no variant can be derived.
var ErrUnsupportedVersion = errors.New("unsupported mendix version")

// MatchKind describes which rule selected the variant.
type MatchKind string

const (
	MatchExact  MatchKind = "exact"
	MatchPrefix MatchKind = "prefix"
	MatchMajor  MatchKind = "major"
)

type ltsEntry struct {
	version string
	variant Variant
}

// ltsTable is ordered; prefix matching walks it top to bottom.
var ltsTable = []ltsEntry{
	{"11.0.0", MX11},
	{"10.24.13", MX10},
	{"10.24.12", MX10},
	{"10.24.11", MX10},
	{"10.24.10", MX10},
	{"10.24.9", MX10},
	{"10.24.8", MX10},
	{"10.24.6", MX10},
	{"10.24.5", MX10},
	{"10.24.4", MX10},
	{"10.24.3", MX10},
	{"10.24.2", MX10},
	{"10.24.1", MX10},
	{"10.24.0", MX10},
	{"9.24.40", MX9},
	{"9.24.39", MX9},
	{"9.24.38", MX9},
	{"9.24.37", MX9},
	{"9.24.36", MX9},
	{"9.24.35", MX9},
	{"9.24.34", MX9},
	{"8.18.35", MX8},
	{"8.18.34", MX8},
}

var leadingMajor = regexp.MustCompile(`^(\d+)`)

// Selection is the outcome of routing a version.
type Selection struct {
	Version   string    `json:"version"`
	Variant   Variant   `json:"variant"`
	MatchedBy MatchKind `json:"matched_by"`
	// Verified is true when the reference lists the version.
	Verified bool `json:"verified"`
}

// Selector routes versions using the static LTS table and a reference list.
type Selector struct {
	reference *Reference
}

// NewSelector builds a Selector. A nil reference marks every version unverified.
func NewSelector(reference *Reference) *Selector {
	return &Selector{reference: reference}
}

// Select normalizes raw and resolves it to a variant.
func (s *Selector) Select(ctx context.Context, raw string) (Selection, error) {
	version := NormalizeVersion(raw)
	variant, kind, ok := resolve(version)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, raw)
	}
	sel := Selection{
		Version:   version,
		Variant:   variant,
		MatchedBy: kind,
		Verified:  s.reference.Lists(version),
	}
	log := logger.FromContext(ctx)
	if !sel.Verified {
		log.Warn("mendix version is not in the verified list, proceeding anyway", "version", version)
	}
	log.Debug("selected pipeline variant", "version", version, "variant", variant, "matched_by", kind)
	return sel, nil
}

func resolve(version string) (Variant, MatchKind, bool) {
	if version == "" {
		return "", "", false
	}
	for _, e := range ltsTable {
		if e.version == version {
			return e.variant, MatchExact, true
		}
	}
	for _, e := range ltsTable {
		if strings.HasPrefix(version, e.version) {
			return e.variant, MatchPrefix, true
		}
	}
	m := leadingMajor.FindString(version)
	if m == "" {
		return "", "", false
	}
	major, err := strconv.Atoi(m)
	if err != nil {
		return "", "", false
	}
	return variantForMajor(major), MatchMajor, true
}
