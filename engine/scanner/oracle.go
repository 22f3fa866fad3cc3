// Package scanner integrates the external signature-based userlib scanner.
//
// The scanner is an opaque binary. Callers only see the Oracle contract: an
// ordered list of filenames, or a Findings value marked unavailable. Parsing
// of the binary's text output stays inside this package.
package scanner

import "context"

// Findings is the scanner's contribution to a run.
type Findings struct {
	// Available is false when the scanner is missing, failed or timed out.
	Available bool
	// Files are archive basenames the scanner considers redundant, sorted.
	Files []string
	// Reason explains why the scanner was unavailable.
	Reason string
}

// Unavailable builds a Findings value with no contribution.
func Unavailable(reason string) Findings {
	return Findings{Available: false, Reason: reason}
}

// Oracle reports archives that an independent heuristic considers redundant.
// Scan returns an error only when ctx itself is done; every other failure
// is reported as unavailable Findings.
type Oracle interface {
	Scan(ctx context.Context, dir string) (Findings, error)
}

// Disabled is an Oracle that never contributes.
type Disabled struct{}

func (Disabled) Scan(context.Context, string) (Findings, error) {
	return Unavailable("scanner disabled"), nil
}

// Static is an Oracle returning a fixed list; used for tests and dry runs.
type Static []string

func (s Static) Scan(ctx context.Context, _ string) (Findings, error) {
	if err := ctx.Err(); err != nil {
		return Findings{}, err
	}
	return Findings{Available: true, Files: normalizeFindings(s)}, nil
}
