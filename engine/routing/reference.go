package routing

import (
	"bufio"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

//go:embed MxVersions.txt
var embeddedReference string

var rangeLine = regexp.MustCompile(`(?i)^Range:\s*([\d\.\-]+)\s+to\s+([\d\.\-]+)`)

// Range is an inclusive version interval.
type Range struct {
	From *semver.Version
	To   *semver.Version
}

func (r Range) Contains(v *semver.Version) bool {
	return !v.LessThan(r.From) && !v.GreaterThan(r.To)
}

func (r Range) String() string {
	return fmt.Sprintf("%s to %s", r.From, r.To)
}

// Reference holds the versions known to work with the cleanup rules.
type Reference struct {
	Versions []string
	Ranges   []Range
}

// Lists reports whether version is an explicit entry or inside a range.
func (r *Reference) Lists(version string) bool {
	if r == nil {
		return false
	}
	if slices.Contains(r.Versions, version) {
		return true
	}
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		v, err = semver.NewVersion(version)
		if err != nil {
			return false
		}
	}
	for _, rg := range r.Ranges {
		if rg.Contains(v) {
			return true
		}
	}
	return false
}

// DefaultReference parses the reference list compiled into the binary.
func DefaultReference(ctx context.Context) *Reference {
	ref, err := ParseReference(ctx, strings.NewReader(embeddedReference))
	if err != nil {
		// the embedded file is static; reading from a strings.Reader cannot fail
		panic(err)
	}
	return ref
}

// LoadReference reads a reference file from disk. A missing file yields
// an empty reference.
func LoadReference(ctx context.Context, path string) (*Reference, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.FromContext(ctx).Warn("version reference file not found", "path", path)
		return &Reference{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open version reference: %w", err)
	}
	defer f.Close()
	return ParseReference(ctx, f)
}

// ParseReference reads the line-oriented reference format. Malformed range
// lines are skipped with a warning.
func ParseReference(ctx context.Context, r io.Reader) (*Reference, error) {
	log := logger.FromContext(ctx)
	ref := &Reference{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := rangeLine.FindStringSubmatch(line); m != nil {
			rg, err := parseRange(m[1], m[2])
			if err != nil {
				log.Warn("skipping malformed version range", "line", lineNo, "error", err)
				continue
			}
			ref.Ranges = append(ref.Ranges, rg)
			continue
		}
		for _, tok := range tripletToken.FindAllString(line, -1) {
			if !slices.Contains(ref.Versions, tok) {
				ref.Versions = append(ref.Versions, tok)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read version reference: %w", err)
	}
	return ref, nil
}

func parseRange(from, to string) (Range, error) {
	lo, err := semver.StrictNewVersion(from)
	if err != nil {
		return Range{}, fmt.Errorf("invalid lower bound %q: %w", from, err)
	}
	hi, err := semver.StrictNewVersion(to)
	if err != nil {
		return Range{}, fmt.Errorf("invalid upper bound %q: %w", to, err)
	}
	if lo.GreaterThan(hi) {
		return Range{}, fmt.Errorf("lower bound %s exceeds upper bound %s", lo, hi)
	}
	return Range{From: lo, To: hi}, nil
}
