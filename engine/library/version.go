package library

import (
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"
)

var versionRun = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the first major.minor[.patch] run found in s.
// Missing components are zero and qualifiers such as "-beta" are dropped,
// so "1.0-beta" and "1.0-final" are equal. Input without a numeric run, or
// with components that overflow, yields 0.0.0.
func ParseVersion(s string) *semver.Version {
	m := versionRun.FindStringSubmatch(s)
	if m == nil {
		return semver.New(0, 0, 0, "", "")
	}
	parts := [3]uint64{}
	for i, raw := range m[1:] {
		if raw == "" {
			continue
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return semver.New(0, 0, 0, "", "")
		}
		parts[i] = n
	}
	return semver.New(parts[0], parts[1], parts[2], "", "")
}

// CompareVersions orders two version strings numerically.
// It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	return ParseVersion(a).Compare(ParseVersion(b))
}
