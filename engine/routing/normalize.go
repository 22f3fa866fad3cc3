package routing

import (
	"regexp"
	"strings"
)

var (
	releaseTag   = regexp.MustCompile(`(?i)[\s\-]+(LTS|MTS|MTSLatest|Patch).*$`)
	versionRun   = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)
	tripletToken = regexp.MustCompile(`\d+\.\d+\.\d+`)
)

// NormalizeVersion reduces a user- or project-provided version string such
// as "9.24.37 LTS" to its numeric form. Input without a numeric run is
// returned trimmed.
func NormalizeVersion(raw string) string {
	v := strings.TrimSpace(raw)
	v = strings.TrimSpace(releaseTag.ReplaceAllString(v, ""))
	if m := versionRun.FindString(v); m != "" {
		return m
	}
	return v
}
