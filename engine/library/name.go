package library

import (
	"regexp"
	"strings"
)

// packagePrefixes are stripped in order from the lower-cased base name.
var packagePrefixes = []*regexp.Regexp{
	regexp.MustCompile(`^org\.apache\.(poi|commons|xmlbeans|httpcomponents)\.`),
	regexp.MustCompile(`^com\.google\.guava\.`),
	regexp.MustCompile(`^com\.fasterxml\.jackson\.`),
	regexp.MustCompile(`^net\.sf\.`),
	regexp.MustCompile(`^javax\.`),
	regexp.MustCompile(`^com\.springsource\.`),
}

var (
	moduleSuffix = regexp.MustCompile(
		`(?i)\.(VideoConferenceModule|OQLModule|ExcelImporter|XLSReport|CommunityCommons|GoogleAuth|JWT|Deeplink)\.(RequiredLib|Required)$`,
	)
	requiredLibSuffix = regexp.MustCompile(`(?i)\.RequiredLib$`)
	requiredSuffix    = regexp.MustCompile(`(?i)\.Required$`)
	anyRequiredSuffix = regexp.MustCompile(`(?i)\.(RequiredLib|Required)$`)
	baseVersionSplit  = regexp.MustCompile(`^(.*?)-(\d.*)$`)
)

// DefaultVersion is reported for filenames that carry no version.
const DefaultVersion = "0.0.0"

// NormalizeName canonicalizes a base name into an identity key.
// Unmatched input is returned lower-cased.
func NormalizeName(name string) string {
	normalized := strings.ToLower(name)
	for _, prefix := range packagePrefixes {
		normalized = prefix.ReplaceAllString(normalized, "")
	}
	normalized = moduleSuffix.ReplaceAllString(normalized, "")
	normalized = requiredLibSuffix.ReplaceAllString(normalized, "")
	normalized = requiredSuffix.ReplaceAllString(normalized, "")
	return normalized
}

// Namespace returns the package prefix NormalizeName would strip from
// base, lower-cased, or "" when base carries none.
func Namespace(base string) string {
	lower := strings.ToLower(base)
	stripped := lower
	for _, prefix := range packagePrefixes {
		stripped = prefix.ReplaceAllString(stripped, "")
	}
	return lower[:len(lower)-len(stripped)]
}

// SplitFilename separates an archive filename into its base name and
// version string. Module marker suffixes and the .jar extension are removed
// first; a filename without a "-<digit>" separator gets DefaultVersion.
func SplitFilename(filename string) (base, version string) {
	trimmed := moduleSuffix.ReplaceAllString(filename, "")
	trimmed = anyRequiredSuffix.ReplaceAllString(trimmed, "")
	trimmed = trimJarExtension(trimmed)
	if m := baseVersionSplit.FindStringSubmatch(trimmed); m != nil {
		return m[1], m[2]
	}
	return trimmed, DefaultVersion
}

// Identity returns the canonical identity of an archive filename.
func Identity(filename string) string {
	base, _ := SplitFilename(filename)
	return NormalizeName(base)
}

// IsArchive reports whether name looks like a Java archive.
func IsArchive(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".jar")
}

func trimJarExtension(name string) string {
	if IsArchive(name) {
		return name[:len(name)-len(".jar")]
	}
	return name
}
