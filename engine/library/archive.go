package library

import "github.com/Masterminds/semver/v3"

// Archive is the per-run view of one file in the userlib directory.
type Archive struct {
	Filename   string
	Base       string
	Identity   string
	Namespace  string
	RawVersion string
	Version    *semver.Version
	Protected  bool
}

// NewArchive derives an Archive from its filename.
func NewArchive(filename string, protection ProtectionList) Archive {
	base, raw := SplitFilename(filename)
	_, protected := protection.Match(filename)
	return Archive{
		Filename:   filename,
		Base:       base,
		Identity:   NormalizeName(base),
		Namespace:  Namespace(base),
		RawVersion: raw,
		Version:    ParseVersion(raw),
		Protected:  protected,
	}
}

// Compare orders archives by version, then by filename so that equal
// versions still have a deterministic order.
func (a Archive) Compare(b Archive) int {
	if c := a.Version.Compare(b.Version); c != 0 {
		return c
	}
	switch {
	case a.Filename < b.Filename:
		return -1
	case a.Filename > b.Filename:
		return 1
	default:
		return 0
	}
}
