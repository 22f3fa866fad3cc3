package detect

import (
	"slices"

	"github.com/mxtools/userlib-cleanup/engine/library"
)

// CollisionPolicy decides what happens to groups whose members were merged
// from different package namespaces.
type CollisionPolicy string

const (
	// CollisionSkip reports the group and keeps every member.
	CollisionSkip CollisionPolicy = "skip"
	// CollisionResolve reports the group and groups it like any other.
	CollisionResolve CollisionPolicy = "resolve"
)

// Duplicate is an archive superseded by a newer one with the same identity.
type Duplicate struct {
	Filename string `json:"filename"`
	Identity string `json:"identity"`
	KeptBy   string `json:"kept_by"`
}

// Collision is a group whose members carry two or more distinct package
// namespaces, e.g. "javax.mail-1.4.jar" and "net.sf.mail-2.0.jar". Such
// libraries may be unrelated even though they share an identity.
type Collision struct {
	Identity   string   `json:"identity"`
	Filenames  []string `json:"filenames"`
	Namespaces []string `json:"namespaces"`
	Skipped    bool     `json:"skipped"`
}

// GroupResult is the outcome of GroupDuplicates.
type GroupResult struct {
	Duplicates []Duplicate
	Collisions []Collision
}

// GroupDuplicates groups archives by identity and flags every member of a
// group except the one with the highest version. Equal versions are broken
// by filename: the lexicographically greatest filename is kept.
func GroupDuplicates(archives []library.Archive, policy CollisionPolicy) GroupResult {
	groups := make(map[string][]library.Archive)
	for _, archive := range archives {
		groups[archive.Identity] = append(groups[archive.Identity], archive)
	}
	identities := make([]string, 0, len(groups))
	for identity, members := range groups {
		if len(members) > 1 {
			identities = append(identities, identity)
		}
	}
	slices.Sort(identities)

	var result GroupResult
	for _, identity := range identities {
		members := groups[identity]
		slices.SortFunc(members, library.Archive.Compare)
		if namespaces := distinctNamespaces(members); len(namespaces) > 1 {
			collision := Collision{
				Identity:   identity,
				Filenames:  filenames(members),
				Namespaces: namespaces,
				Skipped:    policy != CollisionResolve,
			}
			result.Collisions = append(result.Collisions, collision)
			if collision.Skipped {
				continue
			}
		}
		kept := members[len(members)-1]
		for _, old := range members[:len(members)-1] {
			result.Duplicates = append(result.Duplicates, Duplicate{
				Filename: old.Filename,
				Identity: identity,
				KeptBy:   kept.Filename,
			})
		}
	}
	return result
}

func distinctNamespaces(members []library.Archive) []string {
	var namespaces []string
	for _, m := range members {
		if m.Namespace != "" && !slices.Contains(namespaces, m.Namespace) {
			namespaces = append(namespaces, m.Namespace)
		}
	}
	slices.Sort(namespaces)
	return namespaces
}

func filenames(members []library.Archive) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Filename
	}
	slices.Sort(names)
	return names
}
