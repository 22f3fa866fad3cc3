package detect

import (
	"slices"
	"strings"
)

// Association links a sidecar file to the candidate it describes.
type Association struct {
	Sidecar string `json:"sidecar"`
	Of      string `json:"of"`
}

// AssociateMetadata finds files in listing whose name starts with a
// candidate filename, e.g. "poi-5.2.3.jar.ExcelImporter.RequiredLib" for
// "poi-5.2.3.jar". The candidate name is matched literally.
func AssociateMetadata(candidates, listing []string) []Association {
	sortedCandidates := slices.Sorted(slices.Values(candidates))
	var associations []Association
	seen := make(map[string]bool)
	for _, candidate := range sortedCandidates {
		for _, name := range listing {
			if name == candidate || seen[name] || !strings.HasPrefix(name, candidate) {
				continue
			}
			seen[name] = true
			associations = append(associations, Association{Sidecar: name, Of: candidate})
		}
	}
	slices.SortFunc(associations, func(a, b Association) int {
		return strings.Compare(a.Sidecar, b.Sidecar)
	})
	return associations
}
