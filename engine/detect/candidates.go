package detect

import (
	"maps"
	"slices"
)

// Reason names the stage that flagged a candidate.
type Reason string

const (
	ReasonManaged   Reason = "managed"
	ReasonDuplicate Reason = "duplicate"
	ReasonScanner   Reason = "scanner"
	ReasonMetadata  Reason = "metadata"
)

// CandidateSet is the growing set of filenames flagged as removable.
// It has no removal operation.
type CandidateSet struct {
	reasons map[string][]Reason
}

func NewCandidateSet() *CandidateSet {
	return &CandidateSet{reasons: make(map[string][]Reason)}
}

// Add flags name for the given reason. Adding the same pair twice is a no-op.
func (c *CandidateSet) Add(name string, reason Reason) {
	if slices.Contains(c.reasons[name], reason) {
		return
	}
	c.reasons[name] = append(c.reasons[name], reason)
}

func (c *CandidateSet) Has(name string) bool {
	_, ok := c.reasons[name]
	return ok
}

func (c *CandidateSet) Len() int {
	return len(c.reasons)
}

// Names returns the flagged filenames in sorted order.
func (c *CandidateSet) Names() []string {
	return slices.Sorted(maps.Keys(c.reasons))
}

// Reasons returns the reasons recorded for name, in the order they were added.
func (c *CandidateSet) Reasons(name string) []Reason {
	return slices.Clone(c.reasons[name])
}
