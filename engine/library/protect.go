package library

import (
	"slices"
	"strings"
)

// DefaultProtected lists libraries that are never removed. Matching is a
// case-insensitive substring test on the full filename.
var DefaultProtected = []string{
	"bcprov", "bcpkix", "bcpg", "dom4j",
	"jaxb-api", "activation", "javax.activation",
	"javax.annotation", "javax.xml.bind",
	"checker-qual", "error_prone_annotations", "failureaccess", "listenablefuture",
}

// ProtectionList is the set of protected tokens for one run.
type ProtectionList struct {
	tokens []string
}

// NewProtectionList returns the default tokens plus any extra ones.
// Extra tokens can only widen protection.
func NewProtectionList(extra ...string) ProtectionList {
	tokens := make([]string, 0, len(DefaultProtected)+len(extra))
	for _, token := range append(slices.Clone(DefaultProtected), extra...) {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" || slices.Contains(tokens, token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return ProtectionList{tokens: tokens}
}

// Tokens returns a copy of the lower-cased tokens.
func (p ProtectionList) Tokens() []string {
	return slices.Clone(p.tokens)
}

// Match returns the first token contained in filename.
func (p ProtectionList) Match(filename string) (string, bool) {
	lower := strings.ToLower(filename)
	for _, token := range p.tokens {
		if strings.Contains(lower, token) {
			return token, true
		}
	}
	return "", false
}

// Filter splits candidates into removable and protected filenames.
// Both results are sorted.
func (p ProtectionList) Filter(candidates []string) (removable, protected []string) {
	for _, name := range candidates {
		if _, ok := p.Match(name); ok {
			protected = append(protected, name)
			continue
		}
		removable = append(removable, name)
	}
	slices.Sort(removable)
	slices.Sort(protected)
	return removable, protected
}
