package detect

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/mxtools/userlib-cleanup/engine/library"
)

// ManagedSet maps a canonical identity to the vendorlib archive managing it.
type ManagedSet map[string]string

// ManagedMatch is a userlib archive that also exists in vendorlib.
type ManagedMatch struct {
	Filename  string `json:"filename"`
	Identity  string `json:"identity"`
	ManagedAs string `json:"managed_as"`
}

// LoadManagedSet scans dir recursively for archives. A missing directory
// yields an empty set.
func LoadManagedSet(fsys afero.Fs, dir string) (ManagedSet, error) {
	set := make(ManagedSet)
	info, err := fsys.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, nil
		}
		return nil, fmt.Errorf("stat managed directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return set, nil
	}
	root := afero.NewIOFS(afero.NewBasePathFs(fsys, dir))
	matches, err := doublestar.Glob(root, "**/*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan managed directory %s: %w", dir, err)
	}
	slices.Sort(matches)
	for _, match := range matches {
		name := path.Base(match)
		if !library.IsArchive(name) {
			continue
		}
		identity := library.Identity(name)
		if _, exists := set[identity]; !exists {
			set[identity] = name
		}
	}
	return set, nil
}

// CrossReference returns every archive whose identity is managed. The
// version is not compared: a managed copy always wins.
func CrossReference(archives []library.Archive, managed ManagedSet) []ManagedMatch {
	var matches []ManagedMatch
	for _, archive := range archives {
		if managedAs, ok := managed[archive.Identity]; ok {
			matches = append(matches, ManagedMatch{
				Filename:  archive.Filename,
				Identity:  archive.Identity,
				ManagedAs: managedAs,
			})
		}
	}
	slices.SortFunc(matches, func(a, b ManagedMatch) int {
		return strings.Compare(a.Filename, b.Filename)
	})
	return matches
}
