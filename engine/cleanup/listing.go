package cleanup

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/mxtools/userlib-cleanup/engine/backup"
	"github.com/mxtools/userlib-cleanup/engine/library"
)

// Listing is the set of regular files in the userlib directory that take
// part in a run.
type Listing struct {
	Files    []string
	Archives []string
}

// ListUserlib reads dir. Backup archives, zip files, sub directories and
// the lock file are left out. A missing directory yields an empty listing.
func ListUserlib(fsys afero.Fs, dir, lockFile string) (*Listing, error) {
	ok, err := afero.DirExists(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("check userlib directory: %w", err)
	}
	if !ok {
		return &Listing{}, nil
	}
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read userlib directory: %w", err)
	}
	l := &Listing{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == lockFile ||
			strings.HasPrefix(name, backup.ArchivePrefix) || strings.HasSuffix(name, backup.ArchiveExt) {
			continue
		}
		l.Files = append(l.Files, name)
		if library.IsArchive(name) {
			l.Archives = append(l.Archives, name)
		}
	}
	slices.Sort(l.Files)
	slices.Sort(l.Archives)
	return l, nil
}
