// Package project finds the Mendix project around a working directory and
// reads what the cleanup needs to know about it.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

var ErrProjectNotFound = errors.New("no mendix project (.mpr) found")

const (
	mprExt       = ".mpr"
	backupSuffix = ".bak"
)

// Project is a located Mendix project.
type Project struct {
	Root string
	// MPR is the absolute path of the project database.
	MPR string
}

// Locate walks from start up to the filesystem root and returns the first
// directory that holds a project database. Backup copies are ignored.
func Locate(fsys afero.Fs, start string) (*Project, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolve start directory: %w", err)
	}
	for {
		mpr, err := findMPR(fsys, dir)
		if err != nil {
			return nil, err
		}
		if mpr != "" {
			return &Project{Root: dir, MPR: filepath.Join(dir, mpr)}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w: searched upward from %s", ErrProjectNotFound, start)
		}
		dir = parent
	}
}

// findMPR returns the alphabetically first project database in dir.
func findMPR(fsys afero.Fs, dir string) (string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if isNotExist(err) || isPermission(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", dir, err)
	}
	var found []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, backupSuffix) {
			continue
		}
		if strings.HasSuffix(name, mprExt) {
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return "", nil
	}
	slices.Sort(found)
	return found[0], nil
}
