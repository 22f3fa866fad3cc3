// Package backup archives removed libraries into timestamped zip files next
// to the userlib directory and restores them on request.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	ArchivePrefix   = "userlib_backup_"
	ArchiveExt      = ".zip"
	TimestampLayout = "2006-01-02_15-04-05"
	maxNameAttempts = 100
)

// Store owns the backup directory of one userlib.
type Store struct {
	fs         afero.Fs
	userlibDir string
	backupDir  string
	now        func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source used for archive names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store for userlibDir; backups live in
// userlibDir/backupDirName.
func NewStore(fsys afero.Fs, userlibDir, backupDirName string, opts ...Option) *Store {
	s := &Store{
		fs:         fsys,
		userlibDir: userlibDir,
		backupDir:  filepath.Join(userlibDir, backupDirName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Dir() string {
	return s.backupDir
}

// IsArchiveName reports whether name follows the backup archive convention.
func IsArchiveName(name string) bool {
	return strings.HasPrefix(name, ArchivePrefix) && strings.HasSuffix(name, ArchiveExt)
}

// List returns the backup archive names, oldest first.
func (s *Store) List() ([]string, error) {
	ok, err := afero.DirExists(s.fs, s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("check backup directory: %w", err)
	}
	if !ok {
		return nil, ErrNoBackupDir
	}
	entries, err := afero.ReadDir(s.fs, s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && IsArchiveName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Resolve finds the archive to restore. An empty name selects the latest
// archive; otherwise ".zip" is appended when missing and the basename is
// tried when the name does not resolve inside the backup directory.
func (s *Store) Resolve(name string) (string, error) {
	names, err := s.List()
	if err != nil {
		return "", err
	}
	if name == "" {
		if len(names) == 0 {
			return "", ErrNoBackups
		}
		return filepath.Join(s.backupDir, names[len(names)-1]), nil
	}
	if !strings.HasSuffix(name, ArchiveExt) {
		name += ArchiveExt
	}
	candidates := []string{name, filepath.Base(name)}
	for _, c := range candidates {
		p := c
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.backupDir, c)
		}
		info, err := s.fs.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !isNotExist(err) {
			return "", fmt.Errorf("stat backup archive: %w", err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrBackupNotFound, name)
}

func (s *Store) nextArchive() (afero.File, string, error) {
	stamp := s.now().Format(TimestampLayout)
	for i := 0; i < maxNameAttempts; i++ {
		name := ArchivePrefix + stamp
		if i > 0 {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		path := filepath.Join(s.backupDir, name+ArchiveExt)
		f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !isExist(err) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free archive name for timestamp %s", stamp)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func isExist(err error) bool {
	return errors.Is(err, fs.ErrExist)
}
