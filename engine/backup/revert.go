package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

// RevertResult describes a completed restore.
type RevertResult struct {
	Archive  string   `json:"archive"`
	Restored []string `json:"restored"`
	// Manifest is nil when the archive carried no readable manifest.
	Manifest *Manifest `json:"manifest,omitempty"`
}

// Revert restores the named archive, or the latest one when name is empty,
// into the userlib directory and deletes the archive afterwards. Nothing is
// written unless every entry verifies.
func (s *Store) Revert(ctx context.Context, name string) (*RevertResult, error) {
	log := logger.FromContext(ctx)
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	log.Info("reverting from backup", "archive", filepath.Base(path))
	entries, manifest, err := s.readArchive(path)
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		log.Warn("backup archive has no readable manifest", "archive", filepath.Base(path))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	restored, err := s.restore(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("restore from %s: %w", filepath.Base(path), err)
	}
	if err := s.fs.Remove(path); err != nil {
		return nil, fmt.Errorf("remove restored archive: %w", err)
	}
	log.Info("restored files", "count", len(restored))
	return &RevertResult{Archive: path, Restored: restored, Manifest: manifest}, nil
}

type archiveEntry struct {
	name string
	mode fs.FileMode
	file *zip.File
}

// readArchive loads the archive into memory, checks every entry name and CRC
// and returns the restorable entries.
func (s *Store) readArchive(path string) ([]archiveEntry, *Manifest, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, nil, fmt.Errorf("read backup archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorruptBackup, err)
	}
	var entries []archiveEntry
	var manifest *Manifest
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !safeEntryName(f.Name) {
			return nil, nil, fmt.Errorf("%w: unsafe entry name %q", ErrCorruptBackup, f.Name)
		}
		if err := drain(f); err != nil {
			return nil, nil, fmt.Errorf("%w: entry %s: %w", ErrCorruptBackup, f.Name, err)
		}
		if f.Name == ManifestName {
			manifest = readManifest(f)
			continue
		}
		mode := f.Mode().Perm()
		if mode == 0 {
			mode = 0o644
		}
		entries = append(entries, archiveEntry{name: f.Name, mode: mode, file: f})
	}
	return entries, manifest, nil
}

func readManifest(f *zip.File) *Manifest {
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	m, err := ParseManifest(string(data))
	if err != nil {
		return nil
	}
	return &m
}

// safeEntryName accepts flat file names only.
func safeEntryName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\:`)
}

// restore extracts every entry to a temp file first and renames them into
// place only after all were written.
func (s *Store) restore(ctx context.Context, entries []archiveEntry) ([]string, error) {
	temps := make([]string, 0, len(entries))
	cleanup := func() {
		for _, t := range temps {
			_ = s.fs.Remove(t)
		}
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			cleanup()
			return nil, err
		}
		tmp, err := s.extractTemp(e)
		if tmp != "" {
			temps = append(temps, tmp)
		}
		if err != nil {
			cleanup()
			return nil, err
		}
	}
	restored := make([]string, 0, len(entries))
	for i, e := range entries {
		target := filepath.Join(s.userlibDir, e.name)
		if err := s.fs.Rename(temps[i], target); err != nil {
			cleanup()
			return restored, fmt.Errorf("move %s into place: %w", e.name, err)
		}
		if !e.file.Modified.IsZero() {
			_ = s.fs.Chtimes(target, e.file.Modified, e.file.Modified)
		}
		restored = append(restored, e.name)
	}
	slices.Sort(restored)
	return restored, nil
}

func (s *Store) extractTemp(e archiveEntry) (string, error) {
	tmp, err := afero.TempFile(s.fs, s.userlibDir, ".restore-*")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", e.name, err)
	}
	name := tmp.Name()
	rc, err := e.file.Open()
	if err != nil {
		tmp.Close()
		return name, fmt.Errorf("open %s: %w", e.name, err)
	}
	_, err = io.Copy(tmp, rc)
	rc.Close()
	if err != nil {
		tmp.Close()
		return name, fmt.Errorf("extract %s: %w", e.name, err)
	}
	if err := tmp.Close(); err != nil {
		return name, fmt.Errorf("close %s: %w", e.name, err)
	}
	if err := s.fs.Chmod(name, e.mode); err != nil {
		return name, fmt.Errorf("chmod %s: %w", e.name, err)
	}
	return name, nil
}
