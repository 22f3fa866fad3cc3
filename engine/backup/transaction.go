package backup

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"

	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

// Prepared is a written and verified backup whose originals are still in
// place. Call Commit to delete them or Discard to drop the archive.
type Prepared struct {
	store    *Store
	Archive  string
	Manifest Manifest
}

// Empty reports whether nothing was archived.
func (p *Prepared) Empty() bool {
	return p.Archive == ""
}

// Prepare archives files (names relative to the userlib directory) into a new
// backup archive. The archive is flushed and read back before returning.
// Files missing at this point are skipped and left out of the manifest.
func (s *Store) Prepare(ctx context.Context, files []string) (*Prepared, error) {
	log := logger.FromContext(ctx)
	present, err := s.presentFiles(files)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackupWrite, err)
	}
	if skipped := len(files) - len(present); skipped > 0 {
		log.Warn("some files disappeared before backup", "skipped", skipped)
	}
	if len(present) == 0 {
		return &Prepared{store: s}, nil
	}
	if err := s.fs.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create backup directory: %w", ErrBackupWrite, err)
	}
	f, path, err := s.nextArchive()
	if err != nil {
		return nil, fmt.Errorf("%w: create archive: %w", ErrBackupWrite, err)
	}
	manifest := NewManifest(s.now().Format(TimestampLayout), present)
	if err := s.writeArchive(ctx, f, manifest); err != nil {
		_ = s.fs.Remove(path)
		return nil, fmt.Errorf("%w: %w", ErrBackupWrite, err)
	}
	if err := s.verifyArchive(path, manifest); err != nil {
		_ = s.fs.Remove(path)
		return nil, fmt.Errorf("%w: verify %s: %w", ErrBackupWrite, filepath.Base(path), err)
	}
	log.Info("backup archive created", "archive", path, "files", len(manifest.Files))
	return &Prepared{store: s, Archive: path, Manifest: manifest}, nil
}

func (s *Store) presentFiles(files []string) ([]string, error) {
	var present []string
	for _, name := range files {
		info, err := s.fs.Stat(filepath.Join(s.userlibDir, name))
		if isNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		if info.IsDir() || slices.Contains(present, name) {
			continue
		}
		present = append(present, name)
	}
	return present, nil
}

func (s *Store) writeArchive(ctx context.Context, f afero.File, manifest Manifest) (err error) {
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()
	zw := zip.NewWriter(f)
	for _, name := range manifest.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.addFile(zw, name); err != nil {
			return err
		}
	}
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     ManifestName,
		Method:   zip.Deflate,
		Modified: s.now(),
	})
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest.String()); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync archive: %w", err)
	}
	return nil
}

func (s *Store) addFile(zw *zip.Writer, name string) error {
	src, err := s.fs.Open(filepath.Join(s.userlibDir, name))
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header for %s: %w", name, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("compress %s: %w", name, err)
	}
	return nil
}

// verifyArchive reopens the archive and reads every entry so the zip reader
// checks each CRC.
func (s *Store) verifyArchive(path string, manifest Manifest) error {
	f, err := s.fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(zr.File))
	for _, entry := range zr.File {
		if err := drain(entry); err != nil {
			return fmt.Errorf("entry %s: %w", entry.Name, err)
		}
		seen[entry.Name] = true
	}
	for _, name := range append(slices.Clone(manifest.Files), ManifestName) {
		if !seen[name] {
			return fmt.Errorf("entry %s missing", name)
		}
	}
	return nil
}

func drain(entry *zip.File) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(io.Discard, rc)
	return err
}

// Commit deletes the archived originals. Failures are collected into a
// *PartialRemovalError; files already deleted stay deleted.
func (p *Prepared) Commit(ctx context.Context) error {
	if p.Empty() {
		return nil
	}
	log := logger.FromContext(ctx)
	var failures []RemovalFailure
	for _, name := range p.Manifest.Files {
		err := p.remove(ctx, name)
		if err != nil {
			log.Error("could not remove file", "file", name, "error", err)
			failures = append(failures, RemovalFailure{Filename: name, Err: err})
			continue
		}
		log.Debug("removed file", "file", name)
	}
	if len(failures) > 0 {
		return &PartialRemovalError{Archive: p.Archive, Failures: failures}
	}
	return nil
}

// Files held open by a running Studio Pro can fail to delete for a short
// while on Windows, so removals are retried before being reported.
var (
	removeRetries uint64 = 3
	removeBackoff        = 25 * time.Millisecond
)

func (p *Prepared) remove(ctx context.Context, name string) error {
	path := filepath.Join(p.store.userlibDir, name)
	return retry.Do(ctx, retry.WithMaxRetries(removeRetries, retry.NewExponential(removeBackoff)),
		func(_ context.Context) error {
			err := p.store.fs.Remove(path)
			if err == nil || isNotExist(err) {
				return nil
			}
			return retry.RetryableError(err)
		})
}

// Discard removes the archive without touching the originals.
func (p *Prepared) Discard() error {
	if p.Empty() {
		return nil
	}
	if err := p.store.fs.Remove(p.Archive); err != nil && !isNotExist(err) {
		return fmt.Errorf("discard backup archive: %w", err)
	}
	return nil
}
