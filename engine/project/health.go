package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mxtools/userlib-cleanup/engine/library"
	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

var ErrUnhealthy = errors.New("project failed health check")

// Health is the outcome of a post-cleanup check.
type Health struct {
	Warnings []string `json:"warnings,omitempty"`
}

// CheckHealth confirms the project database is still present and readable
// after a cleanup. An empty userlib only produces a warning.
func CheckHealth(ctx context.Context, fsys afero.Fs, p *Project, userlibDir string) (*Health, error) {
	log := logger.FromContext(ctx)
	mpr, err := findMPR(fsys, p.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if mpr == "" {
		return nil, fmt.Errorf("%w: project database missing after cleanup", ErrUnhealthy)
	}
	if err := pingMPR(ctx, filepath.Join(p.Root, mpr)); err != nil {
		return nil, fmt.Errorf("%w: project database unreadable: %w", ErrUnhealthy, err)
	}
	h := &Health{}
	if hasArchives, err := containsArchive(fsys, userlibDir); err == nil && !hasArchives {
		msg := "userlib is now empty; this is expected when all dependencies are managed or removed"
		log.Warn(msg)
		h.Warnings = append(h.Warnings, msg)
	}
	log.Info("health check passed")
	return h, nil
}

func pingMPR(ctx context.Context, path string) error {
	db, err := openMPR(path)
	if err != nil {
		return err
	}
	defer db.Close()
	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master LIMIT 1").Scan(&name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return nil
}

func containsArchive(fsys afero.Fs, dir string) (bool, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if !e.IsDir() && library.IsArchive(e.Name()) {
			return true, nil
		}
	}
	return false, nil
}
