// Package cleanup runs one invocation of the userlib cleanup: it locks the
// userlib, detects redundant libraries, asks for confirmation, backs them up
// and removes them, or restores an earlier backup.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/mxtools/userlib-cleanup/engine/backup"
	"github.com/mxtools/userlib-cleanup/engine/detect"
	"github.com/mxtools/userlib-cleanup/engine/library"
	"github.com/mxtools/userlib-cleanup/engine/project"
	"github.com/mxtools/userlib-cleanup/engine/routing"
	"github.com/mxtools/userlib-cleanup/engine/scanner"
	"github.com/mxtools/userlib-cleanup/pkg/config"
	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

// Mode selects what a run does.
type Mode string

const (
	ModeApply  Mode = "apply"
	ModeCheck  Mode = "check"
	ModeRevert Mode = "revert"
)

const (
	ConfirmProceed = "PROCEED"
	ConfirmCancel  = "CANCEL"
)

const defaultLockWait = 2 * time.Second

// Options are the per-invocation choices made by the caller.
type Options struct {
	Mode Mode
	// RevertArchive names the archive to restore; empty means the latest.
	RevertArchive string
	// Version overrides version detection.
	Version   string
	AssumeYes bool
}

// Confirmer asks the user to approve a removal. It returns the raw answer,
// which must be PROCEED to continue.
type Confirmer interface {
	Confirm(ctx context.Context, report *Report) (string, error)
}

// VersionPrompter asks for the Studio Pro version when detection fails.
type VersionPrompter interface {
	AskVersion(ctx context.Context) (string, error)
}

// Result describes what a run did.
type Result struct {
	Mode      Mode               `json:"mode"`
	Project   string             `json:"project,omitempty"`
	Selection *routing.Selection `json:"selection,omitempty"`
	Report    *Report            `json:"report,omitempty"`
	// Archive is the backup written by an apply run.
	Archive string               `json:"archive,omitempty"`
	Removed []string             `json:"removed,omitempty"`
	Revert  *backup.RevertResult `json:"revert,omitempty"`
	Health  *project.Health      `json:"health,omitempty"`
	// HealthError is set when the post-cleanup check failed.
	HealthError string `json:"health_error,omitempty"`
	// Empty is true when the userlib held no archives to work on.
	Empty bool `json:"empty,omitempty"`
}

// Runner wires the engine packages together for one configuration.
type Runner struct {
	cfg       *config.Config
	fs        afero.Fs
	oracle    scanner.Oracle
	reference *routing.Reference
	confirmer Confirmer
	prompter  VersionPrompter
	clock     func() time.Time
	lockWait  time.Duration
}

type RunnerOption func(*Runner)

func WithFs(fsys afero.Fs) RunnerOption {
	return func(r *Runner) { r.fs = fsys }
}

func WithOracle(o scanner.Oracle) RunnerOption {
	return func(r *Runner) { r.oracle = o }
}

func WithReference(ref *routing.Reference) RunnerOption {
	return func(r *Runner) { r.reference = ref }
}

func WithConfirmer(c Confirmer) RunnerOption {
	return func(r *Runner) { r.confirmer = c }
}

func WithVersionPrompter(p VersionPrompter) RunnerOption {
	return func(r *Runner) { r.prompter = p }
}

func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.clock = now }
}

func WithLockWait(d time.Duration) RunnerOption {
	return func(r *Runner) { r.lockWait = d }
}

// NewRunner builds a Runner. The scanner and version reference default to
// what cfg describes.
func NewRunner(ctx context.Context, cfg *config.Config, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{cfg: cfg, fs: afero.NewOsFs(), clock: time.Now, lockWait: defaultLockWait}
	for _, opt := range opts {
		opt(r)
	}
	if r.oracle == nil {
		o, err := newOracle(cfg.Scanner)
		if err != nil {
			return nil, err
		}
		r.oracle = o
	}
	if r.reference == nil {
		ref, err := loadReference(ctx, cfg.Routing)
		if err != nil {
			return nil, err
		}
		r.reference = ref
	}
	return r, nil
}

func newOracle(cfg config.ScannerConfig) (scanner.Oracle, error) {
	if !cfg.Enabled {
		return scanner.Disabled{}, nil
	}
	return scanner.NewExecOracle(cfg.Path, cfg.Args, cfg.Timeout)
}

func loadReference(ctx context.Context, cfg config.RoutingConfig) (*routing.Reference, error) {
	if cfg.ReferenceFile == "" {
		return routing.DefaultReference(ctx), nil
	}
	return routing.LoadReference(ctx, cfg.ReferenceFile)
}

// Run executes one invocation. In check mode a non-empty removal set is
// returned together with ErrCandidatesFound.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	start := r.cfg.Project.Dir
	if start == "" {
		start = "."
	}
	proj, err := project.Locate(r.fs, start)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("project", proj.Root)
	ctx = logger.ContextWithLogger(ctx, log)
	result := &Result{Mode: opts.Mode, Project: proj.Root}

	userlibDir := filepath.Join(proj.Root, r.cfg.Project.UserlibDir)
	store := backup.NewStore(r.fs, userlibDir, r.cfg.Project.BackupDir, backup.WithClock(r.clock))
	exists, err := afero.DirExists(r.fs, userlibDir)
	if err != nil {
		return nil, fmt.Errorf("check userlib directory: %w", err)
	}
	if !exists {
		if opts.Mode == ModeRevert {
			return nil, backup.ErrNoBackupDir
		}
		log.Info("userlib folder not found, nothing to clean")
		result.Empty = true
		result.Report = &Report{}
		return result, nil
	}
	release, err := acquireLock(ctx, filepath.Join(userlibDir, r.cfg.Cleanup.LockFile), r.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	if opts.Mode == ModeRevert {
		reverted, err := store.Revert(ctx, opts.RevertArchive)
		if err != nil {
			return nil, err
		}
		result.Revert = reverted
		return result, nil
	}
	return r.cleanup(ctx, proj, userlibDir, store, opts, result)
}

func (r *Runner) cleanup(
	ctx context.Context,
	proj *project.Project,
	userlibDir string,
	store *backup.Store,
	opts Options,
	result *Result,
) (*Result, error) {
	log := logger.FromContext(ctx)
	listing, err := ListUserlib(r.fs, userlibDir, r.cfg.Cleanup.LockFile)
	if err != nil {
		return nil, err
	}
	if len(listing.Archives) == 0 {
		log.Info("no JAR files found in userlib")
		result.Empty = true
		result.Report = &Report{}
		return result, nil
	}
	selection, err := r.selectVariant(ctx, proj, opts)
	if err != nil {
		return nil, err
	}
	result.Selection = &selection
	report, err := r.detect(ctx, proj, userlibDir, listing, selection.Variant)
	if err != nil {
		return nil, err
	}
	result.Report = report
	if report.Clean() {
		log.Info("no redundant libraries found", "variant", selection.Variant)
		return result, nil
	}
	if opts.Mode == ModeCheck {
		return result, fmt.Errorf("%w: %d file(s)", ErrCandidatesFound, len(report.Candidates))
	}
	if err := r.confirm(ctx, report, opts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		log.Warn("cleanup aborted before any change")
		return nil, err
	}
	if err := r.apply(ctx, store, report, result); err != nil {
		return result, err
	}
	health, err := project.CheckHealth(ctx, r.fs, proj, userlibDir)
	if err != nil {
		log.Error("post-cleanup health check failed", "error", err)
		result.HealthError = err.Error()
	}
	result.Health = health
	return result, nil
}

func (r *Runner) selectVariant(ctx context.Context, proj *project.Project, opts Options) (routing.Selection, error) {
	log := logger.FromContext(ctx)
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = strings.TrimSpace(r.cfg.Project.MendixVersion)
	}
	if version == "" {
		detected, source := project.DetectVersion(ctx, r.fs, proj)
		if detected != "" {
			log.Info("detected mendix version", "version", detected, "source", source)
			version = detected
		}
	}
	if version == "" && r.prompter != nil {
		asked, err := r.prompter.AskVersion(ctx)
		if err != nil {
			return routing.Selection{}, fmt.Errorf("ask for mendix version: %w", err)
		}
		version = strings.TrimSpace(asked)
	}
	if version == "" {
		return routing.Selection{}, fmt.Errorf("%w: version could not be detected", routing.ErrUnsupportedVersion)
	}
	return routing.NewSelector(r.reference).Select(ctx, version)
}

func (r *Runner) detect(
	ctx context.Context,
	proj *project.Project,
	userlibDir string,
	listing *Listing,
	variant routing.Variant,
) (*Report, error) {
	in := Input{Dir: userlibDir, Listing: listing}
	if variant.Capabilities().Managed {
		managed, err := detect.LoadManagedSet(r.fs, filepath.Join(proj.Root, r.cfg.Project.VendorlibDir))
		if err != nil {
			logger.FromContext(ctx).Warn("could not scan vendorlib, skipping cross reference", "error", err)
		}
		in.Managed = managed
	}
	p := &Pipeline{
		Variant:    variant,
		Protection: library.NewProtectionList(r.cfg.Cleanup.ExtraProtected...),
		Policy:     detect.CollisionPolicy(r.cfg.Cleanup.CollisionPolicy),
		Oracle:     r.oracle,
	}
	return p.Run(ctx, in)
}

func (r *Runner) confirm(ctx context.Context, report *Report, opts Options) error {
	if opts.AssumeYes {
		return nil
	}
	if r.confirmer == nil {
		return fmt.Errorf("%w: no confirmation available, pass --yes to skip it", ErrInvalidConfirmation)
	}
	answer, err := r.confirmer.Confirm(ctx, report)
	if err != nil {
		return err
	}
	switch strings.ToUpper(strings.TrimSpace(answer)) {
	case ConfirmProceed:
		return nil
	case ConfirmCancel:
		logger.FromContext(ctx).Info("operation cancelled, no changes were made")
		return ErrUserCancelled
	default:
		return ErrInvalidConfirmation
	}
}

func (r *Runner) apply(ctx context.Context, store *backup.Store, report *Report, result *Result) error {
	log := logger.FromContext(ctx)
	prepared, err := store.Prepare(ctx, report.Removable())
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		if derr := prepared.Discard(); derr != nil {
			log.Error("could not discard backup archive", "error", derr)
		}
		log.Warn("cleanup aborted before any file was removed")
		return err
	}
	result.Archive = prepared.Archive
	err = prepared.Commit(ctx)
	result.Removed = removedFiles(prepared, err)
	if err != nil {
		return err
	}
	log.Info("redundant files removed", "count", len(result.Removed), "archive", prepared.Archive)
	return nil
}

// removedFiles lists the manifest entries that Commit managed to delete.
func removedFiles(prepared *backup.Prepared, commitErr error) []string {
	var partial *backup.PartialRemovalError
	if !errors.As(commitErr, &partial) {
		return prepared.Manifest.Files
	}
	failed := make(map[string]bool, len(partial.Failures))
	for _, f := range partial.Failures {
		failed[f.Filename] = true
	}
	var removed []string
	for _, name := range prepared.Manifest.Files {
		if !failed[name] {
			removed = append(removed, name)
		}
	}
	return removed
}
