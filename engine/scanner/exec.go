package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/shlex"

	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

// DefaultBinaryName is looked up next to the running executable.
const DefaultBinaryName = "mendix-userlib-cleaner"

// ExecOracle runs the scanner binary as a subprocess.
type ExecOracle struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// NewExecOracle builds an ExecOracle. path may be empty to use the binary
// next to the current executable; extraArgs is split with shell quoting rules.
func NewExecOracle(path, extraArgs string, timeout time.Duration) (*ExecOracle, error) {
	args, err := shlex.Split(extraArgs)
	if err != nil {
		return nil, fmt.Errorf("parse scanner arguments: %w", err)
	}
	if path == "" {
		path = defaultBinaryPath()
	}
	return &ExecOracle{Path: path, Args: args, Timeout: timeout}, nil
}

func defaultBinaryPath() string {
	name := DefaultBinaryName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}

// Scan runs "<path> --target <dir> [args...]" and parses its output.
// Any failure degrades to Unavailable; a non-zero exit status with parsable
// output still counts as available.
func (o *ExecOracle) Scan(ctx context.Context, dir string) (Findings, error) {
	if err := ctx.Err(); err != nil {
		return Findings{}, err
	}
	log := logger.FromContext(ctx).With("scanner", o.Path)
	if _, err := os.Stat(o.Path); err != nil {
		log.Debug("scanner binary not found", "error", err)
		return Unavailable("scanner binary not found"), nil
	}
	runCtx := ctx
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	args := append([]string{"--target", dir}, o.Args...)
	cmd := exec.CommandContext(runCtx, o.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	if err := ctx.Err(); err != nil {
		return Findings{}, err
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		log.Warn("scanner timed out", "timeout", o.Timeout)
		return Unavailable(fmt.Sprintf("scanner timed out after %s", o.Timeout)), nil
	}
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		log.Warn("could not run scanner", "error", runErr)
		return Unavailable(runErr.Error()), nil
	}
	files := ParseOutput(stdout.String() + "\n" + stderr.String())
	if runErr != nil {
		log.Debug("scanner exited with error", "error", runErr, "findings", len(files))
	}
	return Findings{Available: true, Files: files}, nil
}
