package backup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBackupWrite    = errors.New("backup archive could not be written")
	ErrNoBackupDir    = errors.New("no backup directory found")
	ErrNoBackups      = errors.New("no backup archives found")
	ErrBackupNotFound = errors.New("backup archive not found")
	ErrCorruptBackup  = errors.New("backup archive is corrupt")
)

// RemovalFailure records one original that could not be deleted.
type RemovalFailure struct {
	Filename string
	Err      error
}

// PartialRemovalError is returned by Commit when some originals were archived
// but not deleted. The archive stays in place and already deleted files are
// not restored.
type PartialRemovalError struct {
	Archive  string
	Failures []RemovalFailure
}

func (e *PartialRemovalError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Filename)
	}
	return fmt.Sprintf("failed to remove %d archived file(s): %s", len(e.Failures), strings.Join(names, ", "))
}

func (e *PartialRemovalError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
