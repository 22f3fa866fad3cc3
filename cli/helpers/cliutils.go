package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mxtools/userlib-cleanup/engine/backup"
	"github.com/mxtools/userlib-cleanup/engine/cleanup"
	"github.com/mxtools/userlib-cleanup/engine/project"
	"github.com/mxtools/userlib-cleanup/engine/routing"
)

// CliError represents a CLI-specific error with enhanced context
type CliError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CliError) Unwrap() error {
	return e.cause
}

// NewCliError creates a new CLI error with context
func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

type errorCategory struct {
	target  error
	code    string
	message string
}

var errorCategories = []errorCategory{
	{context.Canceled, "INTERRUPTED", "Operation interrupted, no further changes were made"},
	{project.ErrProjectNotFound, "PROJECT_NOT_FOUND", "No Mendix project found; run inside a project or pass --project-dir"},
	{routing.ErrUnsupportedVersion, "UNSUPPORTED_VERSION", "Mendix version could not be resolved; pass --mendix-version"},
	{cleanup.ErrLocked, "LOCKED", "Another cleanup is already running for this project"},
	{cleanup.ErrCandidatesFound, "CANDIDATES_FOUND", "Cleanup check failed: redundant libraries found"},
	{cleanup.ErrUserCancelled, "CANCELLED", "Operation cancelled, no changes were made"},
	{cleanup.ErrInvalidConfirmation, "NOT_CONFIRMED", "Cleanup not confirmed, nothing was removed"},
	{backup.ErrBackupWrite, "BACKUP_FAILED", "Backup could not be written, nothing was removed"},
	{backup.ErrNoBackupDir, "NO_BACKUP_DIR", "No backup directory found"},
	{backup.ErrNoBackups, "NO_BACKUPS", "No backup archives found"},
	{backup.ErrBackupNotFound, "BACKUP_NOT_FOUND", "Backup archive not found"},
	{backup.ErrCorruptBackup, "BACKUP_CORRUPT", "Backup archive is corrupt, nothing was restored"},
}

// Categorize maps engine errors to a CliError. Errors that already are a
// CliError are returned unchanged.
func Categorize(err error) *CliError {
	if err == nil {
		return nil
	}
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	var partial *backup.PartialRemovalError
	if errors.As(err, &partial) {
		e := NewCliError("PARTIAL_REMOVAL", "Some files could not be removed; the backup archive is kept", err.Error())
		e.cause = err
		return e
	}
	for _, c := range errorCategories {
		if errors.Is(err, c.target) {
			e := NewCliError(c.code, c.message, err.Error())
			e.cause = err
			return e
		}
	}
	e := NewCliError("CLEANUP_FAILED", "Cleanup failed", err.Error())
	e.cause = err
	return e
}

// FormatError formats errors based on output format
func FormatError(err error, format OutputFormat, color bool) string {
	if err == nil {
		return ""
	}
	cliErr := Categorize(err)
	if format == OutputFormatJSON {
		return formatErrorJSON(cliErr)
	}
	return formatErrorText(cliErr, color)
}

// formatErrorJSON formats errors for JSON output
func formatErrorJSON(err *CliError) string {
	data, merr := json.MarshalIndent(map[string]any{"error": err}, "", "  ")
	if merr != nil {
		return `{"error": {"code": "JSON_ERROR", "message": "JSON marshaling failed"}}`
	}
	return string(data)
}

// formatErrorText formats errors for terminal output
func formatErrorText(err *CliError, color bool) string {
	msgStyle := lipgloss.NewStyle()
	detailStyle := lipgloss.NewStyle()
	if color {
		msgStyle = msgStyle.Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
		detailStyle = detailStyle.Foreground(lipgloss.Color("#888888")).Italic(true)
	}
	result := "✗ " + msgStyle.Render(err.Message)
	if err.Details != "" && !strings.EqualFold(err.Details, err.Message) {
		result += "\n" + detailStyle.Render("Details: "+err.Details)
	}
	return result
}

// OutputError writes an error in the requested format
func OutputError(w io.Writer, err error, format OutputFormat, color bool) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err, format, color))
}

// Pluralize returns singular or plural form based on count
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
