package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mxtools/userlib-cleanup/engine/cleanup"
	"github.com/mxtools/userlib-cleanup/engine/detect"
)

// Styles groups the lipgloss styles used for text output.
type Styles struct {
	Header  lipgloss.Style
	Section lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
}

// NewStyles returns colored styles, or plain ones when color is false.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Section: lipgloss.NewStyle().Bold(true).Underline(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Bold:    lipgloss.NewStyle().Bold(true),
	}
}

// Renderer writes reports and results as text or JSON.
type Renderer struct {
	w            io.Writer
	format       OutputFormat
	styles       Styles
	displayLimit int
}

func NewRenderer(w io.Writer, format OutputFormat, color bool, displayLimit int) *Renderer {
	if displayLimit < 1 {
		displayLimit = 1
	}
	return &Renderer{w: w, format: format, styles: NewStyles(color), displayLimit: displayLimit}
}

// Summary renders the detection report shown before confirmation.
func (r *Renderer) Summary(report *cleanup.Report) {
	if r.format == OutputFormatJSON {
		return
	}
	fmt.Fprint(r.w, r.reportText(report))
}

// Result renders the outcome of a run.
func (r *Renderer) Result(result *cleanup.Result) error {
	if result == nil {
		return nil
	}
	if r.format == OutputFormatJSON {
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err := fmt.Fprint(r.w, r.resultText(result))
	return err
}

func (r *Renderer) resultText(result *cleanup.Result) string {
	s := r.styles
	var b strings.Builder
	switch {
	case result.Mode == cleanup.ModeRevert && result.Revert != nil:
		fmt.Fprintf(&b, "%s %s\n", s.Success.Render("✓"), "Reverted from "+filepath.Base(result.Revert.Archive))
		fmt.Fprintf(&b, "  Restored %d %s.\n", len(result.Revert.Restored),
			Pluralize(len(result.Revert.Restored), "file", "files"))
	case result.Empty:
		fmt.Fprintf(&b, "%s No JAR files found in userlib, nothing to do.\n", s.Success.Render("✓"))
	case result.Report != nil && result.Report.Clean():
		if len(result.Report.Protected) > 0 || len(result.Report.Collisions) > 0 {
			b.WriteString(r.reportText(result.Report))
		}
		fmt.Fprintf(&b, "%s Everything is clean! No redundant libraries found by the %s scan.\n",
			s.Success.Render("✓"), result.Report.Variant)
	case result.Mode == cleanup.ModeCheck:
		b.WriteString(r.reportText(result.Report))
	case len(result.Removed) > 0:
		fmt.Fprintf(&b, "%s Backup archive created: %s\n", s.Success.Render("✓"), result.Archive)
		fmt.Fprintf(&b, "%s %d redundant %s removed from userlib.\n", s.Success.Render("✓"),
			len(result.Removed), Pluralize(len(result.Removed), "file", "files"))
		if result.HealthError != "" {
			fmt.Fprintf(&b, "%s Health check failed: %s\n", s.Error.Render("✗"), result.HealthError)
		} else if result.Health != nil {
			for _, w := range result.Health.Warnings {
				fmt.Fprintf(&b, "%s %s\n", s.Warning.Render("!"), w)
			}
			fmt.Fprintf(&b, "%s Health check passed. Project structure is intact.\n", s.Success.Render("✓"))
		}
		b.WriteString(s.Header.Render("Cleanup complete, userlib optimized!") + "\n")
	}
	return b.String()
}

func (r *Renderer) reportText(report *cleanup.Report) string {
	s := r.styles
	var b strings.Builder
	if len(report.Protected) > 0 {
		b.WriteString("\n" + s.Section.Render("Protected libraries (critical / required)") + "\n")
		for _, p := range report.Protected {
			fmt.Fprintf(&b, "  - %s %s\n", p.Filename, s.Muted.Render("("+p.Token+")"))
		}
	}
	if len(report.Collisions) > 0 {
		b.WriteString("\n" + s.Section.Render("Identity collisions (review manually)") + "\n")
		for _, c := range report.Collisions {
			state := "grouped"
			if c.Skipped {
				state = "kept"
			}
			fmt.Fprintf(&b, "  - %s: %s %s\n", c.Identity, strings.Join(c.Filenames, ", "), s.Muted.Render("["+state+"]"))
		}
	}
	if report.Clean() {
		return b.String()
	}
	n := len(report.Candidates)
	b.WriteString("\n" + s.Section.Render("Redundant libraries detected") + "\n")
	fmt.Fprintf(&b, "A total of %s were found, including:\n",
		s.Bold.Render(fmt.Sprintf("%d redundant %s", n, Pluralize(n, "library", "libraries"))))
	for i, c := range report.Candidates {
		if i == r.displayLimit {
			fmt.Fprintf(&b, "  ... and %d more\n", n-r.displayLimit)
			break
		}
		fmt.Fprintf(&b, "  - %s %s\n", c.Filename, s.Muted.Render("("+joinReasons(c.Reasons)+")"))
	}
	b.WriteString("\n" + s.Section.Render("Scan summary") + "\n")
	fmt.Fprintf(&b, "  • Engine variant:           %s\n", report.Variant)
	fmt.Fprintf(&b, "  • Total files scanned:      %d\n", report.Scanned)
	fmt.Fprintf(&b, "  • Redundant files detected: %d\n", n)
	fmt.Fprintf(&b, "  • Protected files:          %d\n", len(report.Protected))
	fmt.Fprintf(&b, "  • Signature scanner:        %s\n", scannerState(report.Scanner))
	return b.String()
}

func joinReasons(reasons []detect.Reason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

func scannerState(st cleanup.ScannerStatus) string {
	switch {
	case !st.Ran:
		return "not used"
	case !st.Available:
		return "unavailable (" + st.Reason + ")"
	default:
		return fmt.Sprintf("%d %s", st.Findings, Pluralize(st.Findings, "finding", "findings"))
	}
}
