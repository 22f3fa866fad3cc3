package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/huh"

	"github.com/mxtools/userlib-cleanup/cli/helpers"
	"github.com/mxtools/userlib-cleanup/engine/cleanup"
	"github.com/mxtools/userlib-cleanup/engine/routing"
)

// prompter asks the user through huh forms. It implements both
// cleanup.Confirmer and cleanup.VersionPrompter.
type prompter struct {
	renderer *helpers.Renderer
	out      io.Writer
}

func newPrompter(renderer *helpers.Renderer, out io.Writer) *prompter {
	return &prompter{renderer: renderer, out: out}
}

func (p *prompter) Confirm(ctx context.Context, report *cleanup.Report) (string, error) {
	p.renderer.Summary(report)
	fmt.Fprintln(p.out)
	var answer string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(fmt.Sprintf("Type %s to delete these files or %s to abort", cleanup.ConfirmProceed, cleanup.ConfirmCancel)).
			Value(&answer),
	))
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return cleanup.ConfirmCancel, nil
		}
		return "", fmt.Errorf("read confirmation: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func (p *prompter) AskVersion(ctx context.Context) (string, error) {
	var version string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Mendix Studio Pro version").
			Description("The version could not be detected from the project (e.g. 10.24.13)").
			Value(&version).
			Validate(validateVersion),
	))
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", cleanup.ErrUserCancelled
		}
		return "", err
	}
	return version, nil
}

func validateVersion(s string) error {
	if _, err := semver.NewVersion(routing.NormalizeVersion(s)); err != nil {
		return errors.New("enter a version such as 10.24.13")
	}
	return nil
}
