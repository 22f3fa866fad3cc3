// Package cli is the command line shell around the cleanup engine.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mxtools/userlib-cleanup/cli/helpers"
	"github.com/mxtools/userlib-cleanup/engine/cleanup"
	"github.com/mxtools/userlib-cleanup/engine/project"
	"github.com/mxtools/userlib-cleanup/pkg/config"
	"github.com/mxtools/userlib-cleanup/pkg/logger"
	"github.com/mxtools/userlib-cleanup/pkg/version"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "userlib-cleanup [archive]",
		Short: "Remove redundant JAR files from a Mendix project's userlib",
		Long: `Detects JAR files in a Mendix project's userlib folder that are superseded,
duplicated or already managed through vendorlib, backs them up into a zip
archive and removes them. Use --check to only report and --revert to restore
the latest (or the named) backup archive.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
		RunE: runCleanup,
	}
	root.Flags().Bool(helpers.FlagCheck, false, "Report redundant libraries without removing them; exits 1 when any are found")
	root.Flags().Bool(helpers.FlagRevert, false, "Restore the latest backup archive, or the one named as argument")
	root.MarkFlagsMutuallyExclusive(helpers.FlagCheck, helpers.FlagRevert)
	helpers.AddGlobalFlags(root)
	return root
}

// SetupGlobalConfig loads the configuration for cmd and attaches it, with a
// logger built from it, to the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := loadEnvFile(cmd); err != nil {
		return err
	}
	cfgFile, err := configFile(cmd)
	if err != nil {
		return err
	}
	cliFlags, err := helpers.ExtractCLIFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.NewService().Load(ctx,
		config.NewYAMLProvider(cfgFile),
		config.NewCLIProvider(cliFlags),
	)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.SetupLogger(cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, cfg.Runtime.LogSource)
	log.Debug("configuration loaded", "file", cfgFile)
	ctx = config.ContextWithConfig(ctx, cfg)
	ctx = logger.ContextWithLogger(ctx, log)
	cmd.SetContext(ctx)
	return nil
}

// configFile returns the explicit --config path or the project's
// .userlib-cleanup.yaml. The project file is optional.
func configFile(cmd *cobra.Command) (string, error) {
	explicit, err := cmd.Flags().GetString(helpers.FlagConfig)
	if err != nil {
		return "", err
	}
	if explicit != "" {
		return explicit, nil
	}
	start, err := cmd.Flags().GetString(helpers.FlagProjectDir)
	if err != nil {
		return "", err
	}
	if start == "" {
		start = os.Getenv(config.EnvPrefix + "PROJECT_DIR")
	}
	if start == "" {
		start = "."
	}
	root := start
	if p, err := project.Locate(afero.NewOsFs(), start); err == nil {
		root = p.Root
	}
	return filepath.Join(root, config.ProjectFileName), nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	check, err := cmd.Flags().GetBool(helpers.FlagCheck)
	if err != nil {
		return err
	}
	revert, err := cmd.Flags().GetBool(helpers.FlagRevert)
	if err != nil {
		return err
	}
	if len(args) > 0 && !revert {
		return helpers.NewCliError("INVALID_ARGS", "An archive name is only accepted together with --revert", args[0])
	}
	opts := cleanup.Options{
		Mode:      cleanup.ModeApply,
		Version:   cfg.Project.MendixVersion,
		AssumeYes: cfg.CLI.AssumeYes,
	}
	switch {
	case check:
		opts.Mode = cleanup.ModeCheck
	case revert:
		opts.Mode = cleanup.ModeRevert
		if len(args) > 0 {
			opts.RevertArchive = args[0]
		}
	}

	out := cmd.OutOrStdout()
	renderer := helpers.NewRenderer(out, helpers.OutputFormat(cfg.CLI.Format), helpers.ShouldUseColor(cfg), cfg.Cleanup.DisplayLimit)
	var runnerOpts []cleanup.RunnerOption
	if helpers.IsInteractive(cfg) {
		p := newPrompter(renderer, out)
		runnerOpts = append(runnerOpts, cleanup.WithConfirmer(p), cleanup.WithVersionPrompter(p))
	}
	runner, err := cleanup.NewRunner(ctx, cfg, runnerOpts...)
	if err != nil {
		return err
	}
	result, runErr := runner.Run(ctx, opts)
	if result != nil {
		if err := renderer.Result(result); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil && errors.Is(runErr, context.Canceled) {
		logger.FromContext(ctx).Warn("interrupted, cleanup aborted")
	}
	return runErr
}

// Execute runs the root command with interrupt handling and prints any
// error to stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd := RootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		cfg := config.FromContext(cmd.Context())
		helpers.OutputError(os.Stderr, err, helpers.OutputFormat(cfg.CLI.Format), helpers.ShouldUseColor(cfg))
	}
	return err
}
