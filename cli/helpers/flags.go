package helpers

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mxtools/userlib-cleanup/pkg/config"
)

const (
	FlagCheck          = "check"
	FlagRevert         = "revert"
	FlagConfig         = "config"
	FlagEnvFile        = "env-file"
	FlagProjectDir     = "project-dir"
	FlagMendixVersion  = "mendix-version"
	FlagYes            = "yes"
	FlagFormat         = "format"
	FlagLogLevel       = "log-level"
	FlagLogJSON        = "log-json"
	FlagLogSource      = "log-source"
	FlagScanner        = "scanner"
	FlagScannerPath    = "scanner-path"
	FlagScannerTimeout = "scanner-timeout"
	FlagReferenceFile  = "reference-file"
	FlagInteractive    = "interactive"
	FlagNoColor        = "no-color"
)

// AddGlobalFlags registers the configuration flags on cmd. Defaults come
// from config.Default so help output matches the effective values.
func AddGlobalFlags(cmd *cobra.Command) {
	def := config.Default()
	flags := cmd.PersistentFlags()
	flags.String(FlagConfig, "", "Path to a config file (default: <project>/"+config.ProjectFileName+")")
	flags.String(FlagEnvFile, "", "Load USERLIB_CLEANUP_* variables from this file before reading configuration")
	flags.String(FlagProjectDir, "", "Directory to start the project search from (default: current directory)")
	flags.String(FlagMendixVersion, "", "Mendix Studio Pro version, skips detection (e.g. 10.24.13)")
	flags.BoolP(FlagYes, "y", def.CLI.AssumeYes, "Skip the PROCEED confirmation")
	flags.String(FlagFormat, def.CLI.Format, "Output format (text, json)")
	flags.String(FlagLogLevel, def.Runtime.LogLevel, "Log level (debug, info, warn, error, disabled)")
	flags.Bool(FlagLogJSON, def.Runtime.LogJSON, "Write logs as JSON")
	flags.Bool(FlagLogSource, def.Runtime.LogSource, "Include source locations in logs")
	flags.Bool(FlagScanner, def.Scanner.Enabled, "Run the signature scanner when it is available")
	flags.String(FlagScannerPath, def.Scanner.Path, "Path to the signature scanner binary")
	flags.Duration(FlagScannerTimeout, def.Scanner.Timeout, "Maximum time the signature scanner may run")
	flags.String(FlagReferenceFile, def.Routing.ReferenceFile, "Path to an alternative MxVersions.txt")
	flags.Bool(FlagInteractive, def.CLI.Interactive, "Force interactive prompts")
	flags.Bool(FlagNoColor, def.CLI.NoColor, "Disable colored output")
}

// ExtractCLIFlags returns the flags the user set explicitly, keyed by flag
// name, for use with config.NewCLIProvider.
func ExtractCLIFlags(cmd *cobra.Command) (map[string]any, error) {
	values := make(map[string]any)
	var firstErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if firstErr != nil {
			return
		}
		if _, ok := config.CLIFlagPath(f.Name); !ok {
			return
		}
		v, err := flagValue(f)
		if err != nil {
			firstErr = fmt.Errorf("flag --%s: %w", f.Name, err)
			return
		}
		values[f.Name] = v
	})
	return values, firstErr
}

func flagValue(f *pflag.Flag) (any, error) {
	switch f.Value.Type() {
	case "bool":
		return strconv.ParseBool(f.Value.String())
	default:
		return f.Value.String(), nil
	}
}
