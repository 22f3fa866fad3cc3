package helpers

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/mxtools/userlib-cleanup/pkg/config"
)

// ciEnvironmentVars are set by common CI/CD systems
var ciEnvironmentVars = []string{
	"CI",
	"JENKINS_HOME",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"TRAVIS",
	"BUILDKITE",
	"DRONE",
	"TF_BUILD",               // Azure DevOps
	"APPVEYOR",               // AppVeyor
	"BAMBOO_BUILD",           // Atlassian Bamboo
	"BITBUCKET_COMMIT",       // Bitbucket Pipelines
	"CODEBUILD_BUILD_ID",     // AWS CodeBuild
	"TEAMCITY_VERSION",       // TeamCity
	"JENKINS_URL",            // Jenkins (alternative)
	"CONTINUOUS_INTEGRATION", // Generic CI flag
}

// isRunningInCI checks if we're running in a CI/CD environment
func isRunningInCI() bool {
	for _, v := range ciEnvironmentVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsInteractive reports whether prompts can be shown to the user.
func IsInteractive(cfg *config.Config) bool {
	// Allow user to override auto-detection
	if cfg.CLI.Interactive {
		return true
	}
	if cfg.CLI.Format == string(OutputFormatJSON) {
		return false
	}
	if isRunningInCI() {
		return false
	}
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// ShouldUseColor determines if colored output should be used
func ShouldUseColor(cfg *config.Config) bool {
	if cfg.CLI.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isTerminal(os.Stdout) {
		return false
	}
	if isRunningInCI() {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}
