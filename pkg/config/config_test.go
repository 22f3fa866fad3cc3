package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Default(t *testing.T) {
	t.Run("Should return valid default configuration", func(t *testing.T) {
		cfg := Default()

		require.NotNil(t, cfg)
		assert.Equal(t, "userlib", cfg.Project.UserlibDir)
		assert.Equal(t, "vendorlib", cfg.Project.VendorlibDir)
		assert.Equal(t, "userlib_backup", cfg.Project.BackupDir)
		assert.True(t, cfg.Scanner.Enabled)
		assert.Equal(t, 2*time.Minute, cfg.Scanner.Timeout)
		assert.Equal(t, "skip", cfg.Cleanup.CollisionPolicy)
		assert.Equal(t, 15, cfg.Cleanup.DisplayLimit)
		assert.Equal(t, "info", cfg.Runtime.LogLevel)
		assert.Equal(t, "text", cfg.CLI.Format)

		require.NoError(t, NewService().Validate(cfg))
	})
}

func TestConfig_Validation(t *testing.T) {
	t.Run("Should validate directory names", func(t *testing.T) {
		tests := []struct {
			name    string
			dir     string
			wantErr bool
		}{
			{"plain name", "userlib", false},
			{"empty name", "", true},
			{"parent reference", "..", true},
			{"nested path", "a/b", true},
			{"windows path", `a\b`, true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := Default()
				cfg.Project.UserlibDir = tt.dir
				err := NewService().Validate(cfg)
				if tt.wantErr {
					assert.Error(t, err)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("Should validate collision policy", func(t *testing.T) {
		cfg := Default()
		cfg.Cleanup.CollisionPolicy = "guess"

		err := NewService().Validate(cfg)

		assert.ErrorContains(t, err, "CollisionPolicy")
	})

	t.Run("Should validate log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "disabled"} {
			cfg := Default()
			cfg.Runtime.LogLevel = level
			assert.NoError(t, NewService().Validate(cfg), level)
		}
		cfg := Default()
		cfg.Runtime.LogLevel = "verbose"
		assert.Error(t, NewService().Validate(cfg))
	})

	t.Run("Should require positive scanner timeout when scanner is enabled", func(t *testing.T) {
		cfg := Default()
		cfg.Scanner.Timeout = 0

		err := NewService().Validate(cfg)

		assert.ErrorContains(t, err, "scanner timeout")

		cfg.Scanner.Enabled = false
		assert.NoError(t, NewService().Validate(cfg))
	})

	t.Run("Should reject blank protected tokens", func(t *testing.T) {
		cfg := Default()
		cfg.Cleanup.ExtraProtected = []string{"netty", "  "}

		assert.ErrorContains(t, NewService().Validate(cfg), "extra_protected")
	})

	t.Run("Should reject nil configuration", func(t *testing.T) {
		assert.Error(t, NewService().Validate(nil))
	})
}

func TestConfig_Context(t *testing.T) {
	t.Run("Should return attached configuration", func(t *testing.T) {
		cfg := Default()
		cfg.Project.Dir = "/work/app"
		ctx := ContextWithConfig(t.Context(), cfg)

		assert.Same(t, cfg, FromContext(ctx))
	})

	t.Run("Should fall back to defaults when nothing is attached", func(t *testing.T) {
		cfg := FromContext(t.Context())

		require.NotNil(t, cfg)
		assert.Equal(t, "userlib", cfg.Project.UserlibDir)
	})
}

func TestEnvMappings(t *testing.T) {
	t.Run("Should derive env variables from struct tags", func(t *testing.T) {
		assert.Equal(t, "USERLIB_CLEANUP_SCANNER_TIMEOUT", GetEnvVarForConfigPath("scanner.timeout"))
		assert.Equal(t, "USERLIB_CLEANUP_PROJECT_DIR", GetEnvVarForConfigPath("project.dir"))
		assert.Empty(t, GetEnvVarForConfigPath("project.unknown"))

		for _, m := range GenerateEnvMappings() {
			assert.Contains(t, m.EnvVar, EnvPrefix)
		}
	})
}
