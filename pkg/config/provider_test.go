package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIProvider_Load(t *testing.T) {
	t.Run("Should map CLI flags to configuration structure", func(t *testing.T) {
		provider := NewCLIProvider(map[string]any{
			"project-dir":    "/work/app",
			"mendix-version": "9.24.37",
			"yes":            true,
			"unknown-flag":   "ignored",
		})

		data, err := provider.Load()

		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"project": map[string]any{
				"dir":            "/work/app",
				"mendix_version": "9.24.37",
			},
			"cli": map[string]any{"assume_yes": true},
		}, data)
	})

	t.Run("Should handle nil flags gracefully", func(t *testing.T) {
		data, err := NewCLIProvider(nil).Load()

		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("Should report its source type", func(t *testing.T) {
		assert.Equal(t, SourceCLI, NewCLIProvider(nil).Type())
	})
}

func TestCLIFlagPath(t *testing.T) {
	t.Run("Should resolve known flags only", func(t *testing.T) {
		path, ok := CLIFlagPath("scanner-timeout")
		assert.True(t, ok)
		assert.Equal(t, "scanner.timeout", path)

		_, ok = CLIFlagPath("revert")
		assert.False(t, ok)
	})
}

func TestYAMLProvider_Load(t *testing.T) {
	t.Run("Should return empty map for non-existent file", func(t *testing.T) {
		data, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).Load()

		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("Should drop nil values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("project:\n  dir:\n  userlib_dir: libs\n"), 0o644))

		data, err := NewYAMLProvider(path).Load()

		require.NoError(t, err)
		assert.Equal(t, map[string]any{"project": map[string]any{"userlib_dir": "libs"}}, data)
	})

	t.Run("Should fail on malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("project: [unterminated"), 0o644))

		_, err := NewYAMLProvider(path).Load()

		assert.ErrorContains(t, err, "failed to parse YAML file")
	})

	t.Run("Should report its source type", func(t *testing.T) {
		assert.Equal(t, SourceYAML, NewYAMLProvider("x").Type())
	})
}

func TestSetNested(t *testing.T) {
	t.Run("Should create intermediate maps", func(t *testing.T) {
		m := map[string]any{}

		require.NoError(t, setNested(m, "a.b.c", 1))

		assert.Equal(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}}, m)
	})

	t.Run("Should fail on conflicting scalar", func(t *testing.T) {
		m := map[string]any{"a": "scalar"}

		assert.Error(t, setNested(m, "a.b", 1))
	})
}
