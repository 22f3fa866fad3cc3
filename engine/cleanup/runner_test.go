package cleanup

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/otiai10/copy"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mxtools/userlib-cleanup/engine/backup"
	"github.com/mxtools/userlib-cleanup/engine/project"
	"github.com/mxtools/userlib-cleanup/engine/routing"
	"github.com/mxtools/userlib-cleanup/engine/scanner"
	"github.com/mxtools/userlib-cleanup/pkg/config"
)

// setupProject copies testdata/project into a temp dir and adds a project
// database reporting version.
func setupProject(t *testing.T, version string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "App")
	require.NoError(t, copy.Copy(filepath.Join("testdata", "project"), root))
	db, err := sql.Open("sqlite", filepath.Join(root, "App.mpr"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.ExecContext(t.Context(), "CREATE TABLE _MetaData (_ProductVersion TEXT, _BuildVersion TEXT)")
	require.NoError(t, err)
	if version != "" {
		_, err = db.ExecContext(t.Context(), "INSERT INTO _MetaData VALUES (?, ?)", version, version+".1")
		require.NoError(t, err)
	}
	return root
}

// snapshot maps every file below dir to its content.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Project.Dir = root
	cfg.Scanner.Enabled = false
	return cfg
}

func newTestRunner(t *testing.T, cfg *config.Config, opts ...RunnerOption) *Runner {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	base := []RunnerOption{
		WithOracle(scanner.Disabled{}),
		WithClock(clock),
		WithLockWait(50 * time.Millisecond),
	}
	r, err := NewRunner(t.Context(), cfg, append(base, opts...)...)
	require.NoError(t, err)
	return r
}

type answer string

func (a answer) Confirm(context.Context, *Report) (string, error) {
	return string(a), nil
}

type fixedVersion string

func (v fixedVersion) AskVersion(context.Context) (string, error) {
	return string(v), nil
}

func TestRunnerCheck(t *testing.T) {
	t.Run("Should fail with candidates and leave userlib untouched", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		userlib := filepath.Join(root, "userlib")
		before := snapshot(t, userlib)

		result, err := newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeCheck})
		assert.ErrorIs(t, err, ErrCandidatesFound)
		require.NotNil(t, result)
		assert.Equal(t, routing.MX9, result.Selection.Variant)
		assert.Equal(t, []string{"guava-19.0.jar", "guava-19.0.jar.CommunityCommons.RequiredLib"}, result.Report.Removable())
		assert.Equal(t, before, snapshot(t, userlib))
	})
	t.Run("Should fail for a single redundant file", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		userlib := filepath.Join(root, "userlib")
		require.NoError(t, os.Remove(filepath.Join(userlib, "guava-19.0.jar.CommunityCommons.RequiredLib")))
		before := snapshot(t, userlib)

		result, err := newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeCheck})
		assert.ErrorIs(t, err, ErrCandidatesFound)
		assert.Equal(t, []string{"guava-19.0.jar"}, result.Report.Removable())
		assert.Equal(t, before, snapshot(t, userlib))
	})
	t.Run("Should cross reference vendorlib from mx10 on", func(t *testing.T) {
		root := setupProject(t, "10.24.13")
		result, err := newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeCheck})
		assert.ErrorIs(t, err, ErrCandidatesFound)
		assert.Equal(t, routing.MX10, result.Selection.Variant)
		assert.Contains(t, result.Report.Removable(), "commons-io-2.11.0.jar")
		assert.NotContains(t, result.Report.Removable(), "bcprov-jdk15on-1.60.jar")
	})
}

func TestRunnerApplyAndRevert(t *testing.T) {
	t.Run("Should back up, remove, stay clean and revert byte for byte", func(t *testing.T) {
		root := setupProject(t, "10.24.13")
		userlib := filepath.Join(root, "userlib")
		before := snapshot(t, userlib)
		runner := newTestRunner(t, testConfig(root))

		result, err := runner.Run(t.Context(), Options{Mode: ModeApply, AssumeYes: true})
		require.NoError(t, err)
		want := []string{"commons-io-2.11.0.jar", "guava-19.0.jar", "guava-19.0.jar.CommunityCommons.RequiredLib"}
		assert.Equal(t, want, result.Removed)
		assert.Equal(t, "userlib_backup_2026-05-01_12-00-00.zip", filepath.Base(result.Archive))
		assert.Empty(t, result.HealthError)
		for _, name := range want {
			assert.NoFileExists(t, filepath.Join(userlib, name))
		}
		assert.NoFileExists(t, filepath.Join(userlib, ".userlib-cleanup.lock"))

		again, err := runner.Run(t.Context(), Options{Mode: ModeApply, AssumeYes: true})
		require.NoError(t, err)
		assert.True(t, again.Report.Clean())
		assert.Empty(t, again.Removed)

		reverted, err := runner.Run(t.Context(), Options{Mode: ModeRevert})
		require.NoError(t, err)
		assert.Equal(t, want, reverted.Revert.Restored)
		require.NotNil(t, reverted.Revert.Manifest)
		assert.Equal(t, want, reverted.Revert.Manifest.Files)
		after := snapshot(t, userlib)
		assert.Equal(t, before, after)
	})
	t.Run("Should revert a named archive", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		runner := newTestRunner(t, testConfig(root))
		result, err := runner.Run(t.Context(), Options{Mode: ModeApply, AssumeYes: true})
		require.NoError(t, err)
		name := filepath.Base(result.Archive)

		reverted, err := runner.Run(t.Context(), Options{Mode: ModeRevert, RevertArchive: name[:len(name)-len(".zip")]})
		require.NoError(t, err)
		assert.Equal(t, result.Removed, reverted.Revert.Restored)
	})
	t.Run("Should fail to revert without a backup directory and change nothing", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		before := snapshot(t, root)
		_, err := newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeRevert})
		assert.ErrorIs(t, err, backup.ErrNoBackupDir)
		assert.Equal(t, before, snapshot(t, root))
	})
}

func TestRunnerConfirmation(t *testing.T) {
	cases := []struct {
		name    string
		answer  answer
		wantErr error
	}{
		{name: "Should cancel on CANCEL", answer: "CANCEL", wantErr: ErrUserCancelled},
		{name: "Should refuse anything but PROCEED", answer: "yes", wantErr: ErrInvalidConfirmation},
		{name: "Should refuse an empty answer", answer: "", wantErr: ErrInvalidConfirmation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := setupProject(t, "9.24.37")
			before := snapshot(t, root)
			_, err := newTestRunner(t, testConfig(root), WithConfirmer(tc.answer)).Run(t.Context(), Options{Mode: ModeApply})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, snapshot(t, root))
		})
	}
	t.Run("Should proceed on a lower-case proceed", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		result, err := newTestRunner(t, testConfig(root), WithConfirmer(answer(" proceed "))).Run(t.Context(), Options{Mode: ModeApply})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Removed)
	})
	t.Run("Should refuse to apply without a confirmer", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		_, err := newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeApply})
		assert.ErrorIs(t, err, ErrInvalidConfirmation)
	})
}

func TestRunnerVersion(t *testing.T) {
	t.Run("Should prefer the explicit version", func(t *testing.T) {
		root := setupProject(t, "10.24.13")
		result, err := newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeCheck, Version: "9.24.37 LTS"})
		assert.ErrorIs(t, err, ErrCandidatesFound)
		assert.Equal(t, routing.MX9, result.Selection.Variant)
		assert.Equal(t, "9.24.37", result.Selection.Version)
	})
	t.Run("Should ask when the version cannot be detected", func(t *testing.T) {
		root := setupProject(t, "")
		result, err := newTestRunner(t, testConfig(root), WithVersionPrompter(fixedVersion("8.18.35"))).
			Run(t.Context(), Options{Mode: ModeCheck})
		assert.ErrorIs(t, err, ErrCandidatesFound)
		assert.Equal(t, routing.MX8, result.Selection.Variant)
	})
	t.Run("Should fail when no version is known", func(t *testing.T) {
		root := setupProject(t, "")
		_, err := newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeCheck})
		assert.ErrorIs(t, err, routing.ErrUnsupportedVersion)
	})
}

func TestRunnerEnvironment(t *testing.T) {
	t.Run("Should fail outside a project", func(t *testing.T) {
		cfg := testConfig("/nowhere/app")
		_, err := newTestRunner(t, cfg, WithFs(afero.NewMemMapFs())).Run(t.Context(), Options{Mode: ModeCheck})
		assert.ErrorIs(t, err, project.ErrProjectNotFound)
	})
	t.Run("Should treat a missing userlib as clean", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		require.NoError(t, os.RemoveAll(filepath.Join(root, "userlib")))
		result, err := newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeApply})
		require.NoError(t, err)
		assert.True(t, result.Empty)
	})
	t.Run("Should treat a userlib without jars as clean", func(t *testing.T) {
		root := setupProject(t, "")
		userlib := filepath.Join(root, "userlib")
		require.NoError(t, os.RemoveAll(userlib))
		require.NoError(t, os.MkdirAll(userlib, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(userlib, "readme.txt"), []byte("x"), 0o644))
		result, err := newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeCheck})
		require.NoError(t, err)
		assert.True(t, result.Empty)
	})
	t.Run("Should refuse to run while another run holds the lock", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		held := flock.New(filepath.Join(root, "userlib", ".userlib-cleanup.lock"))
		ok, err := held.TryLock()
		require.NoError(t, err)
		require.True(t, ok)
		defer held.Unlock()

		_, err = newTestRunner(t, testConfig(root)).Run(t.Context(), Options{Mode: ModeApply, AssumeYes: true})
		assert.ErrorIs(t, err, ErrLocked)
		assert.FileExists(t, filepath.Join(root, "userlib", "guava-19.0.jar"))
	})
	t.Run("Should abort without changes when canceled", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		before := snapshot(t, root)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := newTestRunner(t, testConfig(root), WithOracle(scanner.Static{})).
			Run(ctx, Options{Mode: ModeApply, AssumeYes: true})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, before, snapshot(t, root))
	})
	t.Run("Should merge scanner findings that exist in userlib", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		oracle := scanner.Static{"commons-io-2.11.0.jar", "not-here-1.0.jar"}
		result, err := newTestRunner(t, testConfig(root), WithOracle(oracle)).Run(t.Context(), Options{Mode: ModeCheck})
		assert.ErrorIs(t, err, ErrCandidatesFound)
		assert.Contains(t, result.Report.Removable(), "commons-io-2.11.0.jar")
		assert.Equal(t, 1, result.Report.Scanner.Ignored)
	})
	t.Run("Should honor extra protected tokens", func(t *testing.T) {
		root := setupProject(t, "9.24.37")
		cfg := testConfig(root)
		cfg.Cleanup.ExtraProtected = []string{"guava"}
		result, err := newTestRunner(t, cfg).Run(t.Context(), Options{Mode: ModeCheck})
		require.NoError(t, err)
		assert.True(t, result.Report.Clean())
		assert.Len(t, result.Report.Protected, 3)
	})
}
