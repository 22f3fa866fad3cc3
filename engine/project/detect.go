package project

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

const SettingsFile = "settings.json"

// VersionSource tells where a detected version came from.
type VersionSource string

const (
	SourceMPR      VersionSource = "mpr"
	SourceSettings VersionSource = "settings.json"
	SourceNone     VersionSource = ""
)

var looksLikeVersion = regexp.MustCompile(`^\d+\.`)

// settingsKeys are tried in order.
var settingsKeys = []string{"MendixVersion", "modelerVersion"}

// DetectVersion reads the Studio Pro version from the project database and
// falls back to settings.json. An empty version means detection failed;
// callers ask the user instead.
func DetectVersion(ctx context.Context, fsys afero.Fs, p *Project) (string, VersionSource) {
	log := logger.FromContext(ctx).With("project", p.Root)
	if v, err := versionFromMPR(ctx, p.MPR); err != nil {
		log.Debug("could not read version from project database", "error", err)
	} else if v != "" {
		return v, SourceMPR
	}
	if v := versionFromSettings(fsys, p.Root); v != "" {
		return v, SourceSettings
	}
	log.Warn("could not detect mendix version")
	return "", SourceNone
}

func versionFromMPR(ctx context.Context, path string) (string, error) {
	db, err := openMPR(path)
	if err != nil {
		return "", err
	}
	defer db.Close()
	row, err := firstMetadataRow(ctx, db)
	if err != nil || len(row) == 0 {
		return "", err
	}
	if looksLikeVersion.MatchString(row[0]) {
		return strings.TrimSpace(row[0]), nil
	}
	if len(row) > 1 {
		return strings.TrimSpace(row[1]), nil
	}
	return "", nil
}

func versionFromSettings(fsys afero.Fs, root string) string {
	data, err := afero.ReadFile(fsys, filepath.Join(root, SettingsFile))
	if err != nil || !gjson.ValidBytes(data) {
		return ""
	}
	for _, key := range settingsKeys {
		if v := strings.TrimSpace(gjson.GetBytes(data, key).String()); v != "" {
			return v
		}
	}
	return ""
}
