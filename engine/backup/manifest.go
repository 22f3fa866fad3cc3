package backup

import (
	"bufio"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	ManifestName   = "cleanup_manifest.txt"
	manifestTitle  = "Mendix Userlib Cleanup Manifest"
	manifestList   = "--- Removed Files ---"
	timestampLabel = "Timestamp: "
	totalLabel     = "Total items removed: "
	entryPrefix    = " - "
)

// Manifest describes the contents of one backup archive.
type Manifest struct {
	Timestamp string   `json:"timestamp"`
	Files     []string `json:"files"`
}

// NewManifest sorts a copy of files.
func NewManifest(timestamp string, files []string) Manifest {
	sorted := slices.Clone(files)
	slices.Sort(sorted)
	return Manifest{Timestamp: timestamp, Files: sorted}
}

func (m Manifest) String() string {
	var b strings.Builder
	b.WriteString(manifestTitle + "\n")
	b.WriteString(timestampLabel + m.Timestamp + "\n")
	b.WriteString(totalLabel + strconv.Itoa(len(m.Files)) + "\n")
	b.WriteString("\n" + manifestList)
	for _, f := range m.Files {
		b.WriteString("\n" + entryPrefix + f)
	}
	return b.String()
}

// ParseManifest reads a manifest written by String.
func ParseManifest(data string) (Manifest, error) {
	var m Manifest
	sc := bufio.NewScanner(strings.NewReader(data))
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != manifestTitle {
		return m, fmt.Errorf("missing manifest header")
	}
	total := -1
	inList := false
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case inList && strings.HasPrefix(line, entryPrefix):
			m.Files = append(m.Files, strings.TrimPrefix(line, entryPrefix))
		case strings.HasPrefix(line, timestampLabel):
			m.Timestamp = strings.TrimPrefix(line, timestampLabel)
		case strings.HasPrefix(line, totalLabel):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, totalLabel)))
			if err != nil {
				return m, fmt.Errorf("invalid item count: %w", err)
			}
			total = n
		case line == manifestList:
			inList = true
		}
	}
	if total >= 0 && total != len(m.Files) {
		return m, fmt.Errorf("manifest lists %d files but declares %d", len(m.Files), total)
	}
	return m, nil
}
