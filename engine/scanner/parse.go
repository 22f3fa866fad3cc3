package scanner

import (
	"bufio"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/mxtools/userlib-cleanup/engine/library"
)

// findingMarker is the line fragment the scanner prints per redundant file.
const findingMarker = "Would remove file"

var findingLine = regexp.MustCompile(`Would remove file.*:\s+(.*)$`)

// ParseOutput extracts archive basenames from the scanner's combined output.
// Lines without the marker are ignored.
func ParseOutput(output string) []string {
	var files []string
	sc := bufio.NewScanner(strings.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if !strings.Contains(line, findingMarker) {
			continue
		}
		m := findingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		files = append(files, baseName(strings.TrimSpace(m[1])))
	}
	return normalizeFindings(files)
}

// baseName strips both slash styles; the scanner is usually a Windows binary.
func baseName(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return filepath.Base(filepath.FromSlash(p))
}

func normalizeFindings(files []string) []string {
	var result []string
	for _, f := range files {
		if f == "" || !library.IsArchive(f) || slices.Contains(result, f) {
			continue
		}
		result = append(result, f)
	}
	slices.Sort(result)
	return result
}
