package runner

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	illegalPathChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// RunIDFromPath derives the run identity from the input file name: base name
// without extension, illegal path characters stripped, whitespace runs
// collapsed to single underscores. The same input path always yields the
// same identity, which is what makes resume work.
func RunIDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = illegalPathChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(base)
	base = whitespaceRun.ReplaceAllString(base, "_")
	if base == "" || base == "." {
		return "run"
	}
	return base
}
