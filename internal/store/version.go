package store

import (
	"regexp"
	"strconv"
	"strings"
)

// DocExt is the extension of every stored document.
const DocExt = ".json"

// versionToken matches the version suffix embedded in document filenames.
// The literal token is case-insensitive.
var versionToken = regexp.MustCompile(`(?i)_version(\d+)`)

// ParseVersion extracts the version number from a document filename.
// Filenames without a version token parse to 1.
func ParseVersion(filename string) int {
	m := versionToken.FindStringSubmatch(filename)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return n
}

// NextVersionIn scans filenames that start with prefix and carry the
// document extension, and returns the next free version number together
// with the filename of the current highest version. When several filenames
// parse to the same highest version, the lexicographically greatest one
// wins. No matching files yields (1, "").
func NextVersionIn(filenames []string, prefix string) (int, string) {
	maxVersion := 0
	latest := ""
	for _, f := range filenames {
		if !strings.HasPrefix(f, prefix) || !strings.HasSuffix(f, DocExt) {
			continue
		}
		v := ParseVersion(f)
		switch {
		case v > maxVersion:
			maxVersion = v
			latest = f
		case v == maxVersion && f > latest:
			latest = f
		}
	}
	if latest == "" {
		return 1, ""
	}
	return maxVersion + 1, latest
}

// EntityOf derives the entity id a filename belongs to: the base name with
// a trailing version token removed. A mid-name token is left alone so
// client names containing "_version" text do not collapse entities.
func EntityOf(filename string) string {
	base := strings.TrimSuffix(filename, DocExt)
	locs := versionToken.FindAllStringIndex(base, -1)
	if len(locs) > 0 {
		last := locs[len(locs)-1]
		if last[1] == len(base) {
			return base[:last[0]]
		}
	}
	return base
}
