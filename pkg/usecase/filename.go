package usecase

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// sanitizeFilename reduces a client-supplied filename to a safe basename.
// Path separators and special characters are stripped so the result can
// never escape the upload directory. Returns "" when nothing usable
// remains.
func sanitizeFilename(name string) string {
	name = path.Base(filepath.ToSlash(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._-")
	if name == "." || name == ".." {
		return ""
	}
	return name
}
