package duplo

import (
	"strings"
	"unicode/utf8"
)

// IsValidFilename reports whether name may be used as a file name inside a pool.
// It rejects:
//   - empty names, "." and ".."
//   - any ".." sequence (parent-directory reference)
//   - path separators "/" and "\"
//   - NUL bytes and invalid UTF-8
//
// Nested paths are never allowed; every pool is a flat directory.
func IsValidFilename(name string) bool {
	if name == "" || name == "." {
		return false
	}

	if strings.Contains(name, "..") {
		return false
	}

	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}

	return utf8.ValidString(name)
}

// textFilename turns a share-text title into the stored file name.
func textFilename(title string) string {
	if strings.HasSuffix(title, ".txt") {
		return title
	}
	return title + ".txt"
}

// isHidden reports whether a listing should skip the entry.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
