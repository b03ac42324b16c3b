package manifest

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnrepresentable is returned for a path the manifest cannot store and
// read back unchanged.
var ErrUnrepresentable = errors.New("path cannot be recorded in a refolding manifest")

// legacySeparator is the path separator of manifests written on Windows.
// Relative manifest paths treat it as a separator, so it cannot appear
// inside a relative name.
const legacySeparator = '\\'

// CheckPath reports whether p survives a manifest round trip. XML carries
// only valid UTF-8 within the XML 1.0 character range.
func CheckPath(p string, relative bool) error {
	if !utf8.ValidString(p) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrUnrepresentable, p)
	}
	for _, r := range p {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: %q contains character %U", ErrUnrepresentable, p, r)
		}
	}
	if relative && strings.ContainsRune(p, legacySeparator) {
		return fmt.Errorf("%w: %q contains a backslash", ErrUnrepresentable, p)
	}
	return nil
}

// isXMLChar is the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// normalizeLegacy rewrites backslash separators to slashes.
func normalizeLegacy(p string) string {
	return strings.ReplaceAll(p, string(legacySeparator), "/")
}
